package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"narrator/internal/services"
)

// Voices maps profile names ("pria") to edge-tts voice identifiers.
type Voices map[string]string

// Resolve returns the edge-tts voice for a profile name or raw identifier.
// Raw identifiers must look like "<lang>-<REGION>-<Name>" with a parseable
// BCP-47 locale prefix.
func (v Voices) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "synthesis", "resolve voice", "empty voice", nil)
	}
	if voice, ok := v[strings.ToLower(name)]; ok {
		return voice, nil
	}
	if _, err := VoiceLocale(name); err != nil {
		return "", services.Wrap(services.ErrValidation, "synthesis", "resolve voice",
			fmt.Sprintf("unknown voice %q (profiles: %s)", name, strings.Join(v.Names(), ", ")), err)
	}
	return name, nil
}

// Names lists profile names in sorted order.
func (v Voices) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VoiceLocale parses the locale prefix of an edge-tts voice identifier.
func VoiceLocale(voice string) (language.Tag, error) {
	parts := strings.Split(voice, "-")
	if len(parts) < 3 || parts[len(parts)-1] == "" {
		return language.Und, fmt.Errorf("voice %q is not <lang>-<REGION>-<Name>", voice)
	}
	tag, err := language.Parse(parts[0] + "-" + parts[1])
	if err != nil {
		return language.Und, fmt.Errorf("voice %q: %w", voice, err)
	}
	return tag, nil
}
