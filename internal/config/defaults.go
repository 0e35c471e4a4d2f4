package config

const (
	defaultConfigPath        = "~/.config/narrator/config.toml"
	defaultDataDir           = "~/.local/share/narrator"
	defaultNarrationDir      = "~/.local/share/narrator/narration"
	defaultLogDir            = "~/.local/share/narrator/logs"
	defaultPlaylistFile      = "~/.local/share/narrator/playlist.json"
	defaultLogRetentionDays  = 30
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultSynthesisBinary   = "edge-tts"
	defaultVoice             = "pria"
	defaultGlobalSpeed       = 1.15
	defaultSynthesisTimeout  = 60
	defaultMpvBinary         = "mpv"
	defaultTickIntervalMs    = 50
	defaultVolume            = 100
	defaultIPCTimeoutSeconds = 5
	defaultFFprobeBinary     = "ffprobe"
	defaultNotifyTimeout     = 10
)

// DefaultVoices returns the built-in voice profiles.
func DefaultVoices() map[string]string {
	return map[string]string{
		"pria":   "id-ID-ArdiNeural",
		"wanita": "id-ID-GadisNeural",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			NarrationDir: defaultNarrationDir,
			LogDir:       defaultLogDir,
			PlaylistFile: defaultPlaylistFile,
		},
		Synthesis: Synthesis{
			Binary:         defaultSynthesisBinary,
			DefaultVoice:   defaultVoice,
			GlobalSpeed:    defaultGlobalSpeed,
			TimeoutSeconds: defaultSynthesisTimeout,
			Voices:         DefaultVoices(),
		},
		Player: Player{
			MpvBinary:         defaultMpvBinary,
			TickIntervalMs:    defaultTickIntervalMs,
			VideoVolume:       defaultVolume,
			NarrationVolume:   defaultVolume,
			IPCTimeoutSeconds: defaultIPCTimeoutSeconds,
		},
		FFprobe: FFprobe{
			Binary:     defaultFFprobeBinary,
			ProbeClips: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Generation:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
