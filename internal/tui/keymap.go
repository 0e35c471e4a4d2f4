package tui

// Key binding constants used in handleKey.
const (
	KeyQuit          = "q"
	KeyCtrlC         = "ctrl+c"
	KeyTogglePlay    = " "
	KeyStop          = "s"
	KeySeekBack      = "left"
	KeySeekForward   = "right"
	KeyVolumeUp      = "+"
	KeyVolumeUpAlt   = "="
	KeyVolumeDown    = "-"
	KeyNarration     = "n"
	KeyPrevious      = "["
	KeyNext          = "]"
	KeyPlaySelected  = "enter"
	KeyCursorUp      = "up"
	KeyCursorDown    = "down"
	KeyCursorUpAlt   = "k"
	KeyCursorDownAlt = "j"
)

// Digit keys 0-9 jump to that tenth of the video.
const seekDigits = "0123456789"

const (
	seekStep   = 5 // seconds
	volumeStep = 5
)
