package browser

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyRight     = "right"
	KeyLeft      = "left"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyL         = "l"
	KeyH         = "h"
	KeyJ         = "j"
	KeyK         = "k"
	KeyDelete    = "d"
	KeySnapshot  = "c"
)
