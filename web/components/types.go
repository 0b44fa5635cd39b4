package components

// Option is one entry of a select input.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// LogoData is used by the logo picker to show the current upload and the
// accepted formats.
type LogoData struct {
	Present bool
	Name    string
	Size    string
	Help    string
	Accept  string
}
