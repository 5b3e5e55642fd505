package ui

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorAccent returns the accent color from the current theme.
func ColorAccent() string { return GetCurrentTheme().Accent }

// ColorMuted returns the muted color from the current theme.
func ColorMuted() string { return GetCurrentTheme().Muted }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorBold returns the bold escape code from the current theme.
func ColorBold() string { return GetCurrentTheme().Bold }

// Colors adapts the current theme to the fatal error handler.
type Colors struct{}

func (Colors) Yellow() string { return ColorYellow() }
func (Colors) Red() string    { return ColorRed() }
func (Colors) Reset() string  { return ColorReset() }
