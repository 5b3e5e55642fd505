package ui

import (
	"os"
	"testing"
)

func TestInitTheme(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	t.Run("flag disables colors", func(t *testing.T) {
		SetCurrentTheme(DefaultTheme)
		InitTheme(true, os.Stdout)
		if got := GetCurrentTheme().Name; got != "none" {
			t.Errorf("theme = %q, want none", got)
		}
	})

	t.Run("NO_COLOR disables colors", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		SetCurrentTheme(DefaultTheme)
		InitTheme(false, os.Stdout)
		if got := GetCurrentTheme().Name; got != "none" {
			t.Errorf("theme = %q, want none", got)
		}
	})

	t.Run("non-terminal output disables colors", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "out")
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		SetCurrentTheme(DefaultTheme)
		InitTheme(false, f)
		if got := GetCurrentTheme().Name; got != "none" {
			t.Errorf("theme = %q, want none", got)
		}
	})

	t.Run("nil output disables colors", func(t *testing.T) {
		SetCurrentTheme(DefaultTheme)
		InitTheme(false, nil)
		if ColorRed() != "" || ColorReset() != "" {
			t.Error("expected empty escape codes")
		}
	})
}

func TestColorsFollowTheme(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	SetCurrentTheme(DefaultTheme)
	var c Colors
	if c.Red() != DefaultTheme.Error || c.Yellow() != DefaultTheme.Warning || c.Reset() != DefaultTheme.Reset {
		t.Error("Colors does not follow the default theme")
	}
	if ColorAccent() != DefaultTheme.Accent || ColorMuted() != DefaultTheme.Muted ||
		ColorGreen() != DefaultTheme.Success || ColorBold() != DefaultTheme.Bold {
		t.Error("color helpers do not follow the default theme")
	}

	SetCurrentTheme(NoColorTheme)
	if c.Red() != "" {
		t.Error("expected no color")
	}
}
