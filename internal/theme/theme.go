package theme

import (
	"image/color"
)

// Theme defines the colours of the page overlay and the viewer window.
type Theme struct {
	Name string

	// Window
	Background color.NRGBA // Behind the page when it does not fill the window
	Foreground color.NRGBA // Status bar text
	StatusBar  color.NRGBA

	// Persisted boxes
	Confirmed color.NRGBA
	Draft     color.NRGBA

	// Unsaved boxes
	Edit         color.NRGBA
	EditInactive color.NRGBA // Boxes of an OCR draft group that is not active
	Preview      color.NRGBA
	Handle       color.NRGBA
	LabelFill    color.NRGBA
	LabelText    color.NRGBA

	// Status banner
	BannerInfo color.NRGBA
	BannerOK   color.NRGBA
	BannerErr  color.NRGBA
	BannerText color.NRGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:         "Default",
		Background:   color.NRGBA{220, 220, 220, 255},
		Foreground:   color.NRGBA{0, 0, 0, 255},
		StatusBar:    color.NRGBA{240, 240, 240, 255},
		Confirmed:    color.NRGBA{0x16, 0xa3, 0x4a, 255},
		Draft:        color.NRGBA{0xf5, 0x9e, 0x0b, 255},
		Edit:         color.NRGBA{0xef, 0x44, 0x44, 255},
		EditInactive: color.NRGBA{0xef, 0x44, 0x44, 89},
		Preview:      color.NRGBA{0xef, 0x44, 0x44, 255},
		Handle:       color.NRGBA{0x25, 0x63, 0xeb, 255},
		LabelFill:    color.NRGBA{0xef, 0x44, 0x44, 235},
		LabelText:    color.NRGBA{255, 255, 255, 255},
		BannerInfo:   color.NRGBA{0x25, 0x63, 0xeb, 230},
		BannerOK:     color.NRGBA{0x16, 0xa3, 0x4a, 230},
		BannerErr:    color.NRGBA{0xdc, 0x26, 0x26, 230},
		BannerText:   color.NRGBA{255, 255, 255, 255},
	}
}

// Names lists the embedded theme names.
func Names() []string {
	entries, err := EmbeddedThemes.ReadDir("defaults")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if n, ok := trimExt(e.Name()); ok {
			out = append(out, n)
		}
	}
	return out
}
