package main

import (
	"towertalk/models"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var (
	colorschemes = map[string]tview.Theme{
		"default": {
			PrimitiveBackgroundColor:    tcell.ColorDefault,
			ContrastBackgroundColor:     tcell.ColorGray,
			MoreContrastBackgroundColor: tcell.ColorSteelBlue,
			BorderColor:                 tcell.ColorGray,
			TitleColor:                  tcell.ColorRed,
			GraphicsColor:               tcell.ColorBlue,
			PrimaryTextColor:            tcell.ColorLightGray,
			SecondaryTextColor:          tcell.ColorYellow,
			TertiaryTextColor:           tcell.ColorOrange,
			InverseTextColor:            tcell.ColorPurple,
			ContrastSecondaryTextColor:  tcell.ColorLime,
		},
		"gruvbox": {
			PrimitiveBackgroundColor:    tcell.NewHexColor(0x282828),
			ContrastBackgroundColor:     tcell.ColorDarkGoldenrod,
			MoreContrastBackgroundColor: tcell.ColorDarkSlateGray,
			BorderColor:                 tcell.ColorLightGray,
			TitleColor:                  tcell.ColorRed,
			GraphicsColor:               tcell.ColorDarkCyan,
			PrimaryTextColor:            tcell.ColorLightGray,
			SecondaryTextColor:          tcell.ColorYellow,
			TertiaryTextColor:           tcell.ColorOrange,
			InverseTextColor:            tcell.ColorWhite,
			ContrastSecondaryTextColor:  tcell.ColorLightGreen,
		},
		"solarized": {
			PrimitiveBackgroundColor:    tcell.NewHexColor(0x002b36),
			ContrastBackgroundColor:     tcell.ColorDarkCyan,
			MoreContrastBackgroundColor: tcell.ColorDarkSlateGray,
			BorderColor:                 tcell.ColorLightBlue,
			TitleColor:                  tcell.ColorRed,
			GraphicsColor:               tcell.ColorBlue,
			PrimaryTextColor:            tcell.ColorWhite,
			SecondaryTextColor:          tcell.ColorYellow,
			TertiaryTextColor:           tcell.ColorOrange,
			InverseTextColor:            tcell.ColorWhite,
			ContrastSecondaryTextColor:  tcell.ColorLightCyan,
		},
		"dracula": {
			PrimitiveBackgroundColor:    tcell.NewHexColor(0x282a36),
			ContrastBackgroundColor:     tcell.ColorDarkMagenta,
			MoreContrastBackgroundColor: tcell.ColorDarkGray,
			BorderColor:                 tcell.ColorLightGray,
			TitleColor:                  tcell.ColorRed,
			GraphicsColor:               tcell.ColorDarkCyan,
			PrimaryTextColor:            tcell.ColorWhite,
			SecondaryTextColor:          tcell.ColorYellow,
			TertiaryTextColor:           tcell.ColorOrange,
			InverseTextColor:            tcell.ColorWhite,
			ContrastSecondaryTextColor:  tcell.ColorLightGreen,
		},
	}
	// tview color tags for the status line
	stateColors = map[models.DialogueState]string{
		models.StateIdle:            "green",
		models.StateSpeaking:        "orange",
		models.StateListening:       "red",
		models.StateAwaitingWelcome: "yellow",
		models.StateProcessing:      "turquoise",
	}
)

// theme falls back to the default scheme for unknown names.
func theme(name string) tview.Theme {
	if t, ok := colorschemes[name]; ok {
		return t
	}
	return colorschemes["default"]
}

func stateColor(s models.DialogueState) string {
	if c, ok := stateColors[s]; ok {
		return c
	}
	return "white"
}
