package main

import (
	"fmt"
	"log/slog"
	"strings"

	"towertalk/dialogue"
	"towertalk/models"

	"github.com/rivo/tview"
)

const statusLineFmt = "F12 to show keys help | state: [%s::b]%s[-:-:-] | call sign: [yellow::b]%s[-:-:-] | street: %s | cross: %s | log: %s"

// setLogLevel accepts the config spellings as well as slog's own.
func setLogLevel(sl string) {
	switch strings.ToLower(sl) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	}
}

// turnToText renders one history entry with tview color tags.
func turnToText(t models.Turn) string {
	text := tview.Escape(t.Text)
	switch {
	case t.Speaker == models.SpeakerTower:
		return fmt.Sprintf("[gray]%s[-] [orange::b]TOWER[-:-:-]: %s", t.At.Format("15:04:05"), text)
	case !t.Valid:
		return fmt.Sprintf("[gray]%s[-] [red::b]YOU[-:-:-] [red](no call sign)[-]: %s", t.At.Format("15:04:05"), text)
	default:
		return fmt.Sprintf("[gray]%s[-] [lime::b]YOU[-:-:-]: %s", t.At.Format("15:04:05"), text)
	}
}

func historyToText(history []models.Turn) string {
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, turnToText(t))
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return tview.Escape(s)
}

func makeStatusLine(snap dialogue.Snapshot) string {
	return fmt.Sprintf(statusLineFmt, stateColor(snap.State), snap.State, orDash(snap.CallSign),
		orDash(snap.Location.PrimaryStreet), orDash(snap.Location.CrossStreet), logLevel.Level())
}
