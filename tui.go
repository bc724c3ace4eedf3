package main

import (
	"context"
	"fmt"
	"strings"

	"towertalk/dialogue"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var (
	app         *tview.Application
	pages       *tview.Pages
	textView    *tview.TextView
	position    *tview.TextView
	helpView    *tview.TextView
	inputField  *tview.InputField
	vehicleForm *tview.Form
	streetForm  *tview.Form
	errModal    *tview.Modal
	flex        *tview.Flex
	helpText    = `
[yellow]Enter[white]: send a typed transmission
[yellow]F1[white]: register vehicle
[yellow]F2[white]: request status refresh
[yellow]F3[white]: push to talk
[yellow]F4[white]: reset session
[yellow]F5[white]: set street by hand
[yellow]F6[white]: cycle log level
[yellow]Ctrl+c[white]: quit

%s

Press Enter to go back
`
	logLevels = []string{"debug", "info", "warn", "error"}
)

// initTUI builds the widgets around s. It must run before runTUI.
func initTUI(s *towerSession) {
	tview.Styles = theme(cfg.ColorScheme)
	app = tview.NewApplication()
	pages = tview.NewPages()
	textView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			app.Draw()
		})
	textView.SetBorder(true).SetTitle("radio")
	position = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	inputField = tview.NewInputField().
		SetLabel("transmit: ").
		SetPlaceholder("type what you would say, call sign first and last")
	inputField.SetBorder(true)
	inputField.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := inputField.GetText()
		if text == "" {
			return
		}
		inputField.SetText("")
		if err := s.submit(text); err != nil {
			showError(err)
		}
	})
	flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(textView, 0, 40, false).
		AddItem(inputField, 3, 0, true).
		AddItem(position, 1, 0, false)
	vehicleForm = tview.NewForm().
		AddInputField("make", "", 24, nil, nil).
		AddInputField("plate", "", 12, nil, nil)
	vehicleForm.AddButton("register", func() {
		vmake := vehicleForm.GetFormItemByLabel("make").(*tview.InputField).GetText()
		plate := vehicleForm.GetFormItemByLabel("plate").(*tview.InputField).GetText()
		pages.RemovePage("vehicle")
		app.SetFocus(inputField)
		if err := s.ctrl.RegisterVehicle(vmake, plate); err != nil {
			showError(err)
		}
	}).AddButton("cancel", func() {
		pages.RemovePage("vehicle")
		app.SetFocus(inputField)
	})
	vehicleForm.SetBorder(true).SetTitle("vehicle")
	streetForm = tview.NewForm().
		AddInputField("street", "", 32, nil, nil).
		AddInputField("cross street", "", 32, nil, nil)
	streetForm.AddButton("set", func() {
		street := streetForm.GetFormItemByLabel("street").(*tview.InputField).GetText()
		cross := streetForm.GetFormItemByLabel("cross street").(*tview.InputField).GetText()
		pages.RemovePage("street")
		app.SetFocus(inputField)
		s.setStreet(street, cross)
	}).AddButton("cancel", func() {
		pages.RemovePage("street")
		app.SetFocus(inputField)
	})
	streetForm.SetBorder(true).SetTitle("location")
	errModal = tview.NewModal().
		AddButtons([]string{"ok"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			pages.RemovePage("error")
			app.SetFocus(inputField)
		})
	helpView = tview.NewTextView().SetDynamicColors(true).SetDoneFunc(func(key tcell.Key) {
		pages.RemovePage("helpView")
	})
	pages.AddPage("main", flex, true, true)
	render(s.ctrl.Snapshot())
	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			pages.AddPage("vehicle", modal(vehicleForm, 44, 9), true, true)
			app.SetFocus(vehicleForm)
			return nil
		case tcell.KeyF2:
			if err := s.ctrl.RequestStatusRefresh(); err != nil {
				showError(err)
			}
			return nil
		case tcell.KeyF3:
			if err := s.ctrl.Talk(); err != nil {
				showError(err)
			}
			return nil
		case tcell.KeyF4:
			if err := s.ctrl.ResetSession(); err != nil {
				showError(err)
			}
			return nil
		case tcell.KeyF5:
			pages.AddPage("street", modal(streetForm, 52, 9), true, true)
			app.SetFocus(streetForm)
			return nil
		case tcell.KeyF6:
			cycleLogLevel()
			position.SetText(makeStatusLine(s.ctrl.Snapshot()))
			return nil
		case tcell.KeyF12:
			helpView.SetText(sprintHelp(s.ctrl.Snapshot()))
			pages.AddPage("helpView", helpView, true, true)
			return nil
		}
		return event
	})
}

// modal centers p in a box of the given size.
func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

func showError(err error) {
	logger.Warn("tui action rejected", "error", err)
	errModal.SetText(err.Error())
	pages.AddPage("error", errModal, true, true)
	app.SetFocus(errModal)
}

func render(snap dialogue.Snapshot) {
	textView.SetText(historyToText(snap.History))
	textView.ScrollToEnd()
	position.SetText(makeStatusLine(snap))
}

func sprintHelp(snap dialogue.Snapshot) string {
	return fmt.Sprintf(helpText, makeStatusLine(snap))
}

func cycleLogLevel() {
	current := logLevel.Level().String()
	for i, l := range logLevels {
		if strings.EqualFold(l, current) {
			setLogLevel(logLevels[(i+1)%len(logLevels)])
			return
		}
	}
	setLogLevel("info")
}

// runTUI blocks until the user quits or ctx is cancelled.
func runTUI(ctx context.Context, s *towerSession) error {
	events, cancel := s.ctrl.Subscribe(64)
	defer cancel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				app.Stop()
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				snap := s.ctrl.Snapshot()
				app.QueueUpdateDraw(func() {
					render(snap)
				})
			}
		}
	}()
	return app.EnablePaste(true).SetRoot(pages, true).Run()
}
