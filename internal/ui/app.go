package ui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"FilamentLabeller/internal/config"
	"FilamentLabeller/internal/labeller"
)

const appID = "org.filamentlabeller.app"

func RunApp(conf config.Config, client labeller.Client) {
	a := app.NewWithID(appID)
	w := a.NewWindow("Filament Labeller")
	w.Resize(fyne.NewSize(1024, 900))

	wb := NewWorkbench(w, conf, client, labeller.Options{Dispatch: fyne.Do})
	w.SetContent(wb.Content())
	wb.addShortcuts()

	a.Lifecycle().SetOnStarted(func() {
		log.Println("[ui] started, loading first micrograph")
		wb.session.NewMicrograph()
	})
	w.SetOnClosed(wb.session.Close)
	w.ShowAndRun()
}

func (wb *Workbench) addShortcuts() {
	c := wb.window.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { wb.session.Undo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { wb.session.NewMicrograph() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyA, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { wb.session.ToggleOverlay() })
}
