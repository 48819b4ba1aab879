package ui

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

func (wb *Workbench) showExport() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, wb.window)
			return
		}
		if writer == nil {
			return
		}
		wb.exportTo(writer)
	}, wb.window)
	d.SetFileName(wb.exportName())
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	d.Show()
}

func (wb *Workbench) exportName() string {
	if m, ok := wb.session.Micrograph(); ok && !m.Complete() {
		return fmt.Sprintf("micrograph-%d.pdf", m.Index)
	}
	return "labels.pdf"
}

func (wb *Workbench) exportTo(writer fyne.URIWriteCloser) {
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("[ui] closing %s: %v", writer.URI(), err)
		}
	}()

	if err := wb.session.Export(writer); err != nil {
		log.Printf("[ui] export to %s: %v", writer.URI(), err)
		wb.SetStatus("Export failed")
		return
	}
	wb.SetStatus(fmt.Sprintf("Exported %d paths to %s", len(wb.session.Paths()), writer.URI().Name()))
}
