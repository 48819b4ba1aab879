// Package export writes an annotated micrograph to a PDF: the micrograph as
// a raster image with the labelled paths on top as vector lines.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"FilamentLabeller/internal/state"
)

const pageImage = "micrograph"

// PDF writes a single page sized to page, one PDF point per pixel. page may
// be nil, in which case only the paths are written on a size x size page.
func PDF(w io.Writer, page image.Image, size image.Point, paths []state.Path, width float64, color string) error {
	if page != nil {
		size = page.Bounds().Size()
	}
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("export: empty page %v", size)
	}
	r, g, b, err := parseHex(color)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(size.X), Ht: float64(size.Y)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	if page != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, page); err != nil {
			return fmt.Errorf("export: encode page: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(pageImage, opts, &buf)
		pdf.ImageOptions(pageImage, 0, 0, float64(size.X), float64(size.Y), false, opts, 0, "")
	}

	pdf.SetDrawColor(r, g, b)
	pdf.SetFillColor(r, g, b)
	pdf.SetLineWidth(width)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	for _, p := range paths {
		if len(p.Points) == 1 {
			pdf.Circle(p.Points[0].X, p.Points[0].Y, width/2, "F")
			continue
		}
		for i := 1; i < len(p.Points); i++ {
			from, to := p.Points[i-1], p.Points[i]
			pdf.Line(from.X, from.Y, to.X, to.Y)
		}
	}

	return pdf.Output(w)
}

func parseHex(s string) (r, g, b int, err error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return 0, 0, 0, fmt.Errorf("bad colour %q", s)
	}
	v, err := strconv.ParseUint(hex[:6], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}
