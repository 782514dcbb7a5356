package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// UpperHalfBlock paints the top pixel of a cell in the foreground color
// and the bottom pixel in the background color.
const UpperHalfBlock = "▀"

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WritePNG writes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Terminal converts img into rows of half-block cells, two pixel rows per
// text row. Runs of identical cells share one styled segment.
func Terminal(img image.Image) string {
	b := img.Bounds()
	var out strings.Builder

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var (
			run    strings.Builder
			top    string
			bottom string
		)

		flush := func() {
			if run.Len() == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			out.WriteString(style.Render(run.String()))
			run.Reset()
		}

		for x := b.Min.X; x < b.Max.X; x++ {
			t := Hex(img.At(x, y))
			bt := t
			if y+1 < b.Max.Y {
				bt = Hex(img.At(x, y+1))
			}

			if run.Len() > 0 && (t != top || bt != bottom) {
				flush()
			}
			top, bottom = t, bt
			run.WriteString(UpperHalfBlock)
		}
		flush()

		if y+2 < b.Max.Y {
			out.WriteByte('\n')
		}
	}

	return out.String()
}

// TerminalSize returns the pixel size of a canvas that fills cols×rows
// half-block cells.
func TerminalSize(cols, rows int) (int, int) {
	return cols, rows * 2
}

// FitScale returns the largest uniform scale that fits a world of
// width×height units into a w×h pixel canvas.
func FitScale(w, h int, width, height float64) float64 {
	if width <= 0 || height <= 0 || w <= 0 || h <= 0 {
		return 1
	}
	sx := float64(w) / width
	sy := float64(h) / height
	if sx < sy {
		return sx
	}
	return sy
}
