// Package film records carousel runs as PNG frames with a YAML manifest and
// an HTML contact sheet, and compares frames against stored baselines.
package film

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Config defines the frame geometry and colors.
type Config struct {
	Width      int // columns
	Height     int // rows
	Background color.RGBA
	Foreground color.RGBA
}

// DefaultConfig is an 80x24 white-on-black terminal.
func DefaultConfig() Config {
	return Config{
		Width:      80,
		Height:     24,
		Background: color.RGBA{0, 0, 0, 255},
		Foreground: color.RGBA{255, 255, 255, 255},
	}
}

// glyphs the basic font lacks are drawn with ASCII stand-ins.
var fallback = map[rune]rune{
	'─': '-', '━': '-', '│': '|', '┃': '|',
	'╭': '+', '╮': '+', '╰': '+', '╯': '+',
	'┌': '+', '┐': '+', '└': '+', '┘': '+',
	'●': '*', '○': 'o', '→': '>', '←': '<', '•': '*', '…': '~',
}

// Stage rasterises terminal views into images.
type Stage struct {
	config     Config
	buffer     [][]rune
	charWidth  int
	charHeight int
	face       font.Face
}

// NewStage creates a stage for cfg. Fully transparent colors take the
// defaults.
func NewStage(cfg Config) *Stage {
	def := DefaultConfig()
	if cfg.Background.A == 0 {
		cfg.Background = def.Background
	}
	if cfg.Foreground.A == 0 {
		cfg.Foreground = def.Foreground
	}
	s := &Stage{
		config:     cfg,
		buffer:     make([][]rune, cfg.Height),
		charWidth:  8,
		charHeight: 16,
		face:       basicfont.Face7x13,
	}
	for i := range s.buffer {
		s.buffer[i] = make([]rune, cfg.Width)
	}
	return s
}

// Config returns the stage geometry.
func (s *Stage) Config() Config { return s.config }

// Render loads a view into the character buffer. Escape sequences are
// stripped; lines and columns beyond the geometry are cut.
func (s *Stage) Render(view string) {
	for i := range s.buffer {
		for j := range s.buffer[i] {
			s.buffer[i][j] = ' '
		}
	}

	lines := strings.Split(ansi.Strip(view), "\n")
	for row, line := range lines {
		if row >= s.config.Height {
			break
		}
		col := 0
		for _, r := range line {
			if col >= s.config.Width {
				break
			}
			if alt, ok := fallback[r]; ok {
				r = alt
			}
			s.buffer[row][col] = r
			col++
		}
	}
}

// Text returns the buffer as plain text with trailing blanks trimmed.
func (s *Stage) Text() string {
	lines := make([]string, len(s.buffer))
	for i, row := range s.buffer {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Image draws the buffer.
func (s *Stage) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.config.Width*s.charWidth, s.config.Height*s.charHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(s.config.Background), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(s.config.Foreground),
		Face: s.face,
	}
	for row, line := range s.buffer {
		for col, r := range line {
			if r == ' ' || r == 0 {
				continue
			}
			drawer.Dot = fixed.Point26_6{
				X: fixed.I(col * s.charWidth),
				Y: fixed.I((row + 1) * s.charHeight),
			}
			drawer.DrawString(string(r))
		}
	}
	return img
}

// Capture writes the current buffer to path as PNG.
func (s *Stage) Capture(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, s.Image()); err != nil {
		return fmt.Errorf("encode frame %s: %w", path, err)
	}
	return nil
}
