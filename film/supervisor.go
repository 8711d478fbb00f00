package film

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// ErrRegression is returned when a frame drifts from its baseline beyond
// the tolerance.
var ErrRegression = errors.New("visual regression")

// Supervisor compares frames against baselines.
type Supervisor struct {
	baselineDir string
	currentDir  string
	tolerance   float64 // fraction of differing pixels allowed
}

// NewSupervisor creates a supervisor with a 5% tolerance.
func NewSupervisor(baselineDir, currentDir string) *Supervisor {
	return &Supervisor{
		baselineDir: baselineDir,
		currentDir:  currentDir,
		tolerance:   0.05,
	}
}

// WithTolerance sets the allowed fraction of differing pixels.
func (s *Supervisor) WithTolerance(t float64) *Supervisor {
	s.tolerance = t
	return s
}

// Validate compares <current>/<name>.png with <baseline>/<name>.png. On a
// regression a <name>_diff.png is written next to the current frame.
func (s *Supervisor) Validate(name string) error {
	baseline, err := loadImage(filepath.Join(s.baselineDir, name+".png"))
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	current, err := loadImage(filepath.Join(s.currentDir, name+".png"))
	if err != nil {
		return fmt.Errorf("load current: %w", err)
	}

	diff := Difference(baseline, current)
	if diff <= s.tolerance {
		return nil
	}

	if baseline.Bounds() == current.Bounds() {
		if err := writePNG(filepath.Join(s.currentDir, name+"_diff.png"), DiffImage(baseline, current)); err != nil {
			return fmt.Errorf("%w: %.2f%% difference, diff image: %v", ErrRegression, diff*100, err)
		}
	}
	return fmt.Errorf("%w: %s differs by %.2f%% (tolerance %.2f%%)", ErrRegression, name, diff*100, s.tolerance*100)
}

// SetBaseline copies a frame into the baseline directory under name.
func (s *Supervisor) SetBaseline(name, framePath string) error {
	if err := os.MkdirAll(s.baselineDir, 0o755); err != nil {
		return fmt.Errorf("create baseline directory: %w", err)
	}

	in, err := os.Open(framePath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(s.baselineDir, name+".png"))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// Difference is the fraction of pixels that differ. Images of different
// sizes differ completely.
func Difference(a, b image.Image) float64 {
	ba, bb := a.Bounds(), b.Bounds()
	if ba != bb {
		return 1
	}
	total := ba.Dx() * ba.Dy()
	if total == 0 {
		return 0
	}

	differing := 0
	for y := ba.Min.Y; y < ba.Max.Y; y++ {
		for x := ba.Min.X; x < ba.Max.X; x++ {
			if !sameColor(a.At(x, y), b.At(x, y)) {
				differing++
			}
		}
	}
	return float64(differing) / float64(total)
}

// DiffImage marks differing pixels red over a dimmed copy of a.
func DiffImage(a, b image.Image) *image.RGBA {
	bounds := a.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ca := a.At(x, y)
			if !sameColor(ca, b.At(x, y)) {
				out.Set(x, y, color.RGBA{255, 0, 0, 255})
				continue
			}
			r, g, bl, al := ca.RGBA()
			out.Set(x, y, color.RGBA{uint8(r >> 9), uint8(g >> 9), uint8(bl >> 9), uint8(al >> 8)})
		}
	}
	return out
}

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
