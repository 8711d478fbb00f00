package film

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teranos/carousel/trip"
)

//go:embed templates/contact_sheet.html
var contactSheetTemplate string

var contactSheet = template.Must(template.New("contact_sheet").Parse(contactSheetTemplate))

// ManifestFile and SheetFile are written into the reel directory.
const (
	ManifestFile = "manifest.yaml"
	SheetFile    = "index.html"
)

// Frame is one captured frame.
type Frame struct {
	Step      int          `yaml:"step"`
	Label     string       `yaml:"label"`
	File      string       `yaml:"file"`
	Index     int          `yaml:"index"`
	Mode      string       `yaml:"mode"`
	Timestamp time.Time    `yaml:"timestamp"`
	DataURL   template.URL `yaml:"-"`
}

// Manifest describes a finished reel.
type Manifest struct {
	Name     string    `yaml:"name"`
	Created  time.Time `yaml:"created"`
	Duration string    `yaml:"duration"`
	Width    int       `yaml:"width"`
	Height   int       `yaml:"height"`
	Frames   []Frame   `yaml:"frames"`
}

// Reel captures frames into a directory.
type Reel struct {
	dir     string
	name    string
	stage   *Stage
	frames  []Frame
	started time.Time
}

// NewReel creates dir and a reel writing into it.
func NewReel(dir, name string, cfg Config) (*Reel, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reel directory: %w", err)
	}
	return &Reel{
		dir:     dir,
		name:    name,
		stage:   NewStage(cfg),
		started: time.Now(),
	}, nil
}

// Dir is the reel's output directory.
func (r *Reel) Dir() string { return r.dir }

// Frames returns the frames captured so far.
func (r *Reel) Frames() []Frame { return append([]Frame(nil), r.frames...) }

// Capture renders view and writes it as the next frame.
func (r *Reel) Capture(label string, index int, mode, view string) (Frame, error) {
	step := len(r.frames)
	f := Frame{
		Step:      step,
		Label:     label,
		File:      fmt.Sprintf("frame_%03d_%s.png", step, sanitize(label)),
		Index:     index,
		Mode:      mode,
		Timestamp: time.Now(),
	}

	r.stage.Render(view)
	if err := r.stage.Capture(filepath.Join(r.dir, f.File)); err != nil {
		return Frame{}, trip.Wrap(err, trip.KindRender, trip.Error, trip.Context{"frame": f.File})
	}
	r.frames = append(r.frames, f)
	return f, nil
}

// Finish writes the manifest and the contact sheet.
func (r *Reel) Finish() (*Manifest, error) {
	cfg := r.stage.Config()
	m := &Manifest{
		Name:     r.name,
		Created:  r.started,
		Duration: time.Since(r.started).Round(time.Millisecond).String(),
		Width:    cfg.Width,
		Height:   cfg.Height,
		Frames:   r.Frames(),
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, ManifestFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	for i := range m.Frames {
		url, err := dataURL(filepath.Join(r.dir, m.Frames[i].File))
		if err != nil {
			return nil, err
		}
		m.Frames[i].DataURL = url
	}

	sheet, err := os.Create(filepath.Join(r.dir, SheetFile))
	if err != nil {
		return nil, fmt.Errorf("create contact sheet: %w", err)
	}
	defer sheet.Close()
	if err := contactSheet.Execute(sheet, m); err != nil {
		return nil, fmt.Errorf("render contact sheet: %w", err)
	}
	return m, nil
}

// LoadManifest reads a reel's manifest.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

func dataURL(path string) (template.URL, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read frame: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(b)), nil
}

func sanitize(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, label)
}
