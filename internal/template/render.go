package template

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// Spec is one configured template: a source file and where to write the result.
type Spec struct {
	Template string `mapstructure:"template"`
	Target   string `mapstructure:"target"`
}

// Data is the value templates are executed against.
type Data struct {
	Palette    colour.Palette
	Background colour.RGB
	Foreground colour.RGB
	Cursor     colour.RGB
	Colours    [colour.SlotCount]colour.RGB
	Wallpaper  string
	IsDark     bool
}

// NewData builds template data for p.
func NewData(p colour.Palette, wallpaper string) Data {
	return Data{
		Palette:    p,
		Background: p.Background,
		Foreground: p.Foreground,
		Cursor:     p.Cursor,
		Colours:    p.Colours,
		Wallpaper:  wallpaper,
		IsDark:     p.IsDark(),
	}
}

// ThemeType returns "dark" or "light".
func (d Data) ThemeType() string {
	if d.IsDark {
		return "dark"
	}
	return "light"
}

// Renderer renders configured templates.
type Renderer struct {
	Logger hclog.Logger
}

// NewRenderer creates a Renderer. A nil logger discards output.
func NewRenderer(logger hclog.Logger) *Renderer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Renderer{Logger: logger}
}

// RenderAll renders every template in specs, in name order. A failing template
// does not stop the others; all failures are joined into the returned error.
// It returns the targets that were written.
func (r *Renderer) RenderAll(specs map[string]Spec, data Data) ([]string, error) {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		written []string
		errs    []error
	)
	for _, name := range names {
		target, err := r.Render(name, specs[name], data)
		if err != nil {
			errs = append(errs, fmt.Errorf("template %s: %w", name, err))
			continue
		}
		written = append(written, target)
	}
	return written, errors.Join(errs...)
}

// Render renders a single template and returns the path written.
func (r *Renderer) Render(name string, spec Spec, data Data) (string, error) {
	if spec.Template == "" || spec.Target == "" {
		return "", fmt.Errorf("both template and target must be set")
	}
	src, err := expandHome(spec.Template)
	if err != nil {
		return "", err
	}
	target, err := expandHome(spec.Target)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(src) // #nosec G304 - User-configured template path
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}

	tmpl, err := template.New(name).Funcs(Funcs()).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { // #nosec G301 - Output directory needs standard permissions
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil { // #nosec G306 - Rendered config files need standard read permissions
		return "", fmt.Errorf("failed to write output: %w", err)
	}

	r.Logger.Debug("rendered template", "name", name, "target", target)
	return target, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
