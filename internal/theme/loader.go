package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const ext = ".theme"

// Loader handles loading themes from various sources.
type Loader struct {
	ConfigDir string
	SystemDir string
	// Inline holds themes defined in the configuration file, by name.
	Inline map[string]*Theme
}

// NewLoader creates a new Loader with standard paths.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "papermark", "themes"),
		SystemDir: "/usr/share/papermark/themes",
	}
}

func trimExt(name string) (string, bool) {
	if !strings.HasSuffix(name, ext) {
		return name, false
	}
	return strings.TrimSuffix(name, ext), true
}

// Load attempts to load a theme by name or path.
// Order:
// 1. Inline themes from the configuration file.
// 2. A file path that exists.
// 3. Embedded themes.
// 4. ConfigDir, then SystemDir.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if t, ok := l.Inline[name]; ok {
		return t, nil
	}

	if _, err := os.Stat(name); err == nil {
		return parseFile(name)
	}

	filename := name
	if _, ok := trimExt(filename); !ok {
		filename += ext
	}

	if f, err := EmbeddedThemes.Open("defaults/" + filename); err == nil {
		defer f.Close()
		return Parse(f)
	}

	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, filename)
		if _, err := os.Stat(p); err == nil {
			return parseFile(p)
		}
	}

	return nil, fmt.Errorf("theme '%s' not found", name)
}

func parseFile(path string) (*Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", path, err)
	}
	return t, nil
}
