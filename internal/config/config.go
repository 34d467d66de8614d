// Package config reads and writes the papermark RC file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/theme"
)

const (
	DefaultBackend    = "http://127.0.0.1:8000"
	DefaultPageCache  = 120
	DefaultDraftCache = 32
)

// Notify holds the desktop notification switches.
type Notify struct {
	Save  bool
	Undo  bool
	Error bool
}

// Cache holds bounded cache sizes.
type Cache struct {
	Pages  int
	Drafts int
}

// Config holds the application configuration.
type Config struct {
	Backend  string
	Token    string
	Theme    string
	StateDir string
	Align    align.Settings
	Notify   Notify
	Cache    Cache
	Themes   map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Backend: DefaultBackend,
		Align:   align.DefaultSettings(),
		Notify: Notify{
			Error: true,
		},
		Cache: Cache{
			Pages:  DefaultPageCache,
			Drafts: DefaultDraftCache,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// StateDirOrDefault returns StateDir, or ~/.config/papermark when unset.
func (c *Config) StateDirOrDefault() string {
	if c.StateDir != "" {
		return c.StateDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "papermark")
}

// RefsPath is the alignment reference file inside the state directory.
func (c *Config) RefsPath() string {
	return filepath.Join(c.StateDirOrDefault(), align.RefFileName)
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "backend = %s\n", c.Backend)
	if c.Token != "" {
		fmt.Fprintf(&sb, "token = %s\n", c.Token)
	}
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.StateDir != "" {
		fmt.Fprintf(&sb, "state_dir = %s\n", c.StateDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[align]\n")
	fmt.Fprintf(&sb, "left = %v\n", c.Align.Left())
	fmt.Fprintf(&sb, "paper_first = %v\n", c.Align.PaperFirst())
	fmt.Fprintf(&sb, "answer = %v\n", c.Align.Answer())
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "undo = %v\n", c.Notify.Undo)
	fmt.Fprintf(&sb, "error = %v\n", c.Notify.Error)
	sb.WriteString("\n")

	sb.WriteString("[cache]\n")
	fmt.Fprintf(&sb, "pages = %d\n", c.Cache.Pages)
	fmt.Fprintf(&sb, "drafts = %d\n", c.Cache.Drafts)
	sb.WriteString("\n")

	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, kv := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", kv[0], kv[1])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
