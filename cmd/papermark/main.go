package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/config"
	"github.com/example/papermark/internal/notify"
	"github.com/example/papermark/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	saveAlerts  bool
	undoAlerts  bool
	errorAlerts bool
	themeName   string
	backend     string
	token       string
	activeTheme *theme.Theme
	stdout      io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	c := *r
	c.program = strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &c
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("papermark", flag.ExitOnError),
		program:  "papermark",
		notifier: notify.New(notify.LoadPreferences()),
		config:   cfg,
		stdout:   os.Stdout,
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving or copying")
	r.fs.BoolVar(&r.undoAlerts, "notify-undo", cfg.Notify.Undo, "show a desktop notification for informational messages")
	r.fs.BoolVar(&r.errorAlerts, "notify-error", cfg.Notify.Error, "show a desktop notification when a save fails")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark, light, print or a file)")
	r.fs.StringVar(&r.backend, "backend", "", "backend base URL")
	r.fs.StringVar(&r.token, "token", "", "backend bearer token")
	r.fs.Usage = usageFunc(r)
	return r
}

// firstSet returns the first non-empty value.
func firstSet(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resolve applies flag, environment and config precedence.
func (r *root) resolve() {
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventUndo, r.undoAlerts)
		r.notifier.Enable(notify.EventError, r.errorAlerts)
	}
	r.backend = firstSet(r.backend, os.Getenv("PAPERMARK_BACKEND"), r.config.Backend, config.DefaultBackend)
	r.token = firstSet(r.token, os.Getenv("PAPERMARK_TOKEN"), r.config.Token)

	themeName := firstSet(r.themeName, os.Getenv("PAPERMARK_THEME"), r.config.Theme)
	loader := theme.NewLoader()
	loader.Inline = r.config.Themes
	t, err := loader.Load(themeName)
	if err != nil {
		if themeName != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", themeName, err)
		}
		t = theme.Default()
	}
	r.activeTheme = t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	r.resolve()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "mark":
		cmd, err = parseMarkCmd(subArgs, r)
	case "answer":
		cmd, err = parseAnswerCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "preview":
		cmd, err = parsePreviewCmd(subArgs, r)
	case "align":
		cmd, err = parseAlignCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) client() *api.Client {
	var opts []api.RequestOption
	if r.token != "" {
		opts = append(opts, api.WithToken(r.token))
	}
	return api.New(r.backend, opts...)
}

func (r *root) refs() (*align.FileStore, error) {
	s, err := align.OpenFileStore(r.config.RefsPath())
	if err != nil {
		return nil, fmt.Errorf("open alignment references: %w", err)
	}
	return s, nil
}

func (r *root) out() io.Writer {
	if r.stdout == nil {
		return os.Stdout
	}
	return r.stdout
}
