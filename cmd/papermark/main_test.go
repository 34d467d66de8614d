package main

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/example/papermark/internal/api/apitest"
	"github.com/example/papermark/internal/config"
	"github.com/example/papermark/internal/theme"
)

func newTestRoot(t *testing.T) (*root, *apitest.Server, *bytes.Buffer) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddPaper(1, 1, 2)
	cfg := config.New()
	cfg.StateDir = t.TempDir()
	out := &bytes.Buffer{}
	return &root{program: "papermark", config: cfg, backend: srv.URL, stdout: out}, srv, out
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("PAPERMARK_BACKEND", "http://env:1")
	t.Setenv("PAPERMARK_TOKEN", "")
	t.Setenv("PAPERMARK_THEME", "")
	cfg := config.New()
	cfg.Backend = "http://config:1"
	cfg.Token = "secret"
	cfg.Theme = "mine"
	mine := theme.Default()
	mine.Name = "mine"
	cfg.Themes["mine"] = mine

	r := &root{config: cfg}
	r.resolve()
	if r.backend != "http://env:1" {
		t.Errorf("backend = %q, want env value", r.backend)
	}
	if r.token != "secret" {
		t.Errorf("token = %q, want config value", r.token)
	}
	if r.activeTheme != mine {
		t.Errorf("theme = %v, want inline config theme", r.activeTheme.Name)
	}

	r = &root{config: cfg, backend: "http://flag:1", themeName: "no-such-theme"}
	r.resolve()
	if r.backend != "http://flag:1" {
		t.Errorf("backend = %q, want flag value", r.backend)
	}
	if r.activeTheme == nil || r.activeTheme.Name != theme.Default().Name {
		t.Errorf("unknown theme should fall back to the default")
	}
}

func TestVersion(t *testing.T) {
	r, _, out := newTestRoot(t)
	if err := (&versionCmd{root: r}).Run(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := out.String(); got != "papermark version dev\n" {
		t.Fatalf("version = %q", got)
	}
}

func TestRootUsage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	r := newRoot()
	var uerr *UsageError
	if err := r.Run(nil); !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	help := uerr.Error()
	for _, want := range []string{"Usage: papermark", "-backend", "preview", "PAPERMARK_THEME"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q", want)
		}
	}
}
