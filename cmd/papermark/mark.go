package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/cache"
	"github.com/example/papermark/internal/markview"
	"github.com/example/papermark/internal/viewer"
)

// windowSize is the initial viewer size, roughly one A4 page on screen.
var windowSize = image.Pt(900, 1300)

// runViewer is swapped in tests.
var runViewer = func(s *viewer.Session) { s.Run() }

type markCmd struct {
	paper  int64
	page   int
	edit   int64
	drafts string
	*root
	fs *flag.FlagSet
}

func (m *markCmd) FlagSet() *flag.FlagSet {
	return m.fs
}

func parseMarkCmd(args []string, r *root) (*markCmd, error) {
	fs := flag.NewFlagSet("mark", flag.ExitOnError)
	c := &markCmd{root: r.subcommand("mark"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.Int64Var(&c.paper, "paper", 0, "paper id to open")
	fs.IntVar(&c.page, "page", 0, "page to show first")
	fs.Int64Var(&c.edit, "edit", 0, "question id to load for editing")
	fs.StringVar(&c.drafts, "drafts", "", "JSON file of OCR draft groups and boxes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.paper == 0 {
		return nil, &UsageError{of: c}
	}
	if c.edit != 0 && c.drafts != "" {
		return nil, fmt.Errorf("-edit and -drafts cannot be used together")
	}
	return c, nil
}

// draftFile is the OCR output the mark screen can start from.
type draftFile struct {
	Groups []boxes.DraftGroup `json:"groups"`
	Boxes  []boxes.PageBox    `json:"boxes"`
}

func readDrafts(path string) (draftFile, error) {
	var d draftFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read drafts: %w", err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse drafts %s: %w", path, err)
	}
	return d, nil
}

// open prepares the view without showing a window.
func (m *markCmd) open(ctx context.Context) (*markview.View, error) {
	refs, err := m.refs()
	if err != nil {
		return nil, err
	}
	settings := m.config.Align
	client := m.client()
	v := markview.New(markview.Config{
		Client:   client,
		Refs:     refs,
		Settings: &settings,
		Drafts:   cache.New[int64, markview.Stash](m.config.Cache.Drafts),
		Notifier: m.notifier,
	})
	if err := v.Open(ctx, m.paper); err != nil {
		return nil, fmt.Errorf("mark paper %d: %w", m.paper, err)
	}
	if m.page != 0 {
		if err := v.SetPage(ctx, m.page); err != nil {
			return nil, fmt.Errorf("mark paper %d: %w", m.paper, err)
		}
	}
	switch {
	case m.edit != 0:
		if err := v.EditQuestion(ctx, m.edit); err != nil {
			return nil, fmt.Errorf("mark paper %d: %w", m.paper, err)
		}
	case m.drafts != "":
		d, err := readDrafts(m.drafts)
		if err != nil {
			return nil, err
		}
		if err := v.LoadDrafts(d.Groups, d.Boxes); err != nil {
			return nil, fmt.Errorf("mark paper %d: %w", m.paper, err)
		}
	}
	return v, nil
}

func (m *markCmd) Run() error {
	v, err := m.open(context.Background())
	if err != nil {
		return err
	}
	pages := viewer.NewPages(m.client(), m.config.Cache.Pages)
	runViewer(viewer.NewSession(viewer.Mark{View: v}, pages, m.notifier, m.activeTheme, windowSize))
	return nil
}
