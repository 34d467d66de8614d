package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/example/papermark/internal/notify"
	"github.com/example/papermark/internal/render"
)

type renderCmd struct {
	paper  int64
	page   int
	width  int
	output string
	*root
	fs *flag.FlagSet
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r.subcommand("render"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.Int64Var(&c.paper, "paper", 0, "paper id")
	fs.IntVar(&c.page, "page", 1, "page number")
	fs.IntVar(&c.width, "width", 0, "output width in pixels; 0 keeps the page size")
	fs.StringVar(&c.output, "output", "", "PNG file to write")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.paper == 0 || c.output == "" {
		return nil, &UsageError{of: c}
	}
	if c.width < 0 {
		return nil, fmt.Errorf("-width must not be negative")
	}
	return c, nil
}

// image draws the page with every saved question box on it.
func (c *renderCmd) image(ctx context.Context) (*image.RGBA, error) {
	client := c.client()
	page, err := client.Papers.PageImage(ctx, c.paper, c.page)
	if err != nil {
		return nil, fmt.Errorf("render paper %d page %d: %w", c.paper, c.page, err)
	}
	qs, err := client.Questions.ListPage(ctx, c.paper, c.page)
	if err != nil {
		return nil, fmt.Errorf("render paper %d page %d: %w", c.paper, c.page, err)
	}
	var sc render.Scene
	for _, q := range qs {
		for _, b := range q.Boxes {
			if b.Page == c.page {
				sc.Persisted = append(sc.Persisted, render.Persisted{Box: b.BBox, Status: q.Status})
			}
		}
	}
	var size image.Point
	if c.width > 0 {
		b := page.Bounds()
		size = image.Pt(c.width, b.Dy()*c.width/max(b.Dx(), 1))
	}
	return render.Overlay(page, size, sc, c.activeTheme), nil
}

func (c *renderCmd) Run() error {
	img, err := c.image(context.Background())
	if err != nil {
		return err
	}
	if err := writePNG(c.output, img); err != nil {
		return err
	}
	c.notifier.Statusf(notify.KindOK, "Saved %s", c.output)
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
