package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"

	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/clipboard"
	"github.com/example/papermark/internal/notify"
	"github.com/example/papermark/internal/render"
)

// writeClipboardImage is swapped in tests.
var writeClipboardImage = clipboard.WriteImage

type previewCmd struct {
	question int64
	answer   bool
	output   string
	toClip   bool
	shadow   bool
	minWidth int
	maxWidth int
	gap      int
	*root
	fs *flag.FlagSet
}

func (p *previewCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

func parsePreviewCmd(args []string, r *root) (*previewCmd, error) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	c := &previewCmd{root: r.subcommand("preview"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.Int64Var(&c.question, "question", 0, "question id")
	fs.BoolVar(&c.answer, "answer", false, "crop the answer boxes from the mark scheme instead")
	fs.StringVar(&c.output, "output", "", "PNG file to write")
	fs.BoolVar(&c.toClip, "clipboard", false, "copy the preview to the clipboard")
	fs.BoolVar(&c.shadow, "shadow", false, "add a drop shadow")
	fs.IntVar(&c.minWidth, "min-width", 0, "scale crops up to at least this width")
	fs.IntVar(&c.maxWidth, "max-width", 0, "scale crops down to at most this width")
	fs.IntVar(&c.gap, "gap", 8, "pixels between stacked crops")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.question == 0 || (c.output == "" && !c.toClip) {
		return nil, &UsageError{of: c}
	}
	if c.minWidth > 0 && c.maxWidth > 0 && c.minWidth > c.maxWidth {
		return nil, fmt.Errorf("-min-width must not exceed -max-width")
	}
	return c, nil
}

// source returns the paper and boxes to crop.
func (p *previewCmd) source(ctx context.Context) (int64, []boxes.PageBox, error) {
	client := p.client()
	if p.answer {
		a, err := client.Answers.Get(ctx, p.question)
		if err != nil {
			return 0, nil, fmt.Errorf("preview answer of question %d: %w", p.question, err)
		}
		if a == nil || len(a.Boxes) == 0 {
			return 0, nil, fmt.Errorf("question %d has no answer boxes", p.question)
		}
		return a.MSPaperID, a.Boxes, nil
	}
	q, err := client.Questions.Get(ctx, p.question)
	if err != nil {
		return 0, nil, fmt.Errorf("preview question %d: %w", p.question, err)
	}
	if len(q.Boxes) == 0 {
		return 0, nil, fmt.Errorf("question %d has no boxes", p.question)
	}
	return q.PaperID, q.Boxes, nil
}

// image crops every box in order and stacks the crops.
func (p *previewCmd) image(ctx context.Context) (*image.RGBA, error) {
	paper, bs, err := p.source(ctx)
	if err != nil {
		return nil, err
	}
	client := p.client()
	pages := map[int]image.Image{}
	crops := make([]*image.RGBA, 0, len(bs))
	for _, b := range bs {
		page, ok := pages[b.Page]
		if !ok {
			if page, err = client.Papers.PageImage(ctx, paper, b.Page); err != nil {
				return nil, fmt.Errorf("preview question %d: %w", p.question, err)
			}
			pages[b.Page] = page
		}
		crops = append(crops, render.Fit(render.Crop(page, b.BBox), p.minWidth, p.maxWidth))
	}
	var bg color.Color = color.White
	if p.activeTheme != nil {
		bg = p.activeTheme.Background
	}
	img := render.Stack(crops, p.gap, bg)
	if p.shadow {
		img = render.ApplyShadow(img, render.DefaultShadowOptions()).Image
	}
	return img, nil
}

func (p *previewCmd) Run() error {
	img, err := p.image(context.Background())
	if err != nil {
		return err
	}
	detail := fmt.Sprintf("question %d", p.question)
	if p.output != "" {
		if err := writePNG(p.output, img); err != nil {
			return err
		}
		p.notifier.Statusf(notify.KindOK, "Saved %s preview to %s", detail, p.output)
	}
	if p.toClip {
		if err := writeClipboardImage(img); err != nil {
			return fmt.Errorf("copy preview: %w", err)
		}
		p.notifier.Copied(detail+" preview", img)
	}
	return nil
}
