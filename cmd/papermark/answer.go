package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/example/papermark/internal/answerview"
	"github.com/example/papermark/internal/viewer"
)

type answerCmd struct {
	target  answerview.Target
	replace bool
	*root
	fs *flag.FlagSet
}

func (a *answerCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnswerCmd(args []string, r *root) (*answerCmd, error) {
	fs := flag.NewFlagSet("answer", flag.ExitOnError)
	c := &answerCmd{root: r.subcommand("answer"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.Int64Var(&c.target.QuestionID, "question", 0, "question id")
	fs.Int64Var(&c.target.QPPaperID, "qp", 0, "question paper id")
	fs.Int64Var(&c.target.MSPaperID, "ms", 0, "mark scheme paper id")
	fs.BoolVar(&c.replace, "replace", false, "start in replace mode with the existing boxes loaded for editing")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.target.QuestionID == 0 || c.target.MSPaperID == 0 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (a *answerCmd) open(ctx context.Context) (*answerview.View, error) {
	refs, err := a.refs()
	if err != nil {
		return nil, err
	}
	settings := a.config.Align
	v := answerview.New(answerview.Config{
		Client:   a.client(),
		Refs:     refs,
		Settings: &settings,
		Notifier: a.notifier,
	})
	if err := v.Open(ctx, a.target); err != nil {
		return nil, fmt.Errorf("answer of question %d: %w", a.target.QuestionID, err)
	}
	v.SetReplaceMode(a.replace)
	return v, nil
}

func (a *answerCmd) Run() error {
	v, err := a.open(context.Background())
	if err != nil {
		return err
	}
	pages := viewer.NewPages(a.client(), a.config.Cache.Pages)
	runViewer(viewer.NewSession(viewer.Answer{View: v}, pages, a.notifier, a.activeTheme, windowSize))
	return nil
}
