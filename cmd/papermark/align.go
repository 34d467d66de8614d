package main

import (
	"flag"
	"fmt"
	"strconv"
)

type alignCmd struct {
	*root
	fs *flag.FlagSet
}

func (a *alignCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAlignCmd(args []string, r *root) (*alignCmd, error) {
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	c := &alignCmd{root: r.subcommand("align"), fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (a *alignCmd) Run() error {
	args := a.fs.Args()
	store, err := a.refs()
	if err != nil {
		return err
	}
	switch args[0] {
	case "list":
		for _, e := range store.Entries() {
			fmt.Fprintf(a.out(), "%s\t%s\t%.4f\t%.4f\n", e.Kind, e.Key, e.Bounds[0], e.Bounds[1])
		}
		return nil
	case "clear-paper":
		if len(args) != 2 {
			return &UsageError{of: a}
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := store.SetPaperRef(id, nil); err != nil {
			return fmt.Errorf("clear paper %d reference: %w", id, err)
		}
		return nil
	case "clear-answer":
		if len(args) != 3 {
			return &UsageError{of: a}
		}
		qp, err := parseID(args[1])
		if err != nil {
			return err
		}
		ms, err := parseID(args[2])
		if err != nil {
			return err
		}
		if err := store.SetAnswerRef(qp, ms, nil); err != nil {
			return fmt.Errorf("clear answer reference %d:%d: %w", qp, ms, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown align command: %s", args[0])
	}
}
