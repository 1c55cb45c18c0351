package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cbehopkins/scopetree/yggdrasil/itree"
	"github.com/cbehopkins/scopetree/yggdrasil/rbtree"
	"github.com/cbehopkins/scopetree/yggdrasil/types"
)

func keysCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "keys",
		Usage:     "insert uint32 keys and run exact and predecessor lookups",
		ArgsUsage: "KEY[=VALUE]...",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "get", Usage: "exact lookup"},
			&cli.StringSliceFlag{Name: "le", Usage: "greatest key <= Q"},
			&cli.StringSliceFlag{Name: "ge", Usage: "smallest key >= Q"},
			&cli.StringSliceFlag{Name: "remove", Usage: "remove a key before the lookups"},
			&cli.BoolFlag{Name: "print", Usage: "print the tree"},
		},
		Action: func(cctx *cli.Context) error {
			tree := rbtree.NewUint32[string](s.scope)
			for _, arg := range cctx.Args().Slice() {
				key, value, _ := strings.Cut(arg, "=")
				k, err := parseUint32(key)
				if err != nil {
					return err
				}
				if value == "" {
					value = key
				}
				tree.Insert32(k, value)
			}
			s.logger.Debug("keys inserted", zap.Int("count", tree.Count()), zap.Int("height", tree.Height()))

			for _, arg := range cctx.StringSlice("remove") {
				k, err := parseUint32(arg)
				if err != nil {
					return err
				}
				tree.Remove32(k)
			}

			out := cctx.App.Writer
			fmt.Fprintf(out, "%d keys, height %d\n", tree.Count(), tree.Height())
			lookups := []struct {
				flag string
				fn   func(uint32) (string, bool)
			}{
				{"get", tree.Lookup32},
				{"le", tree.Lookup32LE},
				{"ge", tree.Lookup32GE},
			}
			for _, l := range lookups {
				for _, arg := range cctx.StringSlice(l.flag) {
					q, err := parseUint32(arg)
					if err != nil {
						return err
					}
					if v, ok := l.fn(q); ok {
						fmt.Fprintf(out, "%s(%d) = %s\n", l.flag, q, v)
					} else {
						fmt.Fprintf(out, "%s(%d) not found\n", l.flag, q)
					}
				}
			}
			if cctx.Bool("print") {
				fmt.Fprintln(out, tree.String())
			}
			return tree.Verify()
		},
	}
}

func intervalsCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "intervals",
		Usage:     "insert closed intervals and report overlaps",
		ArgsUsage: "LO:HI[=LABEL]...",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "query", Usage: "LO:HI range to search for"},
			&cli.BoolFlag{Name: "print", Usage: "print the tree"},
		},
		Action: func(cctx *cli.Context) error {
			tree := itree.New[string](s.scope)
			for _, arg := range cctx.Args().Slice() {
				bounds, label, _ := strings.Cut(arg, "=")
				r, err := parseRange(bounds)
				if err != nil {
					return err
				}
				if label == "" {
					label = bounds
				}
				tree.Insert(r.Low, r.High, label)
			}
			s.logger.Debug("intervals inserted", zap.Int("count", tree.Len()))

			out := cctx.App.Writer
			fmt.Fprintf(out, "%d intervals\n", tree.Len())
			for _, arg := range cctx.StringSlice("query") {
				q, err := parseRange(arg)
				if err != nil {
					return err
				}
				found := tree.FindIntervals(q.Low, q.High)
				fmt.Fprintf(out, "query %v: %d overlapping\n", q, len(found))
				for _, iv := range found {
					fmt.Fprintf(out, "  %v %s\n", iv.Range, iv.Value)
				}
			}
			if cctx.Bool("print") {
				fmt.Fprintln(out, tree.Format())
			}
			return tree.Verify()
		},
	}
}

func stringsCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "strings",
		Usage:     "insert string keys and look them up",
		ArgsUsage: "KEY[=VALUE]...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "fold", Usage: "compare keys ignoring ASCII case"},
			&cli.StringSliceFlag{Name: "find", Usage: "key to look up"},
			&cli.StringSliceFlag{Name: "remove", Usage: "remove a key before the lookups"},
			&cli.BoolFlag{Name: "print", Usage: "print the tree"},
		},
		Action: func(cctx *cli.Context) error {
			flags := types.CaseSensitive
			if cctx.Bool("fold") {
				flags = types.CaseInsensitive
			}
			tree := rbtree.NewString[string](s.scope, flags)
			for _, arg := range cctx.Args().Slice() {
				key, value, _ := strings.Cut(arg, "=")
				tree.InsertString(key, value, flags)
			}
			for _, key := range cctx.StringSlice("remove") {
				tree.RemoveString(key, flags)
			}

			out := cctx.App.Writer
			fmt.Fprintf(out, "%d keys\n", tree.Count())
			for _, key := range cctx.StringSlice("find") {
				if v, ok := tree.LookupString(key, flags); ok {
					fmt.Fprintf(out, "%q = %q\n", key, v)
				} else {
					fmt.Fprintf(out, "%q not found\n", key)
				}
			}
			if cctx.Bool("print") {
				fmt.Fprintln(out, tree.Format(func(k []byte) string { return string(k) }, nil))
			}
			return tree.Verify()
		},
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return uint32(v), nil
}

func parseRange(s string) (itree.Range, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return itree.Range{}, fmt.Errorf("invalid range %q: want LO:HI", s)
	}
	low, err := strconv.ParseUint(lo, 0, 64)
	if err != nil {
		return itree.Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	high, err := strconv.ParseUint(hi, 0, 64)
	if err != nil {
		return itree.Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if low > high {
		return itree.Range{}, fmt.Errorf("invalid range %q: low exceeds high", s)
	}
	return itree.Range{Low: low, High: high}, nil
}
