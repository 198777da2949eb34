// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command localrest-gen writes a localrest_routes.go file into every
// package with methods annotated by localrest directives.
//
// Typical use is through go generate:
//
//	//go:generate go run github.com/z5labs/localrest/cmd/localrest-gen .
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/z5labs/localrest/pkg/slogfield"
	"github.com/z5labs/localrest/synth"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

type options struct {
	dir        string
	tags       []string
	headerFile string
	dryRun     bool
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "localrest-gen [packages]",
		Short:         "Generate localrest route handlers for annotated methods",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), stdout, stderr, opts, args)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "C", "", "directory to resolve package patterns from")
	flags.StringSliceVar(&opts.tags, "tags", nil, "comma separated build tags")
	flags.StringVar(&opts.headerFile, "header-file", "", "file whose content is written above the generated code")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the generated code instead of writing it")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every written file")

	return cmd
}

func run(ctx context.Context, stdout, stderr io.Writer, opts options, patterns []string) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := synth.Config{
		Dir:      opts.dir,
		Patterns: patterns,
		Tags:     opts.tags,
		DryRun:   opts.dryRun,
	}
	if opts.headerFile != "" {
		b, err := os.ReadFile(opts.headerFile)
		if err != nil {
			log.ErrorContext(ctx, "failed to read header file", slogfield.Error(err))
			return err
		}
		cfg.Header = string(b)
	}

	outs, err := synth.Synthesize(ctx, cfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to synthesize route handlers", slogfield.Error(err))
		return err
	}

	for _, out := range outs {
		switch {
		case out.Removed:
			log.InfoContext(ctx, "removed stale routes file", slogfield.String("path", out.Path))
		case opts.dryRun:
			fmt.Fprintf(stdout, "// %s\n%s\n", out.Path, out.Source)
		default:
			log.InfoContext(ctx, "wrote routes file", slogfield.String("path", out.Path))
		}
	}
	return nil
}
