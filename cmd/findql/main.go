package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/findql/internal/config"
	"github.com/standardbeagle/findql/internal/debug"
	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/query"
	"github.com/standardbeagle/findql/internal/runner"
	"github.com/standardbeagle/findql/internal/version"
	"github.com/standardbeagle/findql/internal/walk"
	"github.com/standardbeagle/findql/pkg/pathutil"
)

// loadConfigWithOverrides loads configuration from the search root and
// applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context, rootArg string) (*config.Config, string, error) {
	root := rootArg
	if root == "" {
		root = c.String("root")
	}
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", absRoot, err)
	}

	// Apply CLI flag overrides
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if c.Bool("case-insensitive") {
		cfg.Search.CaseSensitive = false
	}
	if c.Bool("whole-word") {
		cfg.Search.WholeWord = true
	}
	if c.Bool("stem") {
		cfg.Search.StemMatching = true
	}
	if c.Bool("fuzzy") {
		cfg.Search.FuzzyEnabled = true
	}
	if c.Bool("fuzzy-near") {
		cfg.Search.FuzzyNearEnabled = true
	}
	if c.IsSet("threshold") {
		cfg.Search.FuzzyThreshold = c.Float64("threshold")
	}
	if c.IsSet("max-results") {
		cfg.Search.MaxResults = c.Int("max-results")
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.Performance.Workers = workers
	}
	if maxMB := c.Int64("max-file-size"); maxMB > 0 {
		cfg.Stream.MaxFileSizeMB = maxMB
	}

	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, absRoot, nil
}

func main() {
	app := &cli.App{
		Name:                   "findql",
		Usage:                  "Query-driven text search across file trees",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory to search (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include '*.go' --include 'src/**/*.ts')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude 'vendor/**')",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Evaluate a query expression against files under the root",
				ArgsUsage: `'QUERY' [PATH] (e.g. 'error AND NOT timeout', 'NEAR(alpha, beta, 5)', '~databse OR /conn[0-9]+/')`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "case-insensitive",
						Aliases: []string{"i"},
						Usage:   "Case-insensitive matching",
					},
					&cli.BoolFlag{
						Name:    "whole-word",
						Aliases: []string{"w"},
						Usage:   "Match whole words only",
					},
					&cli.BoolFlag{
						Name:  "stem",
						Usage: "Also match words sharing the term's stem",
					},
					&cli.BoolFlag{
						Name:  "fuzzy",
						Usage: "Fall back to fuzzy matching when exact matching finds nothing",
					},
					&cli.BoolFlag{
						Name:  "fuzzy-near",
						Usage: "Allow fuzzy matching inside NEAR expressions",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Fuzzy similarity threshold (0..1)",
					},
					&cli.IntFlag{
						Name:    "max-results",
						Aliases: []string{"n"},
						Usage:   "Max number of matching files to print",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file workers (0 = NumCPU)",
					},
					&cli.Int64Flag{
						Name:  "max-file-size",
						Usage: "Skip files larger than this many MB",
					},
					&cli.BoolFlag{
						Name:    "files-only",
						Aliases: []string{"l"},
						Usage:   "Print only matching file paths",
					},
					&cli.BoolFlag{
						Name:    "count",
						Aliases: []string{"c"},
						Usage:   "Print only the number of matching files",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Stay running and re-evaluate files as they change",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Print run statistics to stderr when done",
					},
				},
				Action: searchCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: findql search 'QUERY' [PATH]")
	}

	cfg, root, err := loadConfigWithOverrides(c, c.Args().Get(1))
	if err != nil {
		return err
	}

	expr, err := query.Parse(c.Args().First())
	if err != nil {
		return err
	}

	paths, walkErrs := walk.Files(walk.Options{
		Root:        root,
		Include:     cfg.Include,
		Exclude:     cfg.Exclude,
		MaxFileSize: cfg.Stream.MaxFileSizeMB * 1024 * 1024,
		SkipBinary:  cfg.Stream.SkipBinary,
	})
	for _, werr := range walkErrs {
		debug.Warn("walk: %v", werr)
	}

	run, err := runner.New(cfg)
	if err != nil {
		return err
	}
	defer run.Close()

	ctx := context.Background()
	results, err := run.Search(ctx, expr, paths)
	if err != nil {
		var multi *ferrors.MultiError
		if !errors.As(err, &multi) {
			return err
		}
		// Per-file failures are reported inline with the results.
	}

	printer := newPrinter(c, root, cfg.Search.MaxResults)
	printer.printBatch(results)

	if c.Bool("stats") {
		fmt.Fprint(os.Stderr, run.Stats().Summary())
	}

	if !c.Bool("watch") {
		if printer.matches == 0 && !c.Bool("count") && !c.Bool("json") {
			return cli.Exit("", 1)
		}
		return nil
	}
	return watchLoop(c, cfg, root, run, expr, printer)
}

// watchLoop re-evaluates changed files until interrupted.
func watchLoop(c *cli.Context, cfg *config.Config, root string, run *runner.Runner, expr query.Expr, printer *printer) error {
	ctx := context.Background()

	w, err := runner.NewWatcher(cfg, root, func(paths []string) {
		for _, p := range paths {
			run.Invalidate(p)
		}
		results, serr := run.Search(ctx, expr, paths)
		if serr != nil {
			var multi *ferrors.MultiError
			if !errors.As(serr, &multi) {
				debug.Warn("watch search: %v", serr)
				return
			}
		}
		printer.printBatch(results)
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(os.Stderr, "watching %s (Ctrl-C to stop)\n", root)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

// printer renders batch results in one of the output modes. Output stops
// after maxResults matching files; counting continues so --count stays
// accurate.
type printer struct {
	filesOnly  bool
	countOnly  bool
	asJSON     bool
	root       string
	maxResults int
	matches    int
}

func newPrinter(c *cli.Context, root string, maxResults int) *printer {
	return &printer{
		filesOnly:  c.Bool("files-only"),
		countOnly:  c.Bool("count"),
		asJSON:     c.Bool("json"),
		root:       root,
		maxResults: maxResults,
	}
}

type jsonMatch struct {
	Path      string     `json:"path"`
	Lines     []jsonLine `json:"lines,omitempty"`
	Truncated bool       `json:"truncated,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type jsonLine struct {
	Offset int64  `json:"offset"`
	Text   string `json:"text"`
}

func (p *printer) printBatch(results []runner.FileMatch) {
	if p.asJSON {
		p.printJSON(results)
		return
	}

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "findql: %s: %v\n", p.displayPath(res.Path), res.Err)
			continue
		}
		if !res.Matched {
			continue
		}
		p.matches++
		if p.countOnly {
			continue
		}
		if p.maxResults > 0 && p.matches > p.maxResults {
			continue
		}
		if p.filesOnly || len(res.Lines) == 0 {
			// A match can span lines (NEAR across a newline); there may be
			// no single line to show.
			fmt.Println(p.displayPath(res.Path))
			continue
		}
		for _, line := range res.Lines {
			fmt.Printf("%s:%d: %s\n", p.displayPath(res.Path), line.Offset, line.Line)
		}
		if res.Truncated {
			fmt.Fprintf(os.Stderr, "findql: %s: output truncated\n", p.displayPath(res.Path))
		}
	}
	if p.countOnly {
		fmt.Println(p.matches)
	}
}

func (p *printer) printJSON(results []runner.FileMatch) {
	out := make([]jsonMatch, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			out = append(out, jsonMatch{Path: p.displayPath(res.Path), Error: res.Err.Error()})
			continue
		}
		if !res.Matched {
			continue
		}
		p.matches++
		if p.maxResults > 0 && p.matches > p.maxResults {
			continue
		}
		m := jsonMatch{Path: p.displayPath(res.Path), Truncated: res.Truncated}
		for _, line := range res.Lines {
			m.Lines = append(m.Lines, jsonLine{Offset: line.Offset, Text: line.Line})
		}
		out = append(out, m)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "findql: encode results: %v\n", err)
	}
}

func (p *printer) displayPath(path string) string {
	return pathutil.ToRelative(path, p.root)
}
