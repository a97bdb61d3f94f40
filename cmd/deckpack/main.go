package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/deckpack/internal/config"
	"github.com/conorfennell/deckpack/internal/deckfile"
	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/logging"
	"github.com/conorfennell/deckpack/internal/media"
	"github.com/conorfennell/deckpack/internal/pack"
	"github.com/conorfennell/deckpack/internal/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "deckpack: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	configPath string
	deck       string
	source     string
	name       string
	prefix     string
	inspect    string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("deckpack", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&opts.deck, "deck", "", "Build from a YAML deck file")
	fs.StringVar(&opts.source, "source", "", "Build from a directory or git URL of markdown cards")
	fs.StringVar(&opts.name, "name", "", "Deck name for --source (default: the directory name)")
	fs.StringVar(&opts.prefix, "prefix", "deck", "Media filename prefix for --source")
	fs.StringVar(&opts.inspect, "inspect", "", "Print a summary of an existing package")
	config.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.inspect != "" {
		return inspect(stdout, opts.inspect)
	}
	if (opts.deck == "") == (opts.source == "") {
		return errors.New("exactly one of --deck or --source is required")
	}

	cfg, err := config.Load(opts.configPath, fs)
	if err != nil {
		return err
	}
	logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	var (
		schema domain.DeckSchema
		apply  func(*pack.Session) error
	)
	if opts.deck != "" {
		deck, err := deckfile.Load(opts.deck)
		if err != nil {
			return err
		}
		schema = deck.Schema()
		apply = func(s *pack.Session) error { return deck.Apply(s) }
	} else {
		dir, err := source.Resolve(ctx, logger, opts.source, cfg.Git.ReposDir)
		if err != nil {
			return err
		}
		records, parseErrors, err := source.Collect(logger, dir)
		if err != nil {
			return err
		}
		for _, perr := range parseErrors {
			logger.Warn("skipping file", "error", perr)
		}
		if len(records) == 0 {
			return fmt.Errorf("no cards found in %s", opts.source)
		}

		name := opts.name
		if name == "" {
			name = filepath.Base(filepath.Clean(dir))
		}
		schema = domain.BasicSchema(name, opts.prefix)
		apply = func(s *pack.Session) error { return s.AddRecords(records) }
	}

	s, err := pack.NewSession(schema,
		pack.WithLogger(logger),
		pack.WithStagingRoot(cfg.Staging.Dir),
		pack.WithTranscoder(media.NewTranscoder(cfg.Media.MaxImageWidth, cfg.Media.JPEGQuality)),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := apply(s); err != nil {
		return err
	}
	if err := s.Write(cfg.Out); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Wrote %d cards to %s\n", s.Len(), cfg.Out)
	return nil
}

func inspect(w io.Writer, path string) error {
	summary, err := pack.Inspect(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Package: %s\n", path)
	fmt.Fprintf(w, "Notes: %d, cards: %d, media: %d\n", len(summary.Notes), len(summary.Cards), len(summary.Media))

	if len(summary.Media) > 0 {
		fmt.Fprintln(w, "\nMedia:")
		ordinals := make([]string, 0, len(summary.Media))
		for ord := range summary.Media {
			ordinals = append(ordinals, ord)
		}
		sort.Slice(ordinals, func(i, j int) bool {
			return len(ordinals[i]) < len(ordinals[j]) || (len(ordinals[i]) == len(ordinals[j]) && ordinals[i] < ordinals[j])
		})
		for _, ord := range ordinals {
			fmt.Fprintf(w, "- %s: %s\n", ord, summary.Media[ord])
		}
	}

	if len(summary.Notes) > 0 {
		fmt.Fprintln(w, "\nNotes:")
		for _, n := range summary.Notes {
			fmt.Fprintf(w, "- %s\n", n.SortField)
		}
	}
	return nil
}
