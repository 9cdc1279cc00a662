package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/sagre-kalender/internal/app"
	"github.com/klabast/wb-services/sagre-kalender/internal/events"
	"github.com/klabast/wb-services/sagre-kalender/internal/logger"
	"github.com/klabast/wb-services/sagre-kalender/internal/storage"
)

// Import handles the import subcommand: parses a bulk text file and
// appends its events to the stored collection.
func Import(args []string) error {
	return runImportCommand("import", args, false)
}

// Check handles the check subcommand: parses a bulk text file and reports
// the result without storing anything.
func Check(args []string) error {
	return runImportCommand("check", args, true)
}

func runImportCommand(name string, args []string, dryRun bool) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	dataDir := fs.String("data", "", "Data directory of the file store (overrides config)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sagre-kalender %s [OPTIONS] <file|->\n\n", name)
		fmt.Fprintf(os.Stderr, "Reads events in the bulk import text format.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one input file")
	}

	text, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	if dryRun {
		_, err := RunImport(text, nil, os.Stdout)
		return err
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	repo := storage.NewRepository(store, log)
	if err := repo.Load(); err != nil {
		return err
	}

	n, err := RunImport(text, repo, os.Stdout)
	if err != nil {
		return err
	}
	log.Info("bulk import completed", zap.Int("count", n), zap.String("data_dir", cfg.DataDir))
	return nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// RunImport parses text and, when repo is non-nil, appends the events to it.
// A summary line per event is written to out. It returns the number of
// parsed events.
func RunImport(text string, repo *storage.Repository, out io.Writer) (int, error) {
	parsed, err := events.ParseBulk(text)
	if err != nil {
		return 0, err
	}
	if len(parsed) == 0 {
		return 0, events.ErrNoEvents
	}

	for _, e := range parsed {
		fmt.Fprintf(out, "%s  %s  %s (%s)\n", e.StartDate, e.Title, e.Location, e.Month)
	}

	if repo == nil {
		fmt.Fprintf(out, "%d eventi validi\n", len(parsed))
		return len(parsed), nil
	}

	if err := repo.Import(parsed); err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "%d eventi importati, totale %d\n", len(parsed), repo.Count())
	return len(parsed), nil
}
