// Command barcoder stamps a sequential barcode on every page of a PDF.
//
// Run without flags in a terminal it asks for the input file, the category
// and the start number. With -in and -category it runs unattended.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dgallion1/barcoder/internal/config"
	"github.com/dgallion1/barcoder/internal/identity"
	"github.com/dgallion1/barcoder/internal/pipeline"
	"github.com/dgallion1/barcoder/internal/state"
	"golang.org/x/term"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("barcoder", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("in", "", "input PDF")
	outPath := fs.String("out", "", "output PDF (default: barcoded_<name> next to the input)")
	category := fs.Int("category", 0, "category 1-4")
	start := fs.Int("start", -1, "first sequence number (default: continue after the last barcode)")
	statePath := fs.String("state", "", "state file (overrides STATE_FILE)")
	verbose := fs.Bool("v", false, "log every stamped page")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	if *statePath != "" {
		cfg.StateBackend = config.BackendFile
		cfg.StateFile = *statePath
	}

	level := slog.LevelWarn
	if *verbose || cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 2
	}

	interactive := term.IsTerminal(int(stdin.Fd()))
	if !interactive && (*inPath == "" || *category == 0) {
		fmt.Fprintln(stderr, "barcoder: -in and -category are required when stdin is not a terminal")
		fs.PrintDefaults()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, closeStore, err := state.Open(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "state: %v\n", err)
		return 2
	}
	defer closeStore()

	runner, err := pipeline.NewDefaultRunner(cfg, store, log)
	if err != nil {
		fmt.Fprintf(stderr, "setup: %v\n", err)
		return 1
	}

	s := &session{in: bufio.NewReader(stdin), out: stdout}
	fmt.Fprintln(stdout, "=== Barcode Stamper ===")
	fmt.Fprintln(stdout)

	last := state.LoadOrEmpty(ctx, store, log)
	if last != "" {
		fmt.Fprintf(stdout, "Last used barcode: %s\n", last)
	} else {
		fmt.Fprintln(stdout, "No previous barcode used.")
	}

	// Input file.
	path := cleanPath(*inPath)
	if path == "" || !fileExists(path) {
		if !interactive {
			fmt.Fprintf(stderr, "input file not found: %s\n", path)
			return 1
		}
		if path, err = s.askPath(fileExists); err != nil {
			return 1
		}
	}

	// Category.
	cat := *category
	if cat == 0 {
		if cat, err = s.askCategory(); err != nil {
			return 1
		}
	} else if cat < 1 || cat > 4 {
		fmt.Fprintf(stderr, "category must be between 1 and 4, got %d\n", cat)
		return 2
	}
	base, err := identity.BaseID(time.Now(), cat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	// Start number.
	suggested := identity.SuggestStart(last, base)
	first := *start
	if first < 0 {
		first = suggested
		if interactive && *inPath == "" {
			fmt.Fprintf(stdout, "Starting from: %03d\n", suggested)
			if first, err = s.askStart(suggested); err != nil {
				return 1
			}
		}
	}

	dest := *outPath
	if dest == "" {
		dest = pipeline.OutputPath(path)
	}

	src, err := pipeline.ReadSource(path)
	if err != nil {
		printFailure(stdout, err, dest)
		return 1
	}
	res, err := runner.Run(ctx, pipeline.Request{
		Source:      src,
		BaseID:      base,
		StartNumber: first,
		Output:      pipeline.FileOutput{Path: dest},
	})
	if err != nil {
		printFailure(stdout, err, dest)
		return 1
	}

	fmt.Fprintf(stdout, "\nBarcodes added to all pages of: %s\n", dest)
	fmt.Fprintf(stdout, "Last barcode used: %s\n", res.LastIdentity)
	if res.StateWarning != nil {
		fmt.Fprintf(stdout, "Warning: %v\nThe next run will not know where this one stopped.\n", res.StateWarning)
	}
	return 0
}

// printFailure reports a failed run with the checks most likely to fix it.
func printFailure(w io.Writer, err error, dest string) {
	fmt.Fprintf(w, "\nERROR: %v\n", err)
	fmt.Fprintln(w, "Ensure:")

	var se *pipeline.StepError
	switch {
	case errors.Is(err, pipeline.ErrMissingInput):
		fmt.Fprintln(w, "- the input path is correct")
	case errors.Is(err, identity.ErrSequenceOverflow):
		fmt.Fprintf(w, "- the start number leaves room for every page (sequence numbers stop at %d)\n", identity.MaxSequence)
	case errors.As(err, &se) && se.Step == pipeline.StepWrite:
		fmt.Fprintf(w, "- you have permission to write to %s\n", filepath.Dir(dest))
	case errors.As(err, &se) && (se.Step == pipeline.StepRead || se.Step == pipeline.StepLayout):
		fmt.Fprintln(w, "- the PDF isn't password protected or damaged")
	default:
		fmt.Fprintln(w, "- the PDF isn't password protected")
		fmt.Fprintf(w, "- you have permission to write to %s\n", filepath.Dir(dest))
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
