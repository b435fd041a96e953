// Command texreplay runs a texture usage trace and prints the barriers it
// records.
//
// Usage:
//
//	texreplay --trace frame.yaml [--dump state.cbor] [--workers N] [--verbose]
//
// The exit status is 1 when an expectation in the trace fails and 2 when the
// trace cannot be read or run.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/gogpu/texstate"
	"github.com/gogpu/texstate/internal/codec"
	"github.com/gogpu/texstate/internal/replay"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		tracePath string
		dumpPath  string
		workers   int
		verbose   bool
	)

	flagSet := pflag.NewFlagSet("texreplay", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&tracePath, "trace", "", "trace file (.yaml, .yml, .json or .jsonc)")
	flagSet.StringVar(&dumpPath, "dump", "", "write the final scope snapshots as CBOR to this file")
	flagSet.IntVar(&workers, "workers", 0, "merge workers per scope (0 merges serially)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log debug records to stderr")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if tracePath == "" {
		fmt.Fprintln(stderr, "texreplay: --trace is required")
		flagSet.PrintDefaults()
		return exitUsage
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		fmt.Fprintf(stderr, "texreplay: unexpected argument: %s\n", rest[0])
		return exitUsage
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	texstate.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer texstate.SetLogger(nil)

	trace, err := replay.ReadFile(tracePath)
	if err != nil {
		fmt.Fprintf(stderr, "texreplay: %v\n", err)
		return exitUsage
	}

	report, err := replay.Run(ctx, trace, texstate.WithWorkers(workers))
	if err != nil {
		fmt.Fprintf(stderr, "texreplay: %v\n", err)
		return exitUsage
	}

	printReport(stdout, report)

	if dumpPath != "" {
		if err := dump(dumpPath, report.Scopes); err != nil {
			fmt.Fprintf(stderr, "texreplay: %v\n", err)
			return exitUsage
		}
	}

	if !report.OK() {
		return exitFailed
	}
	return exitOK
}

func printReport(w io.Writer, report *replay.Report) {
	fmt.Fprintf(w, "trace %s\n", report.Name)
	for _, s := range report.Steps {
		fmt.Fprintf(w, "%3d %-6s %s", s.Index, s.Step.Op, s.Step.Scope)
		if s.Step.From != "" {
			fmt.Fprintf(w, " <- %s (%s)", s.Step.From, s.Step.Stitch)
		}
		fmt.Fprintln(w)

		for _, p := range s.Transitions {
			fmt.Fprintf(w, "      barrier %s\n", p)
		}
		switch {
		case s.Conflict != nil:
			fmt.Fprintf(w, "      conflict: %v\n", s.Conflict)
		case s.Failure != "":
			fmt.Fprintf(w, "      FAIL %s\n", s.Failure)
		case s.Step.Op == replay.OpQuery && s.Determinate:
			fmt.Fprintf(w, "      usage %s\n", s.Usage)
		case s.Step.Op == replay.OpQuery:
			fmt.Fprintln(w, "      usage indeterminate")
		}
	}
	fmt.Fprintf(w, "%d barriers, %d conflicts, %d failed expectations\n",
		report.Transitions(), report.Conflicts, report.Failures)
}

// dump writes the snapshots as a CBOR sequence.
func dump(path string, scopes []texstate.TrackerSnapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dump: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing dump: %w", cerr)
		}
	}()

	for _, snap := range scopes {
		if err := codec.EncodeSnapshot(f, snap); err != nil {
			return err
		}
	}
	return nil
}
