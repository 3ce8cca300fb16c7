package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/kvdiff/internal/config"
	"github.com/calvinalkan/kvdiff/internal/metrics"
	"github.com/calvinalkan/kvdiff/internal/oracle"
)

var errStdinTerminal = errors.New(`refusing to read commands from a terminal (pipe a command stream, pass a file, or use "kvdiff repl")`)

// OracleCmd returns the oracle command.
func OracleCmd(cfg *config.Config, env environment) *Command {
	fs := flag.NewFlagSet("oracle", flag.ContinueOnError)
	fs.Bool("single-table", cfg.SingleTable, "Ignore table names and share one presence model")
	fs.Bool("strict", cfg.Strict, "Report malformed commands as warnings (exit 1)")
	fs.StringP("output", "o", "", "Write answers to file instead of stdout")
	fs.String("metrics-file", "", "Write prometheus text-format counters to file")

	return &Command{
		Flags: fs,
		Usage: "oracle [flags] [input]",
		Short: "Predict query answers for a command stream",
		Long: `Predict query answers for a command stream.

Reads commands from input (or stdin when input is omitted or "-") and writes
1 (present) or 0 (absent) for every QUERY, one per line, in input order.
Malformed commands are skipped.`,
		Examples: []string{
			"oracle workload.txt > expected.txt",
			"oracle --strict --metrics-file oracle.prom -o expected.txt workload.txt",
		},
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execOracle(ctx, o, fs, env, args)
		},
	}
}

func execOracle(ctx context.Context, o *IO, fs *flag.FlagSet, env environment, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: %v", errUnexpectedArgs, args[1:])
	}

	singleTable, _ := fs.GetBool("single-table")
	strict, _ := fs.GetBool("strict")
	output, _ := fs.GetString("output")
	metricsFile, _ := fs.GetString("metrics-file")

	input, closeInput, err := openInput(env, args)
	if err != nil {
		return err
	}
	defer closeInput()

	opts := oracle.Options{SingleTable: singleTable, Strict: strict}
	if metricsFile != "" {
		opts.Metrics = metrics.NewRecorder()
	}

	orc := oracle.New(opts)

	var stats oracle.Stats

	if output == "" {
		stats, err = orc.Run(ctx, input, o.Out())
	} else {
		err = writeFileAtomic(env.path(output), func(w io.Writer) error {
			var runErr error

			stats, runErr = orc.Run(ctx, input, w)

			return runErr
		})
		if err != nil {
			err = fmt.Errorf("writing %s: %w", output, err)
		}
	}

	if err != nil {
		return err
	}

	if metricsFile != "" {
		err = opts.Metrics.WriteFile(env.path(metricsFile))
		if err != nil {
			return err
		}
	}

	if strict {
		warnIssues(o, stats)
	}

	return nil
}

func warnIssues(o *IO, stats oracle.Stats) {
	for _, issue := range stats.Issues {
		o.Warn(issue.String(), "command skipped")
	}

	if hidden := stats.Malformed - len(stats.Issues); hidden > 0 {
		o.Warn(fmt.Sprintf("%d more malformed lines", hidden), "commands skipped")
	}
}

// openInput opens the single positional input argument, falling back to
// stdin for no argument or "-".
func openInput(env environment, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		if env.stdin == nil {
			return bytes.NewReader(nil), func() {}, nil
		}

		if len(args) == 0 && isTerminal(env.stdin) {
			return nil, nil, errStdinTerminal
		}

		return env.stdin, func() {}, nil
	}

	f, err := os.Open(env.path(args[0]))
	if err != nil {
		return nil, nil, fmt.Errorf("opening input: %w", err)
	}

	return f, func() { _ = f.Close() }, nil
}
