package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/kvdiff/internal/answers"
)

var (
	errDiffArgs       = errors.New("expected exactly two answer files")
	errBothStdin      = errors.New("only one answer stream can be read from stdin")
	errAnswersDiffer  = errors.New("answers differ")
	errNegativeReport = errors.New("--max-report must not be negative")
)

// DiffCmd returns the diff command.
func DiffCmd(env environment) *Command {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.Int("max-report", answers.DefaultMaxReport, "Maximum number of mismatches listed")

	return &Command{
		Flags: fs,
		Usage: "diff [flags] <expected> <actual>",
		Short: "Compare predicted answers with actual answers",
		Long: `Compare predicted answers with actual answers.

Both files hold one answer per line (1/0, true/false or yes/no). Either file
may be "-" for stdin. Exits 0 when the streams agree and 1 otherwise.`,
		Examples: []string{
			"diff expected.txt actual.txt",
			"diff --max-report 0 expected.txt - < actual.txt",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			maxReport, _ := fs.GetInt("max-report")

			return execDiff(o, env, maxReport, args)
		},
	}
}

func execDiff(o *IO, env environment, maxReport int, args []string) error {
	if len(args) != 2 {
		return errDiffArgs
	}

	if args[0] == "-" && args[1] == "-" {
		return errBothStdin
	}

	if maxReport < 0 {
		return errNegativeReport
	}

	readers := make([]io.Reader, 0, len(args))

	for _, arg := range args {
		r, closeFn, err := openInput(env, []string{arg})
		if err != nil {
			return err
		}
		defer closeFn()

		readers = append(readers, r)
	}

	report, err := answers.Compare(readers[0], readers[1], maxReport)
	if err != nil {
		return err
	}

	// --max-report 0 prints only the summary.
	if maxReport > 0 {
		for _, m := range report.Mismatches {
			o.Println(m.String())
		}
	}

	if report.ExtraExpected > 0 {
		o.Printf("%d answers missing from %s\n", report.ExtraExpected, args[1])
	}

	if report.ExtraActual > 0 {
		o.Printf("%d unexpected answers in %s\n", report.ExtraActual, args[1])
	}

	if !report.OK() {
		return fmt.Errorf("%w: %d of %d compared answers mismatched", errAnswersDiffer, report.Mismatched, report.Compared)
	}

	o.Printf("%d answers agree\n", report.Compared)

	return nil
}
