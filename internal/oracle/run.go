package oracle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/calvinalkan/kvdiff/internal/metrics"
	"github.com/calvinalkan/kvdiff/internal/protocol"
)

// Answer lines written for each QUERY.
const (
	AnswerPresent = "1"
	AnswerAbsent  = "0"
)

// Issue describes one malformed line seen in strict mode.
type Issue struct {
	Line   int    // 1-based line number
	Text   string // the line without its terminator
	Reason string // metrics.ReasonUnknownVerb or metrics.ReasonMissingKey
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s: %q", i.Line, strings.ReplaceAll(i.Reason, "_", " "), i.Text)
}

// Stats summarizes one [Oracle.Run].
type Stats struct {
	Lines     int
	Commands  map[protocol.Op]int
	Queries   int // answered queries
	Present   int // answered queries that predicted present
	Malformed int

	// Issues holds the first MaxIssues malformed lines when Strict is set.
	Issues []Issue
}

// Run evaluates the command stream read from r and writes one answer line per
// answered QUERY to w. End of input ends the run normally.
//
// Lines may be arbitrarily long. Only read/write failures and cancellation of
// ctx produce an error; the Stats gathered so far are returned either way.
func (o *Oracle) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	stats := Stats{Commands: make(map[protocol.Op]int)}

	in := bufio.NewReaderSize(r, 64*1024)
	out := bufio.NewWriterSize(w, 64*1024)

	for {
		if err := ctx.Err(); err != nil {
			_ = out.Flush()

			return stats, err
		}

		line, readErr := in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			_ = out.Flush()

			return stats, fmt.Errorf("reading commands: %w", readErr)
		}

		if line != "" {
			stats.Lines++

			err := o.evalLine(&stats, line, out)
			if err != nil {
				return stats, fmt.Errorf("writing answers: %w", err)
			}
		}

		if readErr != nil {
			break
		}
	}

	err := out.Flush()
	if err != nil {
		return stats, fmt.Errorf("writing answers: %w", err)
	}

	return stats, nil
}

// Eval parses and applies a single line, returning the answer line for a
// QUERY and "" otherwise.
func (o *Oracle) Eval(line string) string {
	present, answered := o.Apply(protocol.Parse(line))
	if !answered {
		return ""
	}

	return answerLine(present)
}

func (o *Oracle) evalLine(stats *Stats, line string, out *bufio.Writer) error {
	cmd := protocol.Parse(line)
	stats.Commands[cmd.Op]++

	if reason := malformedReason(cmd, line); reason != "" {
		stats.Malformed++
		o.opts.Metrics.Malformed(reason)

		if o.opts.Strict && len(stats.Issues) < o.opts.MaxIssues {
			stats.Issues = append(stats.Issues, Issue{
				Line:   stats.Lines,
				Text:   strings.TrimRight(line, "\r\n"),
				Reason: reason,
			})
		}
	}

	present, answered := o.Apply(cmd)
	if !answered {
		return nil
	}

	stats.Queries++
	if present {
		stats.Present++
	}

	_, err := out.WriteString(answerLine(present) + "\n")

	return err
}

// Malformed returns the reason line would be skipped as malformed, or "" for
// a well-formed or blank line.
func Malformed(line string) string {
	return malformedReason(protocol.Parse(line), line)
}

// malformedReason classifies lines the oracle skips. Blank lines are not
// malformed.
func malformedReason(cmd protocol.Command, line string) string {
	switch {
	case cmd.Op == protocol.Invalid && strings.TrimSpace(line) != "":
		return metrics.ReasonUnknownVerb
	case cmd.Op.HasKey() && !cmd.HasKey:
		return metrics.ReasonMissingKey
	default:
		return ""
	}
}

func answerLine(present bool) string {
	if present {
		return AnswerPresent
	}

	return AnswerAbsent
}
