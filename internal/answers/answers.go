// Package answers compares the oracle's predicted answers with the answers
// produced by the system under test.
package answers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrBadAnswer is returned for a line that is not a presence answer.
var ErrBadAnswer = errors.New("not a presence answer")

// DefaultMaxReport is the number of mismatches kept in a [Report].
const DefaultMaxReport = 20

// Mismatch is one query answered differently.
type Mismatch struct {
	Query    int // 1-based index among answers
	Expected bool
	Actual   bool
}

func (m Mismatch) String() string {
	return fmt.Sprintf("query #%d: expected %s, got %s", m.Query, word(m.Expected), word(m.Actual))
}

// Report is the outcome of [Compare].
type Report struct {
	Compared   int
	Mismatched int
	Mismatches []Mismatch // first maxReport mismatches

	// ExtraExpected counts answers only the expected stream has; ExtraActual
	// counts answers only the actual stream has.
	ExtraExpected int
	ExtraActual   int
}

// OK reports whether the two streams agree completely.
func (r Report) OK() bool {
	return r.Mismatched == 0 && r.ExtraExpected == 0 && r.ExtraActual == 0
}

// Compare reads both answer streams to the end. Blank lines are skipped.
// maxReport <= 0 means DefaultMaxReport.
func Compare(expected, actual io.Reader, maxReport int) (Report, error) {
	if maxReport <= 0 {
		maxReport = DefaultMaxReport
	}

	exp := newReader("expected", expected)
	act := newReader("actual", actual)

	var report Report

	for {
		want, wantOK, err := exp.next()
		if err != nil {
			return report, err
		}

		got, gotOK, err := act.next()
		if err != nil {
			return report, err
		}

		switch {
		case !wantOK && !gotOK:
			return report, nil
		case !gotOK:
			report.ExtraExpected++

			continue
		case !wantOK:
			report.ExtraActual++

			continue
		}

		report.Compared++

		if want != got {
			report.Mismatched++

			if len(report.Mismatches) < maxReport {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Query:    report.Compared,
					Expected: want,
					Actual:   got,
				})
			}
		}
	}
}

// ParseAnswer reads one answer token: 1/0, true/false or yes/no in any case.
func ParseAnswer(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrBadAnswer, s)
	}
}

type reader struct {
	name    string
	scanner *bufio.Scanner
	line    int
	done    bool
}

func newReader(name string, r io.Reader) *reader {
	return &reader{name: name, scanner: bufio.NewScanner(r)}
}

// next returns the next answer; ok is false at end of stream.
func (r *reader) next() (answer bool, ok bool, err error) {
	for !r.done && r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		answer, err := ParseAnswer(text)
		if err != nil {
			return false, false, fmt.Errorf("%s line %d: %w", r.name, r.line, err)
		}

		return answer, true, nil
	}

	r.done = true

	if err := r.scanner.Err(); err != nil {
		return false, false, fmt.Errorf("reading %s answers: %w", r.name, err)
	}

	return false, false, nil
}

func word(present bool) string {
	if present {
		return "present (1)"
	}

	return "absent (0)"
}
