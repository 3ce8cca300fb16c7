package testutil

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/kvdiff/internal/oracle"
	"github.com/calvinalkan/kvdiff/internal/protocol"
	"github.com/calvinalkan/kvdiff/internal/testutil/presence"
)

// RunConfig configures a behavior test run.
type RunConfig struct {
	// MaxOps is the maximum number of lines to evaluate.
	MaxOps int

	// CompareStateEveryN compares full table contents every N lines.
	// Zero compares only at the end.
	CompareStateEveryN int

	// SingleTable runs both sides in single-table mode.
	SingleTable bool
}

// DefaultRunConfig returns a balanced configuration for behavior tests.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		MaxOps:             200,
		CompareStateEveryN: 10,
	}
}

// RunBehavior feeds generated lines to the oracle and the intended commands
// to the presence model, failing on the first disagreement.
func RunBehavior(tb testing.TB, cfg RunConfig, gen *OpGenerator) {
	tb.Helper()

	if cfg.MaxOps <= 0 {
		tb.Fatalf("RunBehavior requires MaxOps > 0")
	}

	orc := oracle.New(oracle.Options{SingleTable: cfg.SingleTable})

	model := presence.New()
	if cfg.SingleTable {
		model = presence.NewSingleTable()
	}

	history := make([]string, 0, cfg.MaxOps)

	for opIndex := 1; opIndex <= cfg.MaxOps && gen.HasMore(); opIndex++ {
		op := gen.NextOp()
		history = append(history, op.Line)

		if got := protocol.Parse(op.Line); got != op.Want {
			tb.Fatalf("parse mismatch (-want +got):\n%s\n%s", cmp.Diff(op.Want, got), FormatHistory(history))
		}

		realAnswer := orc.Eval(op.Line)
		modelAnswer := applyModel(model, op.Want)

		if realAnswer != modelAnswer {
			tb.Fatalf("answer mismatch: oracle=%q model=%q\n%s", realAnswer, modelAnswer, FormatHistory(history))
		}

		if cfg.CompareStateEveryN > 0 && opIndex%cfg.CompareStateEveryN == 0 {
			if err := CompareState(orc, model); err != nil {
				tb.Fatalf("%v\n%s", err, FormatHistory(history))
			}
		}
	}

	if err := CompareState(orc, model); err != nil {
		tb.Fatalf("%v\n%s", err, FormatHistory(history))
	}
}

// RunBehaviorWithSeed runs a behavior test over seed with the default
// generator config.
func RunBehaviorWithSeed(tb testing.TB, seed []byte, cfg RunConfig) {
	tb.Helper()

	genCfg := DefaultOpGenConfig()
	RunBehavior(tb, cfg, NewOpGenerator(seed, &genCfg))
}

// ModelAnswers returns the answer lines the model predicts for ops, one per
// answered query, in order.
func ModelAnswers(ops []Op, singleTable bool) []string {
	model := presence.New()
	if singleTable {
		model = presence.NewSingleTable()
	}

	var out []string

	for _, op := range ops {
		if answer := applyModel(model, op.Want); answer != "" {
			out = append(out, answer)
		}
	}

	return out
}

// applyModel returns the answer line the model predicts, "" when no answer.
func applyModel(model *presence.Model, cmd protocol.Command) string {
	switch cmd.Op {
	case protocol.Create:
		model.Create(cmd.Table)
	case protocol.Destroy:
		model.Destroy(cmd.Table)
	case protocol.Insert:
		if cmd.HasKey {
			model.Insert(cmd.Table, cmd.Key)
		}
	case protocol.Erase:
		if cmd.HasKey {
			model.Erase(cmd.Table, cmd.Key)
		}
	case protocol.Query:
		if !cmd.HasKey {
			return ""
		}

		if model.Query(cmd.Table, cmd.Key) {
			return oracle.AnswerPresent
		}

		return oracle.AnswerAbsent
	case protocol.Invalid:
	}

	return ""
}

// CompareState checks that both sides hold the same present keys. Tables the
// model knows but the oracle never materialized must be empty.
func CompareState(orc *oracle.Oracle, model *presence.Model) error {
	names := slices.Concat(orc.Tables(), model.Tables())
	slices.Sort(names)
	names = slices.Compact(names)

	for _, name := range names {
		oracleKeys := orc.Keys(name)
		modelKeys := model.Keys(name)

		if len(oracleKeys) == 0 && len(modelKeys) == 0 {
			continue
		}

		if diff := cmp.Diff(modelKeys, oracleKeys); diff != "" {
			return fmt.Errorf("table %q keys mismatch (-model +oracle):\n%s", name, diff)
		}
	}

	return nil
}

// FormatHistory renders evaluated lines for failure messages, keeping the
// last 30.
func FormatHistory(lines []string) string {
	const keep = 30

	start := max(len(lines)-keep, 0)

	var b strings.Builder

	fmt.Fprintf(&b, "history (%d lines, showing last %d):\n", len(lines), len(lines)-start)

	for i := start; i < len(lines); i++ {
		fmt.Fprintf(&b, "  %4d  %q\n", i+1, lines[i])
	}

	return b.String()
}
