// Package workload generates random command streams for the system under test.
//
// A workload is CREATE TABLE, then Ops commands each drawn uniformly from
// INSERT, ERASE and QUERY with a key uniform in [1, MaxKey], then
// DESTROY TABLE. The stream depends only on the [Config], so a seed
// reproduces a failing run exactly.
package workload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/calvinalkan/kvdiff/internal/protocol"
)

// Defaults match the workloads the checker was first used with.
const (
	DefaultOps    = 100_000
	DefaultMaxKey = 100_000
	DefaultTable  = "test_db"
	DefaultSeed   = 42
)

// Errors returned by [Config.Validate].
var (
	ErrNegativeOps  = errors.New("ops must not be negative")
	ErrMaxKeyRange  = errors.New("max key must be at least 1")
	ErrTableEmpty   = errors.New("table name cannot be empty")
	ErrTableInvalid = errors.New("table name must be a single token that is not a protocol keyword")
)

// Config describes one workload.
type Config struct {
	Ops    int
	MaxKey int
	Table  string
	Seed   uint64
}

// DefaultConfig returns the default workload.
func DefaultConfig() Config {
	return Config{
		Ops:    DefaultOps,
		MaxKey: DefaultMaxKey,
		Table:  DefaultTable,
		Seed:   DefaultSeed,
	}
}

var reserved = []string{"table", "into", "from", "key"}

// Validate reports the first problem with cfg.
func (cfg Config) Validate() error {
	if cfg.Ops < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeOps, cfg.Ops)
	}

	if cfg.MaxKey < 1 {
		return fmt.Errorf("%w: %d", ErrMaxKeyRange, cfg.MaxKey)
	}

	if cfg.Table == "" {
		return ErrTableEmpty
	}

	if strings.ContainsFunc(cfg.Table, unicode.IsSpace) {
		return fmt.Errorf("%w: %q", ErrTableInvalid, cfg.Table)
	}

	for _, kw := range reserved {
		if strings.EqualFold(cfg.Table, kw) {
			return fmt.Errorf("%w: %q", ErrTableInvalid, cfg.Table)
		}
	}

	return nil
}

var keyedOps = [...]protocol.Op{protocol.Insert, protocol.Erase, protocol.Query}

// Commands returns the workload as a lazy sequence. Each call to the
// returned sequence restarts from the seed. The caller must validate cfg.
func Commands(cfg Config) iter.Seq[protocol.Command] {
	return func(yield func(protocol.Command) bool) {
		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

		if !yield(protocol.NewCreate(cfg.Table)) {
			return
		}

		for range cfg.Ops {
			op := keyedOps[rng.IntN(len(keyedOps))]
			key := 1 + rng.IntN(cfg.MaxKey)

			cmd := protocol.Command{Op: op, Table: cfg.Table, Key: key, HasKey: true}
			if !yield(cmd) {
				return
			}
		}

		yield(protocol.NewDestroy(cfg.Table))
	}
}

// Write validates cfg and streams the workload to w, one command per line.
// It returns the number of lines written.
func Write(ctx context.Context, w io.Writer, cfg Config) (int, error) {
	err := cfg.Validate()
	if err != nil {
		return 0, err
	}

	out := bufio.NewWriterSize(w, 64*1024)
	lines := 0

	for cmd := range Commands(cfg) {
		if err := ctx.Err(); err != nil {
			_ = out.Flush()

			return lines, err
		}

		_, err = out.WriteString(cmd.String() + "\n")
		if err != nil {
			return lines, fmt.Errorf("writing workload: %w", err)
		}

		lines++
	}

	err = out.Flush()
	if err != nil {
		return lines, fmt.Errorf("writing workload: %w", err)
	}

	return lines, nil
}
