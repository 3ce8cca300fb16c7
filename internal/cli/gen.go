package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/kvdiff/internal/config"
	"github.com/calvinalkan/kvdiff/internal/workload"
)

var errUnexpectedArgs = errors.New("unexpected arguments")

// GenCmd returns the gen command.
func GenCmd(cfg *config.Config, env environment) *Command {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.IntP("ops", "n", cfg.Ops, "Number of insert/erase/query commands")
	fs.IntP("max-key", "k", cfg.MaxKey, "Keys are drawn from [1, max-key]")
	fs.StringP("table", "t", cfg.Table, "Table name")
	fs.Uint64P("seed", "s", cfg.Seed, "Random seed")
	fs.StringP("output", "o", "", "Write to file instead of stdout")

	return &Command{
		Flags: fs,
		Usage: "gen [flags]",
		Short: "Generate a random command workload",
		Long: `Generate a random command workload.

The stream starts with CREATE TABLE, continues with --ops commands drawn
uniformly from INSERT, ERASE and QUERY with keys in [1, --max-key], and ends
with DESTROY TABLE. The same seed always produces the same stream.`,
		Examples: []string{
			"gen -n 1000 -s 42 -o workload.txt",
			"gen -n 100000 -k 100000 | ./table-under-test > actual.txt",
		},
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execGen(ctx, o, fs, cfg.Workload(), env, args)
		},
	}
}

func execGen(ctx context.Context, o *IO, fs *flag.FlagSet, wcfg workload.Config, env environment, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: %v", errUnexpectedArgs, args)
	}

	wcfg.Ops, _ = fs.GetInt("ops")
	wcfg.MaxKey, _ = fs.GetInt("max-key")
	wcfg.Table, _ = fs.GetString("table")
	wcfg.Seed, _ = fs.GetUint64("seed")
	output, _ := fs.GetString("output")

	if output == "" {
		_, err := workload.Write(ctx, o.Out(), wcfg)

		return err
	}

	err := writeFileAtomic(env.path(output), func(w io.Writer) error {
		_, err := workload.Write(ctx, w, wcfg)

		return err
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	return nil
}
