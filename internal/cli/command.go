package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one kvdiff subcommand. Help text for both "kvdiff --help" and
// "kvdiff <cmd> --help" is derived from its fields.
type Command struct {
	// Flags are parsed before Exec; positional arguments are passed through.
	Flags *flag.FlagSet

	// Usage starts with the command name, e.g. "diff [flags] <expected> <actual>".
	Usage string

	// Short is the one-line summary in the command listing.
	Short string

	// Long is shown by "kvdiff <cmd> --help". Short is used when empty.
	Long string

	// Examples are full command lines shown under "Examples:".
	Examples []string

	// Exec runs the command. A returned error is printed and exits 1.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the command's row in the listing, with Usage padded to
// width.
func (c *Command) HelpLine(width int) string {
	return fmt.Sprintf("  %-*s  %s", width, c.Usage, c.Short)
}

// PrintHelp writes "kvdiff <cmd> --help" output to w.
func (c *Command) PrintHelp(w io.Writer) {
	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	fprintln(w, "Usage: kvdiff", c.Usage)
	fprintln(w)
	fprintln(w, desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		fprintln(w)
		fprintln(w, "Flags:")
		_, _ = io.WriteString(w, c.Flags.FlagUsages())
	}

	if len(c.Examples) > 0 {
		fprintln(w)
		fprintln(w, "Examples:")

		for _, ex := range c.Examples {
			fprintln(w, "  kvdiff", ex)
		}
	}
}

// Run parses flags and executes the command. Returns exit code.
//
// Usage errors print the command help to stderr so stdout stays clean for
// piped answer streams.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(io.Discard)

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o.Out())

			return 0
		}

		o.ErrPrintln("error:", c.Name()+":", err)
		o.ErrPrintln()
		c.PrintHelp(o.errOut)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}

// usageWidth is the widest Usage among commands.
func usageWidth(commands []*Command) int {
	width := 0
	for _, c := range commands {
		width = max(width, len(c.Usage))
	}

	return width
}
