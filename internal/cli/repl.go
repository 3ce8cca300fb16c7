package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/kvdiff/internal/config"
	"github.com/calvinalkan/kvdiff/internal/oracle"
	"github.com/calvinalkan/kvdiff/internal/protocol"
)

const (
	replPrompt      = "kvdiff> "
	historyFileName = ".kvdiff_history"
)

// ReplCmd returns the repl command.
func ReplCmd(cfg *config.Config, env environment) *Command {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.Bool("single-table", cfg.SingleTable, "Ignore table names and share one presence model")

	return &Command{
		Flags: fs,
		Usage: "repl [flags]",
		Short: "Evaluate commands interactively",
		Long: `Evaluate commands interactively.

Type protocol commands (CREATE, INSERT, ERASE, QUERY, DESTROY) to update the
presence model. QUERY prints 1 or 0. Type "help" for session commands.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			singleTable, _ := fs.GetBool("single-table")

			sess := newSession(oracle.New(oracle.Options{SingleTable: singleTable}), o.Out())

			if f, ok := env.stdin.(*os.File); ok && f == os.Stdin && isTerminal(f) {
				return sess.runLiner(ctx, historyPath(env.env))
			}

			return sess.runLines(ctx, env.stdin)
		},
	}
}

// session evaluates REPL input against one oracle.
type session struct {
	orc *oracle.Oracle
	out io.Writer
}

func newSession(orc *oracle.Oracle, out io.Writer) *session {
	return &session{orc: orc, out: out}
}

// handle evaluates one input line. It returns false when the session should
// end.
func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case "exit", "quit", "q":
		return false
	case "help", "?":
		s.printHelp()
	case "tables":
		s.cmdTables()
	case "keys":
		s.cmdKeys(fields[1:])
	case "reset":
		s.orc.Reset()
		s.println("all tables dropped")
	default:
		s.eval(line)
	}

	return true
}

func (s *session) eval(line string) {
	if reason := oracle.Malformed(line); reason != "" {
		s.println("ignored:", strings.ReplaceAll(reason, "_", " "))

		return
	}

	if answer := s.orc.Eval(line); answer != "" {
		s.println(answer)
	}
}

func (s *session) cmdTables() {
	tables := s.orc.Tables()
	if len(tables) == 0 {
		s.println("(no tables)")

		return
	}

	for _, name := range tables {
		label := name

		switch {
		case s.orc.SingleTable():
			label = "(single table)"
		case name == "":
			label = "(unnamed)"
		}

		s.println(label, len(s.orc.Keys(name)))
	}
}

func (s *session) cmdKeys(args []string) {
	table := ""
	if len(args) > 0 {
		table = args[0]
	}

	keys := s.orc.Keys(table)
	if len(keys) == 0 {
		s.println("(empty)")

		return
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.Itoa(k)
	}

	s.println(strings.Join(parts, " "))
}

func (s *session) printHelp() {
	s.println("Protocol commands:")
	s.println("  CREATE TABLE <name>")
	s.println("  INSERT INTO <name> KEY <int>")
	s.println("  ERASE FROM <name> KEY <int>")
	s.println("  QUERY FROM <name> KEY <int>      prints 1 (present) or 0 (absent)")
	s.println("  DESTROY TABLE <name>")
	s.println()
	s.println("Session commands:")
	s.println("  tables                           List tables and key counts")
	s.println("  keys [table]                     List present keys in order")
	s.println("  reset                            Drop every table")
	s.println("  help                             Show this help")
	s.println("  exit / quit / q                  Exit")
}

func (s *session) println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

// runLines evaluates input without line editing, for piped stdin.
func (s *session) runLines(ctx context.Context, r io.Reader) error {
	if r == nil {
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !s.handle(scanner.Text()) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

// runLiner runs the interactive loop with history and completion.
func (s *session) runLiner(ctx context.Context, history string) error {
	state := liner.NewLiner()
	defer state.Close()

	state.SetCtrlCAborts(true)
	state.SetCompleter(complete)

	if history != "" {
		if f, err := os.Open(history); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	s.println("kvdiff repl. Type 'help' for commands.")

	var loopErr error

	for ctx.Err() == nil {
		line, err := state.Prompt(replPrompt)
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				loopErr = fmt.Errorf("reading input: %w", err)
			}

			break
		}

		if strings.TrimSpace(line) != "" {
			state.AppendHistory(line)
		}

		if !s.handle(line) {
			break
		}
	}

	if history != "" {
		var buf bytes.Buffer

		_, err := state.WriteHistory(&buf)
		if err == nil {
			_ = atomic.WriteFile(history, &buf)
		}
	}

	return loopErr
}

// historyPath returns "" when no home directory is known.
func historyPath(env map[string]string) string {
	home := env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, historyFileName)
}

var sessionWords = []string{"tables", "keys", "reset", "help", "exit", "quit"}

// complete completes the verb, then the keyword expected after it.
func complete(line string) []string {
	fields := strings.Fields(line)
	trailingSpace := strings.HasSuffix(line, " ")

	if len(fields) == 0 || (len(fields) == 1 && !trailingSpace) {
		prefix := ""
		if len(fields) == 1 {
			prefix = strings.ToLower(fields[0])
		}

		var out []string

		for _, op := range protocol.Ops() {
			if op == protocol.Invalid {
				continue
			}

			if verb := op.String(); strings.HasPrefix(strings.ToLower(verb), prefix) {
				out = append(out, verb+" ")
			}
		}

		for _, w := range sessionWords {
			if strings.HasPrefix(w, prefix) {
				out = append(out, w)
			}
		}

		return out
	}

	if len(fields) == 1 && trailingSpace {
		if kw := protocol.Parse(fields[0]).Op.NameKeyword(); kw != "" {
			return []string{line + kw + " "}
		}
	}

	return nil
}
