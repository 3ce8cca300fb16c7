package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvinalkan/kvdiff/internal/oracle"
)

func Test_Repl_Evaluates_Piped_Lines_When_Invoked(t *testing.T) {
	t.Parallel()

	c := NewCLI(t)
	input := strings.Join([]string{
		"insert into users key 3",
		"INSERT INTO users KEY 1",
		"query from users key 3",
		"query from users",
		"bogus",
		"keys users",
		"tables",
		"quit",
		"query from users key 1",
	}, "\n")

	stdout, stderr, code := c.RunWithInput(input, "repl")

	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "1\nignored: missing key\nignored: unknown verb\n1 3\nusers 2\n", stdout)
}

func Test_Session_Handles_Session_Commands(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	s := newSession(oracle.New(oracle.Options{SingleTable: true}), &out)

	assert.True(t, s.handle("tables"))
	assert.True(t, s.handle("INSERT INTO a KEY 2"))
	assert.True(t, s.handle("QUERY FROM b KEY 2"))
	assert.True(t, s.handle("tables"))
	assert.True(t, s.handle("keys"))
	assert.True(t, s.handle("reset"))
	assert.True(t, s.handle("keys"))
	assert.True(t, s.handle("   "))
	assert.False(t, s.handle("EXIT"))

	assert.Equal(t, "(no tables)\n1\n(single table) 1\n2\nall tables dropped\n(empty)\n", out.String())
}

func Test_Session_Counts_Keys_Per_Table_When_Scoped(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	s := newSession(oracle.New(oracle.Options{}), &out)

	assert.True(t, s.handle("INSERT KEY 5"))
	assert.True(t, s.handle("INSERT KEY 6"))
	assert.True(t, s.handle("INSERT INTO b KEY 1"))
	assert.True(t, s.handle("tables"))

	assert.Equal(t, "(unnamed) 2\nb 1\n", out.String())
}

func Test_Session_Prints_Help(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	s := newSession(oracle.New(oracle.Options{}), &out)
	s.handle("help")

	AssertContains(t, out.String(), "QUERY FROM <name> KEY <int>")
	AssertContains(t, out.String(), "keys [table]")
}

func Test_RunLines_Stops_When_Context_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer

	s := newSession(oracle.New(oracle.Options{}), &out)
	err := s.runLines(ctx, strings.NewReader("INSERT INTO t KEY 1\n"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func Test_Complete_Suggests_Verbs_And_Keywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want []string
	}{
		{"", []string{"CREATE ", "INSERT ", "ERASE ", "QUERY ", "DESTROY ", "tables", "keys", "reset", "help", "exit", "quit"}},
		{"in", []string{"INSERT "}},
		{"E", []string{"ERASE ", "exit"}},
		{"q", []string{"QUERY ", "quit"}},
		{"query ", []string{"query FROM "}},
		{"create ", []string{"create TABLE "}},
		{"bogus ", nil},
		{"insert into t", nil},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, complete(tc.line), "line %q", tc.line)
	}
}

func Test_HistoryPath_Uses_Home(t *testing.T) {
	t.Parallel()

	assert.Empty(t, historyPath(map[string]string{}))
	assert.Equal(t, "/home/u/.kvdiff_history", historyPath(map[string]string{"HOME": "/home/u"}))
}
