package protocol_test

import (
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/calvinalkan/kvdiff/internal/protocol"
)

func Test_Parse_Returns_Expected_Command_When_Given_Line(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want protocol.Command
	}{
		{"create", "CREATE TABLE BPlusSql", protocol.NewCreate("BPlusSql")},
		{"insert", "INSERT INTO BPlusSql KEY 114514", protocol.NewInsert("BPlusSql", 114514)},
		{"erase", "ERASE FROM BPlusSql KEY 1919810", protocol.NewErase("BPlusSql", 1919810)},
		{"query", "QUERY FROM BPlusSql KEY 31415926", protocol.NewQuery("BPlusSql", 31415926)},
		{"destroy", "DESTROY TABLE BPlusSql", protocol.NewDestroy("BPlusSql")},
		{"lower case create", "create table users", protocol.NewCreate("users")},
		{"mixed case create", "CrEaTe TaBlE MixedTable", protocol.NewCreate("MixedTable")},
		{"digits in name", "CREATE TABLE t123", protocol.NewCreate("t123")},
		{"lower case insert", "insert into users key 42", protocol.NewInsert("users", 42)},
		{"mixed case insert", "Insert INTO People KEY 100", protocol.NewInsert("People", 100)},
		{"mixed case erase", "ERASE from MixedTable key 7", protocol.NewErase("MixedTable", 7)},
		{"mixed case query", "query FROM users KEY 8", protocol.NewQuery("users", 8)},
		{"mixed case destroy", "DESTROY table users", protocol.NewDestroy("users")},
		{"name keeps its case", "create table MiXeD", protocol.NewCreate("MiXeD")},
		{"surrounding whitespace", "  \tQUERY FROM t KEY 3 \r\n", protocol.NewQuery("t", 3)},
		{"tabs between tokens", "INSERT\tINTO\tt\tKEY\t9", protocol.NewInsert("t", 9)},
		{"key before name", "INSERT KEY 5 INTO t", protocol.NewInsert("t", 5)},
		{"no name", "INSERT KEY 5", protocol.NewInsert("", 5)},
		{"negative key", "ERASE FROM t KEY -4", protocol.NewErase("t", -4)},
		{"plus sign key", "QUERY FROM t KEY +4", protocol.NewQuery("t", 4)},
		{"trailing junk ignored", "QUERY FROM t KEY 4 please now", protocol.NewQuery("t", 4)},
		{"leading junk ignored", "QUERY now FROM t KEY 4", protocol.NewQuery("t", 4)},
		{"last name wins", "CREATE TABLE a TABLE b", protocol.NewCreate("b")},
		{"last key wins", "INSERT INTO t KEY 1 KEY 2", protocol.NewInsert("t", 2)},
		{"last into wins", "INSERT INTO a INTO b KEY 1", protocol.NewInsert("b", 1)},
		{"keyword as value still scanned", "INSERT KEY INTO INTO t", protocol.Command{Op: protocol.Insert, Table: "t"}},
		{"from on insert ignored", "INSERT FROM t KEY 1", protocol.NewInsert("", 1)},
		{"into on query ignored", "QUERY INTO t KEY 1", protocol.NewQuery("", 1)},
		{"key on create ignored", "CREATE TABLE t KEY 1", protocol.NewCreate("t")},
		{"table keyword last", "CREATE TABLE", protocol.NewCreate("")},
		{"verb only", "DESTROY", protocol.NewDestroy("")},
		{"key keyword last", "INSERT INTO t KEY", protocol.Command{Op: protocol.Insert, Table: "t"}},
		{"non numeric key", "insert into T key abc", protocol.Command{Op: protocol.Insert, Table: "T"}},
		{"float key", "QUERY FROM t KEY 1.5", protocol.Command{Op: protocol.Query, Table: "t"}},
		{"hex key", "QUERY FROM t KEY 0x10", protocol.Command{Op: protocol.Query, Table: "t"}},
		{"out of range key", "QUERY FROM t KEY 99999999999999999999", protocol.Command{Op: protocol.Query, Table: "t"}},
		{"bad later key clears earlier", "INSERT INTO t KEY 1 KEY x", protocol.Command{Op: protocol.Insert, Table: "t"}},
		{"empty", "", protocol.Command{}},
		{"whitespace only", " \t \r\n", protocol.Command{}},
		{"unknown verb", "UPSERT INTO t KEY 1", protocol.Command{}},
		{"verb must be first", "TABLE CREATE t", protocol.Command{}},
		{"verb prefix is not a verb", "INSERTS INTO t KEY 1", protocol.Command{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := protocol.Parse(tc.line)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tc.line, diff)
			}
		})
	}
}

func Test_Parse_Is_Case_Insensitive_When_Keywords_Change_Case(t *testing.T) {
	t.Parallel()

	lower := protocol.Parse("insert into T key 5")
	upper := protocol.Parse("INSERT INTO T KEY 5")

	assert.Equal(t, upper, lower)
	assert.Equal(t, protocol.NewInsert("T", 5), upper)
}

func Test_Command_String_Renders_Canonical_Line(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  protocol.Command
		want string
	}{
		{protocol.NewCreate("t"), "CREATE TABLE t"},
		{protocol.NewInsert("t", 3), "INSERT INTO t KEY 3"},
		{protocol.NewErase("t", -3), "ERASE FROM t KEY -3"},
		{protocol.NewQuery("t", 0), "QUERY FROM t KEY 0"},
		{protocol.NewDestroy("t"), "DESTROY TABLE t"},
		{protocol.Command{Op: protocol.Query, Table: "t"}, "QUERY FROM t"},
		{protocol.Command{}, ""},
		{protocol.Command{Op: protocol.Op(42)}, ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.cmd.String())
	}
}

func Test_Op_String_Names_Unknown_Ops(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "INVALID", protocol.Invalid.String())
	assert.Equal(t, "DESTROY", protocol.Destroy.String())
	assert.Equal(t, "Op(42)", protocol.Op(42).String())
}

func Test_Op_NameKeyword_Matches_Rendered_Line(t *testing.T) {
	t.Parallel()

	want := map[protocol.Op]string{
		protocol.Invalid: "",
		protocol.Create:  "TABLE",
		protocol.Insert:  "INTO",
		protocol.Erase:   "FROM",
		protocol.Query:   "FROM",
		protocol.Destroy: "TABLE",
	}

	for _, op := range protocol.Ops() {
		assert.Equal(t, want[op], op.NameKeyword(), "op %s", op)
	}
}

var keywords = []string{"table", "into", "from", "key", "create", "insert", "erase", "query", "destroy"}

func tableName() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z_][A-Za-z0-9_]{0,11}`).Filter(func(s string) bool {
		for _, kw := range keywords {
			if strings.EqualFold(s, kw) {
				return false
			}
		}

		return true
	})
}

func keyedCommand() *rapid.Generator[protocol.Command] {
	return rapid.Custom(func(t *rapid.T) protocol.Command {
		op := rapid.SampledFrom(protocol.Ops()[1:]).Draw(t, "op")
		cmd := protocol.Command{Op: op, Table: tableName().Draw(t, "table")}

		if op.HasKey() {
			cmd.Key = rapid.Int().Draw(t, "key")
			cmd.HasKey = true
		}

		return cmd
	})
}

func randomCase(t *rapid.T, s string) string {
	out := []rune(s)
	for i, r := range out {
		if rapid.Bool().Draw(t, "upper") {
			out[i] = unicode.ToUpper(r)
		} else {
			out[i] = unicode.ToLower(r)
		}
	}

	return string(out)
}

func Test_Parse_Inverts_String_When_Name_Is_Plain(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		cmd := keyedCommand().Draw(t, "cmd")

		got := protocol.Parse(cmd.String())
		if diff := cmp.Diff(cmd, got); diff != "" {
			t.Fatalf("round trip of %q mismatch (-want +got):\n%s", cmd.String(), diff)
		}
	})
}

func Test_Parse_Ignores_Keyword_Case_When_Line_Is_Recased(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		cmd := keyedCommand().Draw(t, "cmd")
		tokens := strings.Fields(cmd.String())

		for i, tok := range tokens {
			// Table names are case-sensitive values, leave them alone.
			if tok == cmd.Table {
				continue
			}

			tokens[i] = randomCase(t, tok)
		}

		line := strings.Join(tokens, rapid.SampledFrom([]string{" ", "\t", "   "}).Draw(t, "sep"))

		require.Equal(t, cmd, protocol.Parse(line))
	})
}

func Test_Parse_Leaves_Key_Unset_When_Token_Is_Not_An_Int(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		token := rapid.StringMatching(`[a-z.,_]{1,8}[0-9]*`).Draw(t, "token")
		verb := rapid.SampledFrom([]string{"INSERT INTO", "ERASE FROM", "QUERY FROM"}).Draw(t, "verb")

		cmd := protocol.Parse(verb + " t KEY " + token)

		if cmd.HasKey {
			t.Fatalf("token %q parsed as key %d", token, cmd.Key)
		}

		if cmd.Key != 0 {
			t.Fatalf("unset key carries value %d", cmd.Key)
		}
	})
}

func Test_Parse_Reads_Any_Int_When_Key_Fits(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Int().Draw(t, "key")

		cmd := protocol.Parse("QUERY FROM t KEY " + strconv.Itoa(key))

		require.True(t, cmd.HasKey)
		require.Equal(t, key, cmd.Key)
	})
}
