package protocol_test

import (
	"testing"

	"github.com/calvinalkan/kvdiff/internal/protocol"
)

func FuzzParse_Returns_Consistent_Command_When_Given_Arbitrary_Line(f *testing.F) {
	f.Add("")
	f.Add("CREATE TABLE t")
	f.Add("insert into t key 5")
	f.Add("ERASE FROM t KEY -1")
	f.Add("QUERY FROM t KEY 99999999999999999999")
	f.Add("DESTROY TABLE")
	f.Add("insert key into into t")
	f.Add("query from key key key 3")
	f.Add("\x00\xff KEY 1")
	f.Add("INSERT INTO t KEY 1")

	f.Fuzz(func(t *testing.T, line string) {
		cmd := protocol.Parse(line)

		if cmd.Op == protocol.Invalid && cmd != (protocol.Command{}) {
			t.Fatalf("Parse(%q): invalid command carries fields: %+v", line, cmd)
		}

		if !cmd.HasKey && cmd.Key != 0 {
			t.Fatalf("Parse(%q): unset key carries value %d", line, cmd.Key)
		}

		if cmd.HasKey && !cmd.Op.HasKey() {
			t.Fatalf("Parse(%q): %s must not carry a key", line, cmd.Op)
		}

		if again := protocol.Parse(line); again != cmd {
			t.Fatalf("Parse(%q) not deterministic: %+v vs %+v", line, cmd, again)
		}

		// Rendering a parsed command must produce a line of the same kind.
		if rendered := protocol.Parse(cmd.String()); rendered.Op != cmd.Op {
			t.Fatalf("Parse(%q).String() = %q re-parses as %s, want %s", line, cmd.String(), rendered.Op, cmd.Op)
		}
	})
}
