// Package protocol parses and renders the line-oriented table command protocol.
//
// Each line carries one command:
//
//	CREATE TABLE <name>
//	INSERT INTO <name> KEY <int>
//	ERASE FROM <name> KEY <int>
//	QUERY FROM <name> KEY <int>
//	DESTROY TABLE <name>
//
// Verbs and keywords are case-insensitive. Parsing is permissive: unknown
// verbs yield [Invalid], unknown tokens are skipped and an unreadable key
// leaves [Command.HasKey] false. [Parse] never fails.
package protocol

import (
	"strconv"
	"strings"
)

// Op is the operation kind of a [Command].
type Op uint8

// Operation kinds. The zero value is Invalid.
const (
	Invalid Op = iota
	Create
	Insert
	Erase
	Query
	Destroy
)

var opNames = [...]string{
	Invalid: "INVALID",
	Create:  "CREATE",
	Insert:  "INSERT",
	Erase:   "ERASE",
	Query:   "QUERY",
	Destroy: "DESTROY",
}

// Ops lists every operation kind in declaration order.
func Ops() []Op {
	return []Op{Invalid, Create, Insert, Erase, Query, Destroy}
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}

	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// HasKey reports whether commands of this kind carry a key.
func (o Op) HasKey() bool {
	return o == Insert || o == Erase || o == Query
}

// Keywords.
const (
	kwTable = "TABLE"
	kwInto  = "INTO"
	kwFrom  = "FROM"
	kwKey   = "KEY"
)

// NameKeyword returns the upper-case keyword that precedes the table name in
// commands of this kind, or "" for Invalid.
func (o Op) NameKeyword() string {
	switch o {
	case Create, Destroy:
		return kwTable
	case Insert:
		return kwInto
	case Erase, Query:
		return kwFrom
	default:
		return ""
	}
}

// Command is one parsed protocol line.
type Command struct {
	Op    Op
	Table string

	// Key is meaningful only when HasKey is true.
	Key    int
	HasKey bool
}

// Parse turns one protocol line into a Command.
//
// For Create/Destroy the token after "table" names the table. Insert reads
// "into" and "key", Erase and Query read "from" and "key". Keywords may
// appear in any order and any case; a keyword that is the last token is
// ignored and a repeated keyword overwrites the earlier value.
func Parse(line string) Command {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}
	}

	var cmd Command

	switch strings.ToLower(tokens[0]) {
	case "create":
		cmd.Op = Create
	case "destroy":
		cmd.Op = Destroy
	case "insert":
		cmd.Op = Insert
	case "erase":
		cmd.Op = Erase
	case "query":
		cmd.Op = Query
	default:
		return Command{}
	}

	nameToken := strings.ToLower(cmd.Op.NameKeyword())
	keyToken := strings.ToLower(kwKey)
	wantKey := cmd.Op.HasKey()

	// Every token is examined as a possible keyword, including one that was
	// just read as a value: "insert key into into t" names table "t".
	for i := 1; i+1 < len(tokens); i++ {
		switch word := strings.ToLower(tokens[i]); {
		case word == nameToken:
			cmd.Table = tokens[i+1]
		case wantKey && word == keyToken:
			cmd.Key, cmd.HasKey = parseKey(tokens[i+1])
		}
	}

	return cmd
}

// parseKey reads a base-10 integer that fits in int. Anything else,
// including out-of-range numbers, reports false.
func parseKey(token string) (int, bool) {
	key, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}

	return key, true
}

// String renders the canonical protocol line for c. Invalid commands render
// as the empty string; a keyed command without a key omits the KEY clause.
func (c Command) String() string {
	kw := c.Op.NameKeyword()
	if kw == "" {
		return ""
	}

	var b strings.Builder

	b.WriteString(c.Op.String())
	b.WriteByte(' ')
	b.WriteString(kw)
	b.WriteByte(' ')
	b.WriteString(c.Table)

	if c.Op.HasKey() && c.HasKey {
		b.WriteString(" KEY ")
		b.WriteString(strconv.Itoa(c.Key))
	}

	return b.String()
}

// NewCreate returns a Create command for table.
func NewCreate(table string) Command { return Command{Op: Create, Table: table} }

// NewDestroy returns a Destroy command for table.
func NewDestroy(table string) Command { return Command{Op: Destroy, Table: table} }

// NewInsert returns an Insert command for key in table.
func NewInsert(table string, key int) Command {
	return Command{Op: Insert, Table: table, Key: key, HasKey: true}
}

// NewErase returns an Erase command for key in table.
func NewErase(table string, key int) Command {
	return Command{Op: Erase, Table: table, Key: key, HasKey: true}
}

// NewQuery returns a Query command for key in table.
func NewQuery(table string, key int) Command {
	return Command{Op: Query, Table: table, Key: key, HasKey: true}
}
