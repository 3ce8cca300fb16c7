package testutil

import (
	"strconv"
	"strings"

	"github.com/calvinalkan/kvdiff/internal/protocol"
)

// OpGenConfig configures the fuzz command generator. Rates are percentages.
type OpGenConfig struct {
	// Operation mix; whatever remains after these goes to QUERY.
	CreateRate  int
	DestroyRate int
	InsertRate  int
	EraseRate   int

	// Tables is the number of distinct table names to draw from.
	Tables int

	// MaxKey bounds generated keys to [1, MaxKey].
	MaxKey int

	// MalformedRate is the percentage of lines that are deliberately broken:
	// unknown verbs, missing keys or unreadable key tokens.
	MalformedRate int

	// NoiseRate is the percentage of well-formed lines that get cosmetic
	// changes: random keyword case, reordered clauses, extra whitespace and
	// trailing junk tokens.
	NoiseRate int
}

// DefaultOpGenConfig returns a mix that keeps tables small enough for
// queries to hit present keys often.
func DefaultOpGenConfig() OpGenConfig {
	return OpGenConfig{
		CreateRate:    5,
		DestroyRate:   3,
		InsertRate:    35,
		EraseRate:     20,
		Tables:        3,
		MaxKey:        32,
		MalformedRate: 10,
		NoiseRate:     40,
	}
}

// Op is one generated line plus the command it is meant to express.
//
// Want is the command a correct parser produces for Line. For malformed
// lines Want.Op is Invalid or Want.HasKey is false.
type Op struct {
	Line string
	Want protocol.Command
}

// OpGenerator derives protocol lines from a byte stream.
type OpGenerator struct {
	stream *ByteStream
	config OpGenConfig
}

// NewOpGenerator creates a generator over fuzzBytes.
func NewOpGenerator(fuzzBytes []byte, cfg *OpGenConfig) *OpGenerator {
	return &OpGenerator{
		stream: NewByteStream(fuzzBytes),
		config: *cfg,
	}
}

// HasMore reports whether more input bytes remain.
func (g *OpGenerator) HasMore() bool {
	return g.stream.HasMore()
}

// NextOp generates the next line.
func (g *OpGenerator) NextOp() Op {
	if g.stream.NextPercent(g.config.MalformedRate) {
		return g.genMalformed()
	}

	cmd := g.genCommand()

	if g.stream.NextPercent(g.config.NoiseRate) {
		return Op{Line: g.noisy(cmd), Want: cmd}
	}

	return Op{Line: cmd.String(), Want: cmd}
}

func (g *OpGenerator) genCommand() protocol.Command {
	choice := g.stream.NextInt(100)
	table := g.genTable()

	cumulative := g.config.CreateRate
	if choice < cumulative {
		return protocol.NewCreate(table)
	}

	cumulative += g.config.DestroyRate
	if choice < cumulative {
		return protocol.NewDestroy(table)
	}

	key := g.stream.NextKey(g.config.MaxKey)

	cumulative += g.config.InsertRate
	if choice < cumulative {
		return protocol.NewInsert(table, key)
	}

	cumulative += g.config.EraseRate
	if choice < cumulative {
		return protocol.NewErase(table, key)
	}

	return protocol.NewQuery(table, key)
}

func (g *OpGenerator) genTable() string {
	tables := max(g.config.Tables, 1)

	return "t" + strconv.Itoa(g.stream.NextInt(tables))
}

var unknownVerbs = []string{"UPSERT", "SELECT", "DELETE", "INSERTS", "QUERYY", "TABLE", "KEY", "42"}

var badKeys = []string{"", "abc", "1.5", "0x10", "1e3", "99999999999999999999", "--1", "½"}

func (g *OpGenerator) genMalformed() Op {
	switch g.stream.NextInt(3) {
	case 0:
		verb := unknownVerbs[g.stream.NextInt(len(unknownVerbs))]
		line := verb + " INTO " + g.genTable() + " KEY " + strconv.Itoa(g.stream.NextKey(g.config.MaxKey))

		return Op{Line: line, Want: protocol.Command{}}
	default:
		cmd := g.genCommand()
		if !cmd.Op.HasKey() {
			return Op{Line: cmd.String(), Want: cmd}
		}

		cmd.Key, cmd.HasKey = 0, false
		bad := badKeys[g.stream.NextInt(len(badKeys))]

		line := strings.TrimSpace(cmd.String() + " KEY " + bad)

		return Op{Line: line, Want: cmd}
	}
}

// noisy renders cmd with cosmetic variations that must not change how it
// parses. Table names keep their case because they are values.
func (g *OpGenerator) noisy(cmd protocol.Command) string {
	var clauses [][]string

	verb := strings.ToLower(cmd.Op.String())

	switch cmd.Op {
	case protocol.Create, protocol.Destroy:
		clauses = append(clauses, []string{g.recase("table"), cmd.Table})
	case protocol.Insert:
		clauses = append(clauses, []string{g.recase("into"), cmd.Table})
	default:
		clauses = append(clauses, []string{g.recase("from"), cmd.Table})
	}

	if cmd.Op.HasKey() {
		key := []string{g.recase("key"), strconv.Itoa(cmd.Key)}
		if g.stream.NextBool() {
			clauses = append([][]string{key}, clauses...)
		} else {
			clauses = append(clauses, key)
		}
	}

	tokens := []string{g.recase(verb)}
	for _, clause := range clauses {
		tokens = append(tokens, clause...)
	}

	if g.stream.NextBool() {
		tokens = append(tokens, g.stream.NextWord(6))
	}

	separators := []string{" ", "  ", "\t", " \t "}

	var b strings.Builder
	if g.stream.NextBool() {
		b.WriteString(" ")
	}

	for i, tok := range tokens {
		if i > 0 {
			b.WriteString(separators[g.stream.NextInt(len(separators))])
		}

		b.WriteString(tok)
	}

	if g.stream.NextBool() {
		b.WriteString("\t")
	}

	return b.String()
}

func (g *OpGenerator) recase(word string) string {
	switch g.stream.NextInt(3) {
	case 0:
		return strings.ToUpper(word)
	case 1:
		return word
	default:
		out := []byte(word)
		for i := range out {
			if g.stream.NextBool() {
				out[i] = strings.ToUpper(string(out[i]))[0]
			}
		}

		return string(out)
	}
}
