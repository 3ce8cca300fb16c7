// Package oracle predicts the answer to every QUERY in a command stream with
// a brute-force presence model.
//
// Each table is an ordered set of present keys. INSERT adds a key, ERASE removes
// it and QUERY reports membership. Nothing else influences an answer.
//
// By default every table name gets its own set. CREATE registers a table and
// DESTROY drops it together with its keys; commands against a table that was
// never created use an empty table. With [Options.SingleTable] table names are
// ignored and CREATE/DESTROY do nothing, so one key space is shared by every
// table.
package oracle

import (
	"slices"

	"github.com/tidwall/btree"

	"github.com/calvinalkan/kvdiff/internal/metrics"
	"github.com/calvinalkan/kvdiff/internal/protocol"
)

// DefaultMaxIssues bounds the issues kept by [Oracle.Run] in strict mode.
const DefaultMaxIssues = 100

// Options configures an Oracle.
type Options struct {
	// SingleTable makes all commands share one presence model.
	SingleTable bool

	// Strict records malformed lines in [Stats.Issues]. Malformed lines are
	// skipped either way.
	Strict bool

	// MaxIssues caps Stats.Issues. Zero means DefaultMaxIssues.
	MaxIssues int

	// Metrics is optional.
	Metrics *metrics.Recorder
}

// Oracle owns the presence model. It is not safe for concurrent use.
type Oracle struct {
	opts   Options
	tables map[string]*btree.Set[int]
}

// New returns an Oracle with every key absent.
func New(opts Options) *Oracle {
	if opts.MaxIssues <= 0 {
		opts.MaxIssues = DefaultMaxIssues
	}

	return &Oracle{
		opts:   opts,
		tables: make(map[string]*btree.Set[int]),
	}
}

// Apply evaluates one command. answered is true only for a QUERY carrying a
// key; present is then the predicted answer.
//
// Keyed commands without a key are no-ops.
func (o *Oracle) Apply(cmd protocol.Command) (present bool, answered bool) {
	o.opts.Metrics.Command(cmd.Op)

	name := o.scope(cmd.Table)

	switch cmd.Op {
	case protocol.Create:
		if !o.opts.SingleTable {
			o.table(name)
		}
	case protocol.Destroy:
		if !o.opts.SingleTable {
			delete(o.tables, name)
			o.opts.Metrics.Tables(len(o.tables))
		}
	case protocol.Insert:
		if cmd.HasKey {
			o.table(name).Insert(cmd.Key)
		}
	case protocol.Erase:
		if set, ok := o.tables[name]; ok && cmd.HasKey {
			set.Delete(cmd.Key)
		}
	case protocol.Query:
		if !cmd.HasKey {
			return false, false
		}

		present = o.Present(name, cmd.Key)
		o.opts.Metrics.Answer(present)

		return present, true
	case protocol.Invalid:
	}

	return false, false
}

// SingleTable reports whether table names are ignored.
func (o *Oracle) SingleTable() bool {
	return o.opts.SingleTable
}

// Present reports whether key is present in table.
func (o *Oracle) Present(table string, key int) bool {
	set, ok := o.tables[o.scope(table)]

	return ok && set.Contains(key)
}

// Tables returns the names of all live tables in sorted order.
func (o *Oracle) Tables() []string {
	names := make([]string, 0, len(o.tables))
	for name := range o.tables {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Keys returns the present keys of table in ascending order.
func (o *Oracle) Keys(table string) []int {
	set, ok := o.tables[o.scope(table)]
	if !ok {
		return nil
	}

	keys := make([]int, 0, set.Len())
	set.Scan(func(key int) bool {
		keys = append(keys, key)

		return true
	})

	return keys
}

// Reset forgets every table.
func (o *Oracle) Reset() {
	clear(o.tables)
	o.opts.Metrics.Tables(0)
}

func (o *Oracle) scope(table string) string {
	if o.opts.SingleTable {
		return ""
	}

	return table
}

// table returns the set for name, creating it on first use.
func (o *Oracle) table(name string) *btree.Set[int] {
	set, ok := o.tables[name]
	if !ok {
		set = new(btree.Set[int])
		o.tables[name] = set
		o.opts.Metrics.Tables(len(o.tables))
	}

	return set
}
