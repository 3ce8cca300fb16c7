package testutil

import "fmt"

// Seed bundles a human-readable name with seed bytes.
type Seed struct {
	Name string
	Data []byte
}

// CuratedSeeds returns hand-built seeds for scenarios random bytes take a
// while to find. They assume DefaultOpGenConfig.
func CuratedSeeds() []Seed {
	return []Seed{
		{Name: "insert_erase_query", Data: SeedInsertEraseQuery()},
		{Name: "last_write_wins", Data: SeedLastWriteWins()},
		{Name: "destroy_recreate", Data: SeedDestroyRecreate()},
		{Name: "malformed_keys", Data: SeedMalformedKeys()},
	}
}

// SeedInsertEraseQuery inserts, queries, erases and queries again.
func SeedInsertEraseQuery() []byte {
	return NewSeedBuilder(DefaultOpGenConfig()).
		Create(0).
		Insert(0, 3).
		Query(0, 3).
		Erase(0, 3).
		Query(0, 3).
		Query(0, 9).
		Destroy(0).
		Bytes()
}

// SeedLastWriteWins toggles one key repeatedly across two tables.
func SeedLastWriteWins() []byte {
	return NewSeedBuilder(DefaultOpGenConfig()).
		Insert(0, 5).
		Insert(0, 5).
		Query(0, 5).
		Erase(0, 5).
		Erase(0, 5).
		Query(0, 5).
		Insert(1, 5).
		Query(0, 5).
		Query(1, 5).
		Bytes()
}

// SeedDestroyRecreate checks that destroy drops keys and create keeps them.
func SeedDestroyRecreate() []byte {
	return NewSeedBuilder(DefaultOpGenConfig()).
		Create(2).
		Insert(2, 1).
		Create(2).
		Query(2, 1).
		Destroy(2).
		Query(2, 1).
		Insert(2, 1).
		Query(2, 1).
		Bytes()
}

// SeedMalformedKeys mixes unreadable keys into a valid stream.
func SeedMalformedKeys() []byte {
	return NewSeedBuilder(DefaultOpGenConfig()).
		Insert(0, 7).
		BadKey().
		UnknownVerb().
		BadKey().
		Query(0, 7).
		Bytes()
}

// SeedBuilder encodes bytes that OpGenerator decodes back into the requested
// commands, without noise.
type SeedBuilder struct {
	cfg  OpGenConfig
	data []byte
}

// NewSeedBuilder creates a builder for generators using cfg.
func NewSeedBuilder(cfg OpGenConfig) *SeedBuilder {
	if cfg.MalformedRate >= 100 || cfg.NoiseRate >= 100 {
		panic("seed builder: malformed and noise rates must leave room for clean ops")
	}

	return &SeedBuilder{cfg: cfg}
}

// Bytes returns a copy of the built seed.
func (b *SeedBuilder) Bytes() []byte {
	return append([]byte(nil), b.data...)
}

// Create appends CREATE TABLE t<table>.
func (b *SeedBuilder) Create(table int) *SeedBuilder {
	return b.clean(0, table, 0)
}

// Destroy appends DESTROY TABLE t<table>.
func (b *SeedBuilder) Destroy(table int) *SeedBuilder {
	return b.clean(b.cfg.CreateRate, table, 0)
}

// Insert appends INSERT INTO t<table> KEY key.
func (b *SeedBuilder) Insert(table, key int) *SeedBuilder {
	return b.clean(b.cfg.CreateRate+b.cfg.DestroyRate, table, key)
}

// Erase appends ERASE FROM t<table> KEY key.
func (b *SeedBuilder) Erase(table, key int) *SeedBuilder {
	return b.clean(b.cfg.CreateRate+b.cfg.DestroyRate+b.cfg.InsertRate, table, key)
}

// Query appends QUERY FROM t<table> KEY key.
func (b *SeedBuilder) Query(table, key int) *SeedBuilder {
	return b.clean(b.cfg.CreateRate+b.cfg.DestroyRate+b.cfg.InsertRate+b.cfg.EraseRate, table, key)
}

// BadKey appends a QUERY on t0 whose key token is "abc".
func (b *SeedBuilder) BadKey() *SeedBuilder {
	b.data = append(b.data, 0, 1) // malformed, keyed branch
	b.command(b.cfg.CreateRate+b.cfg.DestroyRate+b.cfg.InsertRate+b.cfg.EraseRate, 0, 1)
	b.data = append(b.data, byte(indexOf(badKeys, "abc")))

	return b
}

// UnknownVerb appends "UPSERT INTO t0 KEY 1".
func (b *SeedBuilder) UnknownVerb() *SeedBuilder {
	b.data = append(b.data, 0, 0, byte(indexOf(unknownVerbs, "UPSERT")), 0)
	b.appendKey(1)

	return b
}

func (b *SeedBuilder) clean(choice, table, key int) *SeedBuilder {
	b.data = append(b.data, 99) // not malformed
	b.command(choice, table, key)
	b.data = append(b.data, 99) // no noise

	return b
}

func (b *SeedBuilder) command(choice, table, key int) {
	if table < 0 || table >= max(b.cfg.Tables, 1) {
		panic(fmt.Sprintf("seed builder: table %d out of range", table))
	}

	b.data = append(b.data, byte(choice), byte(table))

	if choice >= b.cfg.CreateRate+b.cfg.DestroyRate {
		b.appendKey(key)
	}
}

// appendKey encodes key so that NextKey decodes it.
func (b *SeedBuilder) appendKey(key int) {
	if key < 1 || key > b.cfg.MaxKey || key > 1<<16 {
		panic(fmt.Sprintf("seed builder: key %d out of range", key))
	}

	raw := key - 1
	b.data = append(b.data, byte(raw), byte(raw>>8))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}

	panic(fmt.Sprintf("seed builder: unknown value %q", s))
}
