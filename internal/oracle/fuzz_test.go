package oracle_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/calvinalkan/kvdiff/internal/oracle"
	"github.com/calvinalkan/kvdiff/internal/protocol"
	"github.com/calvinalkan/kvdiff/internal/testutil"
	"github.com/calvinalkan/kvdiff/internal/testutil/presence"
)

// FuzzOracle_Matches_Model_When_Random_Lines_Applied derives protocol lines
// from fuzz bytes and compares the oracle against the presence model.
func FuzzOracle_Matches_Model_When_Random_Lines_Applied(f *testing.F) {
	for _, seed := range testutil.CuratedSeeds() {
		f.Add(seed.Data)
	}

	f.Add([]byte{0x00, 0x01, 0x02})
	f.Add([]byte("kvdiff-ops"))

	f.Fuzz(func(t *testing.T, fuzzBytes []byte) {
		cfg := testutil.DefaultRunConfig()
		if testing.Short() {
			cfg.MaxOps = 50
		}

		testutil.RunBehaviorWithSeed(t, fuzzBytes, cfg)

		cfg.SingleTable = true
		testutil.RunBehaviorWithSeed(t, fuzzBytes, cfg)
	})
}

func Test_Oracle_Matches_Model_When_Curated_Seeds_Applied(t *testing.T) {
	t.Parallel()

	for _, seed := range testutil.CuratedSeeds() {
		t.Run(seed.Name, func(t *testing.T) {
			t.Parallel()

			testutil.RunBehaviorWithSeed(t, seed.Data, testutil.DefaultRunConfig())
		})
	}
}

// Test_Oracle_Matches_Model_When_Commands_Are_Random checks the presence
// invariant directly: a key is present iff its latest insert/erase was an
// insert.
func Test_Oracle_Matches_Model_When_Commands_Are_Random(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		o := oracle.New(oracle.Options{})
		model := presence.New()

		n := rapid.IntRange(1, 300).Draw(t, "n")
		for range n {
			table := rapid.SampledFrom([]string{"a", "b"}).Draw(t, "table")
			key := rapid.IntRange(-3, 12).Draw(t, "key")

			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				o.Apply(protocol.NewInsert(table, key))
				model.Insert(table, key)
			case 1:
				o.Apply(protocol.NewErase(table, key))
				model.Erase(table, key)
			case 2:
				o.Apply(protocol.NewDestroy(table))
				model.Destroy(table)
			case 3:
				o.Apply(protocol.NewCreate(table))
				model.Create(table)
			default:
				present, answered := o.Apply(protocol.NewQuery(table, key))
				if !answered {
					t.Fatalf("query %s/%d not answered", table, key)
				}

				if want := model.Query(table, key); present != want {
					t.Fatalf("query %s/%d = %v, model says %v", table, key, present, want)
				}
			}
		}

		if err := testutil.CompareState(o, model); err != nil {
			t.Fatal(err)
		}
	})
}
