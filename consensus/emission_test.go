package consensus

import "testing"

func TestBlockSubsidyBoundaries(t *testing.T) {
	cases := []struct {
		height uint64
		want   uint64
	}{
		{0, GenesisReward},
		{DecayEndHeight, TailReward},
		{DecayEndHeight + 1, TailReward},
		{10_000_000, TailReward},
	}
	for _, c := range cases {
		got := BlockSubsidy(c.height)
		if got != c.want {
			t.Errorf("BlockSubsidy(%d) = %d, want %d", c.height, got, c.want)
		}
	}
}

func TestBlockSubsidyMonotonicDecrease(t *testing.T) {
	prev := BlockSubsidy(0)
	for h := uint64(1); h <= DecayEndHeight; h += 52559 {
		cur := BlockSubsidy(h)
		if cur > prev {
			t.Fatalf("subsidy increased at height %d: %d > %d", h, cur, prev)
		}
		prev = cur
	}
}

// TestBlockSubsidyJustBeforeDecayEndIsFloored checks the literal
// reward(h) = max(TailReward, GenesisReward*(1-h/DecayEndHeight))
// formula: at h = DecayEndHeight-1, GenesisReward*(1-h/DecayEndHeight)
// is already below TailReward, so the floor applies and the subsidy is
// exactly TailReward, not some value still decaying toward it.
func TestBlockSubsidyJustBeforeDecayEndIsFloored(t *testing.T) {
	got := BlockSubsidy(DecayEndHeight - 1)
	if got != TailReward {
		t.Fatalf("BlockSubsidy(DecayEndHeight-1) = %d, want %d (tail reward)", got, TailReward)
	}
}

// TestBlockSubsidyFloorsBeforeDecayEndHeight confirms the flat tail
// begins strictly before DecayEndHeight: the decay's multiplicative
// formula crosses below TailReward around h ~= 1,241,958, well short of
// DecayEndHeight = 1,261,440.
func TestBlockSubsidyFloorsBeforeDecayEndHeight(t *testing.T) {
	const floorStartsBy = 1_241_959
	if BlockSubsidy(floorStartsBy) != TailReward {
		t.Fatalf("BlockSubsidy(%d) = %d, want %d (tail reward)", floorStartsBy, BlockSubsidy(floorStartsBy), TailReward)
	}
	if BlockSubsidy(floorStartsBy-1000) <= TailReward {
		t.Fatalf("subsidy well before the floor boundary should still exceed tail reward")
	}
}

func TestBlockSubsidyNeverBelowTail(t *testing.T) {
	for _, h := range []uint64{0, 1, DecayEndHeight - 1, DecayEndHeight, DecayEndHeight + 1, 10_000_000} {
		if BlockSubsidy(h) < TailReward {
			t.Fatalf("subsidy at height %d fell below tail reward", h)
		}
	}
}
