package consensus

import (
	"testing"

	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// fakeChain is a HeaderTimeSource backed by parallel slices, oldest
// first, with index len-1 as the tip.
type fakeChain struct {
	timestamps []uint64
	bits       []uint32
}

func (f *fakeChain) TipHeight() int64 { return int64(len(f.timestamps) - 1) }

func (f *fakeChain) TimestampAt(heightsAgo int64) uint64 {
	idx := int64(len(f.timestamps)) - 1 - heightsAgo
	return f.timestamps[idx]
}

func (f *fakeChain) BitsAt(heightsAgo int64) uint32 {
	idx := int64(len(f.bits)) - 1 - heightsAgo
	return f.bits[idx]
}

func TestMedianTimePastOddWindow(t *testing.T) {
	chain := &fakeChain{
		timestamps: []uint64{1, 5, 2, 9, 3, 8, 4, 7, 6, 10, 11},
		bits:       make([]uint32, 11),
	}
	// sorted: 1 2 3 4 5 6 7 8 9 10 11 -> median index 5 -> value 6
	got := MedianTimePast(chain)
	if got != 6 {
		t.Fatalf("MedianTimePast = %d, want 6", got)
	}
}

func TestMedianTimePastShortChainUsesAvailableBlocks(t *testing.T) {
	chain := &fakeChain{timestamps: []uint64{10, 20, 30}, bits: make([]uint32, 3)}
	got := MedianTimePast(chain)
	if got != 20 {
		t.Fatalf("MedianTimePast on short chain = %d, want 20", got)
	}
}

func TestCheckBlockTimestampRejectsNotLaterThanMedian(t *testing.T) {
	chain := &fakeChain{timestamps: []uint64{100, 200, 300}, bits: make([]uint32, 3)}
	err := CheckBlockTimestamp(200, chain, 1_000_000)
	if !IsErrorCode(err, ErrTimeTooOld) {
		t.Fatalf("expected ErrTimeTooOld, got %v", err)
	}
}

func TestCheckBlockTimestampRejectsTooFarInFuture(t *testing.T) {
	chain := &fakeChain{timestamps: []uint64{100, 200, 300}, bits: make([]uint32, 3)}
	err := CheckBlockTimestamp(1_000_000+MaxFutureTimeSeconds+1, chain, 1_000_000)
	if !IsErrorCode(err, ErrTimeTooNew) {
		t.Fatalf("expected ErrTimeTooNew, got %v", err)
	}
}

func TestCheckBlockTimestampAcceptsValid(t *testing.T) {
	chain := &fakeChain{timestamps: []uint64{100, 200, 300}, bits: make([]uint32, 3)}
	if err := CheckBlockTimestamp(350, chain, 1_000_000); err != nil {
		t.Fatalf("expected valid timestamp to pass, got %v", err)
	}
}

func TestRequiredDifficultyNoRetargetKeepsPreviousBits(t *testing.T) {
	params := netparams.RegtestParams
	chain := &fakeChain{
		timestamps: []uint64{1, 2, 3},
		bits:       []uint32{params.PowLimitBits, params.PowLimitBits, params.PowLimitBits},
	}
	got := RequiredDifficulty(chain, params)
	if got != params.PowLimitBits {
		t.Fatalf("expected unchanged bits mid-interval, got %#x", got)
	}
}
