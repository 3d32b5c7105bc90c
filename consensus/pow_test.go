package consensus

import (
	"math/big"
	"testing"

	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

func TestCompactToBigRoundTrip(t *testing.T) {
	for _, bits := range []uint32{0x1d00ffff, 0x1e0fffff, 0x207fffff, 0x1c7fffff} {
		target := CompactToBig(bits)
		back := BigToCompact(target)
		if back != bits {
			t.Errorf("round trip mismatch: bits=%#x -> target=%s -> %#x", bits, target.String(), back)
		}
	}
}

func TestHashToBigUsesBigEndianByteOrderDirectly(t *testing.T) {
	buf := make([]byte, 64)
	buf[0] = 0x01 // most significant byte
	buf[63] = 0xff
	got := HashToBig(buf)
	want := new(big.Int).SetBytes(buf)
	if got.Cmp(want) != 0 {
		t.Fatalf("HashToBig reordered bytes: got %s, want %s", got, want)
	}
}

func TestCumulativeWorkIncreasesWithHarderTargets(t *testing.T) {
	easy := BlockProof(netparams.RegtestParams.PowLimitBits)
	hard := BlockProof(netparams.MainnetParams.PowLimitBits)
	if hard.Cmp(easy) <= 0 {
		t.Fatal("a harder (lower) target must yield strictly more work than an easier one")
	}
}

func TestCumulativeWorkSumsIndividualContributions(t *testing.T) {
	bitsList := []uint32{netparams.RegtestParams.PowLimitBits, netparams.RegtestParams.PowLimitBits}
	total := CumulativeWork(bitsList)
	want := new(big.Int).Mul(BlockProof(bitsList[0]), big.NewInt(2))
	if total.Cmp(want) != 0 {
		t.Fatalf("cumulative work mismatch: got %s want %s", total, want)
	}
}
