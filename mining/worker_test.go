package mining

import (
	"math/big"
	"testing"
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// TestCPUSolverFindsNonceUnderEasyTarget uses the loosest possible
// target (the maximum 512-bit value) so the very first nonce tried
// satisfies hash2(header) <= target, verifying Search reports a hit
// instead of exhausting the range.
func TestCPUSolverFindsNonceUnderEasyTarget(t *testing.T) {
	header := domain.BlockHeader{Version: 1, Timestamp: uint64(time.Now().Unix()), Bits: 0x207fffff}
	target := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 512), big.NewInt(1))

	solver := &CPUSolver{}
	nonce, ok := solver.Search(header, target, 0, 16, nil)
	if !ok {
		t.Fatal("expected a hit against the maximum target")
	}
	if nonce != 0 {
		t.Fatalf("nonce = %d, want 0 (first nonce tried should already satisfy the target)", nonce)
	}
	if solver.HashesDone == 0 {
		t.Fatal("HashesDone should be incremented by Search")
	}
}

// TestCPUSolverExhaustsImpossibleTarget uses a target of zero, which no
// real hash can satisfy, so Search must run out the full nonce range
// and report no hit rather than loop forever.
func TestCPUSolverExhaustsImpossibleTarget(t *testing.T) {
	header := domain.BlockHeader{Version: 1, Bits: 0x207fffff}
	target := big.NewInt(0)

	solver := &CPUSolver{}
	_, ok := solver.Search(header, target, 0, 64, nil)
	if ok {
		t.Fatal("a zero target should never be satisfiable")
	}
	if solver.HashesDone != 64 {
		t.Fatalf("HashesDone = %d, want 64", solver.HashesDone)
	}
}

// TestCPUSolverRespectsCancel verifies Search returns promptly once the
// cancel channel closes, rather than running the full nonceCount.
func TestCPUSolverRespectsCancel(t *testing.T) {
	header := domain.BlockHeader{Version: 1, Bits: 0x207fffff}
	target := big.NewInt(0)

	cancel := make(chan struct{})
	close(cancel)

	solver := &CPUSolver{}
	_, ok := solver.Search(header, target, 0, 1<<20, cancel)
	if ok {
		t.Fatal("an already-cancelled search should never report a hit")
	}
	if solver.HashesDone != 0 {
		t.Fatalf("HashesDone = %d, want 0 (cancellation checked before the first hash)", solver.HashesDone)
	}
}

func TestTemplateBoxSetGet(t *testing.T) {
	var box templateBox
	if box.get() != nil {
		t.Fatal("a fresh templateBox should hold nothing")
	}

	tpl := &Template{Height: 7}
	box.set(tpl)
	if got := box.get(); got != tpl {
		t.Fatalf("get() = %v, want the stored template", got)
	}

	tpl2 := &Template{Height: 8}
	box.set(tpl2)
	if got := box.get(); got != tpl2 {
		t.Fatal("set should replace the previously stored template")
	}
}
