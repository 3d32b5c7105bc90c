package utxo

import (
	"testing"
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

func sampleOutPoints(n int) []domain.OutPoint {
	ops := make([]domain.OutPoint, n)
	for i := range ops {
		ops[i] = domain.OutPoint{TxID: chainhash.Sum([]byte{byte(i)}), Vout: uint32(i)}
	}
	return ops
}

func TestReserveIsAllOrNothing(t *testing.T) {
	store := openTestStore(t)
	set := New(store, 0)

	ops := sampleOutPoints(3)
	if _, err := set.Reserve(ops[:2], nil); err != nil {
		t.Fatalf("first reservation should succeed: %v", err)
	}

	if _, err := set.Reserve(ops, nil); err != ErrUTXOLocked {
		t.Fatalf("expected ErrUTXOLocked for overlapping reservation, got %v", err)
	}

	// The third, never-reserved outpoint must still be free -- the
	// failed call must not have partially reserved anything.
	token, err := set.Reserve(ops[2:], nil)
	if err != nil {
		t.Fatalf("unreserved outpoint should still be selectable: %v", err)
	}
	set.Release(token, nil)
}

func TestReleaseFreesOutpointsForReselection(t *testing.T) {
	store := openTestStore(t)
	set := New(store, 0)

	ops := sampleOutPoints(2)
	token, err := set.Reserve(ops, nil)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	set.Release(token, nil)

	if _, err := set.Reserve(ops, nil); err != nil {
		t.Fatalf("expected outpoints to be reselectable after release, got %v", err)
	}
}

func TestSweepExpiredReleasesOldTokens(t *testing.T) {
	store := openTestStore(t)
	set := New(store, 0)

	ops := sampleOutPoints(1)
	token, err := set.Reserve(ops, nil)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	token.ExpiresAt = time.Now().Add(-time.Second)

	released := set.SweepExpired(nil)
	if released != 1 {
		t.Fatalf("SweepExpired released %d, want 1", released)
	}

	if _, err := set.Reserve(ops, nil); err != nil {
		t.Fatalf("expired reservation should have been swept: %v", err)
	}
}
