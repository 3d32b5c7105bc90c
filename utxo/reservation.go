package utxo

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
)

// ReservationTTL is the fixed lifetime of a reservation token, per
// spec.md §3: created_at + 5 minutes.
const ReservationTTL = 5 * time.Minute

// SweepInterval is the cadence of the background sweep goroutine that
// releases expired reservations, per spec.md §4.5 ("at a fixed
// cadence, >= every 60 s").
const SweepInterval = 30 * time.Second

// ErrUTXOLocked is returned by Reserve when any requested outpoint is
// already held by another live reservation.
var ErrUTXOLocked = errors.New("utxo: one or more outpoints are already reserved")

// ReservationToken identifies a set of outpoints locked for a pending
// wallet-driven transaction, per spec.md §3. It lives only in process
// memory; it is never persisted to storage.
type ReservationToken struct {
	ID        uuid.UUID
	OutPoints []domain.OutPoint
	TxID      *chainhash.Hash // set once the reservation is bound to a signed tx
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t *ReservationToken) expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Reserve locks outpoints against concurrent selection by another
// wallet-send call. The call is all-or-nothing: if any outpoint is
// already reserved, no partial reservation is created and
// ErrUTXOLocked is returned, per spec.md §4.5.
func (s *Set) Reserve(outpoints []domain.OutPoint, bus *eventbus.Bus) (*ReservationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, op := range outpoints {
		if existing, locked := s.reservedBy[op]; locked && !existing.expired(now) {
			return nil, ErrUTXOLocked
		}
	}

	token := &ReservationToken{
		ID:        uuid.New(),
		OutPoints: append([]domain.OutPoint(nil), outpoints...),
		CreatedAt: now,
		ExpiresAt: now.Add(ReservationTTL),
	}
	for _, op := range outpoints {
		s.reservedBy[op] = token
	}

	logger.UTXOLog.Debugf("reserved %d outpoints under token %s", len(outpoints), token.ID)
	if bus != nil {
		bus.Publish(eventbus.EventUTXOReserved, token)
	}
	return token, nil
}

// Release unlocks every outpoint held by token, regardless of whether
// it has expired. Outpoints are released only here or by the expiry
// sweep; a token the caller stops referencing stays reserved until it
// expires and is swept.
func (s *Set) Release(token *ReservationToken, bus *eventbus.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(token, bus)
}

func (s *Set) releaseLocked(token *ReservationToken, bus *eventbus.Bus) {
	for _, op := range token.OutPoints {
		if cur, ok := s.reservedBy[op]; ok && cur.ID == token.ID {
			delete(s.reservedBy, op)
		}
	}
	if bus != nil {
		bus.Publish(eventbus.EventUTXOReleased, token)
	}
}

// SweepExpired releases every reservation whose ExpiresAt has passed,
// returning the number of outpoints released. Called by the periodic
// sweep goroutine (see RunSweepLoop) and may also be called directly
// from tests.
func (s *Set) SweepExpired(bus *eventbus.Bus) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	seen := make(map[uuid.UUID]*ReservationToken)
	for _, token := range s.reservedBy {
		if token.expired(now) {
			seen[token.ID] = token
		}
	}
	released := 0
	for _, token := range seen {
		for _, op := range token.OutPoints {
			if cur, ok := s.reservedBy[op]; ok && cur.ID == token.ID {
				delete(s.reservedBy, op)
				released++
			}
		}
		if bus != nil {
			bus.Publish(eventbus.EventUTXOReleased, token)
		}
	}
	if released > 0 {
		logger.UTXOLog.Debugf("sweep released %d expired outpoint reservations", released)
	}
	return released
}

// BindTxID records the transaction id a reservation was ultimately
// signed into, letting observers correlate a reservation with its
// broadcast transaction.
func (s *Set) BindTxID(token *ReservationToken, txID chainhash.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.TxID = &txID
}

// sweepStop is a cancellation handle for RunSweepLoop.
type sweepStop struct {
	cancel chan struct{}
	done   chan struct{}
}

// Stop cancels the sweep loop and waits for it to exit.
func (h *sweepStop) Stop() {
	close(h.cancel)
	<-h.done
}

// RunSweepLoop starts a background goroutine that calls SweepExpired
// every SweepInterval until Stop is called on the returned handle, per
// spec.md §4.5's "background sweep runs at a fixed cadence" rule. The
// sweep loop runs outside any peer hot path, per spec.md §5.
func (s *Set) RunSweepLoop(bus *eventbus.Bus) interface{ Stop() } {
	h := &sweepStop{cancel: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(h.done)
		ticker := time.NewTicker(SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.SweepExpired(bus)
			case <-h.cancel:
				return
			}
		}
	}()
	return h
}
