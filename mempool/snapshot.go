package mempool

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
)

// SaveSnapshot writes every pooled transaction to path as a sequence of
// length-prefixed canonical serializations, the on-disk
// "<data_dir>/<network>/mempool.snapshot" of spec.md §6. It is best-
// effort bookkeeping, not consensus state: a missing or corrupt
// snapshot only costs the pool its pre-restart contents, never chain
// validity.
func (p *Pool) SaveSnapshot(path string) error {
	p.mu.RLock()
	txs := make([]*domain.Transaction, 0, len(p.byTxID))
	for _, e := range p.byTxID {
		txs = append(txs, e.Tx)
	}
	p.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var lenBuf [4]byte
	for _, tx := range txs {
		raw := tx.Bytes()
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(raw)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(raw); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	logger.MempoolLog.Infof("wrote mempool snapshot: %d transactions to %s", len(txs), path)
	return nil
}

// LoadSnapshot re-admits every transaction recorded in a prior
// SaveSnapshot through the normal Admit pipeline, so restored entries
// are re-validated against the current UTXO view rather than trusted
// blindly -- a transaction confirmed or double-spent while the node was
// down is silently dropped instead of resurrected. A missing file is
// not an error: a fresh node simply starts with an empty pool.
func (p *Pool) LoadSnapshot(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var lenBuf [4]byte
	restored := 0
	for {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			break
		}
		size := binary.LittleEndian.Uint32(lenBuf[:])
		raw := make([]byte, size)
		if _, err := io.ReadFull(r, raw); err != nil {
			break
		}
		tx, err := domain.DeserializeTransaction(bytes.NewReader(raw))
		if err != nil {
			logger.MempoolLog.Warnf("mempool snapshot: skipping malformed transaction: %v", err)
			continue
		}
		if err := p.Admit(tx); err != nil {
			continue
		}
		restored++
	}
	logger.MempoolLog.Infof("restored %d transactions from mempool snapshot %s", restored, path)
	return nil
}
