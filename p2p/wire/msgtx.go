package wire

import (
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// MsgTx carries one transaction for mempool relay, per spec.md §4.8
// (100 KiB cap).
type MsgTx struct {
	Tx *domain.Transaction
}

func (msg *MsgTx) Command() string         { return CmdTx }
func (msg *MsgTx) MaxPayloadLength() uint32 { return uint32(MaxTxPayload) }

func (msg *MsgTx) BtpcEncode(w io.Writer) error {
	return msg.Tx.Serialize(w)
}

func (msg *MsgTx) BtpcDecode(r io.Reader) error {
	tx, err := domain.DeserializeTransaction(r)
	if err != nil {
		return err
	}
	msg.Tx = tx
	return nil
}
