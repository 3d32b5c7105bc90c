package wire

import (
	"fmt"
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
)

// InvType identifies what an inventory vector refers to.
type InvType uint32

const (
	InvTypeBlock InvType = iota
	InvTypeTx
)

// InvVect is a single inventory item: a type tag plus the hash it
// names, per spec.md §4.8's inv/getdata messages.
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

func writeInvVects(w io.Writer, items []InvVect, maxCount int) error {
	if len(items) > maxCount {
		return fmt.Errorf("wire: too many inventory items (%d > %d)", len(items), maxCount)
	}
	if err := WriteVarInt(w, uint64(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := writeUint32(w, uint32(item.Type)); err != nil {
			return err
		}
		if _, err := w.Write(item.Hash[:]); err != nil {
			return err
		}
	}
	return nil
}

func readInvVects(r io.Reader, maxCount int) ([]InvVect, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > uint64(maxCount) {
		return nil, fmt.Errorf("wire: inventory message carries too many items (%d > %d)", count, maxCount)
	}
	items := make([]InvVect, count)
	for i := range items {
		t, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		items[i].Type = InvType(t)
		if _, err := io.ReadFull(r, items[i].Hash[:]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// MsgInv announces objects the sender has available, per spec.md §4.8.
type MsgInv struct {
	InvList []InvVect
}

func (msg *MsgInv) Command() string             { return CmdInv }
func (msg *MsgInv) MaxPayloadLength() uint32     { return uint32(MaxGenericPayload) }
func (msg *MsgInv) BtpcEncode(w io.Writer) error { return writeInvVects(w, msg.InvList, MaxInvPerMsg) }
func (msg *MsgInv) BtpcDecode(r io.Reader) error {
	items, err := readInvVects(r, MaxInvPerMsg)
	if err != nil {
		return err
	}
	msg.InvList = items
	return nil
}

// MsgGetData requests the full objects named by an earlier MsgInv, per
// spec.md §4.8.
type MsgGetData struct {
	InvList []InvVect
}

func (msg *MsgGetData) Command() string         { return CmdGetData }
func (msg *MsgGetData) MaxPayloadLength() uint32 { return uint32(MaxGenericPayload) }
func (msg *MsgGetData) BtpcEncode(w io.Writer) error {
	return writeInvVects(w, msg.InvList, MaxInvPerMsg)
}
func (msg *MsgGetData) BtpcDecode(r io.Reader) error {
	items, err := readInvVects(r, MaxInvPerMsg)
	if err != nil {
		return err
	}
	msg.InvList = items
	return nil
}
