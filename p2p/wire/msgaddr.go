package wire

import (
	"fmt"
	"io"
)

// MsgGetAddr requests a peer's known address list; it carries no
// payload.
type MsgGetAddr struct{}

func (msg *MsgGetAddr) Command() string             { return CmdGetAddr }
func (msg *MsgGetAddr) MaxPayloadLength() uint32     { return 0 }
func (msg *MsgGetAddr) BtpcEncode(w io.Writer) error { return nil }
func (msg *MsgGetAddr) BtpcDecode(r io.Reader) error { return nil }

// MsgAddr carries up to MaxAddrPerMsg known peer addresses, per
// spec.md §4.8.
type MsgAddr struct {
	AddrList []*NetAddress
}

func (msg *MsgAddr) Command() string         { return CmdAddr }
func (msg *MsgAddr) MaxPayloadLength() uint32 { return uint32(MaxGenericPayload) }

func (msg *MsgAddr) BtpcEncode(w io.Writer) error {
	if len(msg.AddrList) > MaxAddrPerMsg {
		return fmt.Errorf("wire: too many addresses for addr message (%d > %d)", len(msg.AddrList), MaxAddrPerMsg)
	}
	if err := WriteVarInt(w, uint64(len(msg.AddrList))); err != nil {
		return err
	}
	for _, addr := range msg.AddrList {
		if err := writeNetAddress(w, addr); err != nil {
			return err
		}
	}
	return nil
}

func (msg *MsgAddr) BtpcDecode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxAddrPerMsg {
		return fmt.Errorf("wire: addr message carries too many addresses (%d > %d)", count, MaxAddrPerMsg)
	}
	msg.AddrList = make([]*NetAddress, count)
	for i := range msg.AddrList {
		addr := &NetAddress{}
		if err := readNetAddress(r, addr); err != nil {
			return err
		}
		msg.AddrList[i] = addr
	}
	return nil
}
