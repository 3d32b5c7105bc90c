package wire

import (
	"encoding/binary"
	"io"
)

// MsgPing and MsgPong exchange a random nonce so the sender can measure
// round-trip latency and confirm liveness, per spec.md §4.8's 120s idle
// ping interval / 20s pong timeout.
type MsgPing struct {
	Nonce uint64
}

func (msg *MsgPing) Command() string         { return CmdPing }
func (msg *MsgPing) MaxPayloadLength() uint32 { return 8 }

func (msg *MsgPing) BtpcEncode(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], msg.Nonce)
	_, err := w.Write(buf[:])
	return err
}

func (msg *MsgPing) BtpcDecode(r io.Reader) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	msg.Nonce = binary.LittleEndian.Uint64(buf[:])
	return nil
}

// MsgPong is the ping-nonce echo.
type MsgPong struct {
	Nonce uint64
}

func (msg *MsgPong) Command() string         { return CmdPong }
func (msg *MsgPong) MaxPayloadLength() uint32 { return 8 }

func (msg *MsgPong) BtpcEncode(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], msg.Nonce)
	_, err := w.Write(buf[:])
	return err
}

func (msg *MsgPong) BtpcDecode(r io.Reader) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	msg.Nonce = binary.LittleEndian.Uint64(buf[:])
	return nil
}
