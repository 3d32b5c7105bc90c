package wire

import (
	"encoding/binary"
	"io"
)

// ProtocolVersion is the wire protocol version BTPC nodes negotiate in
// the version handshake, per spec.md §6 ("Protocol version is a fixed
// u32 negotiated in version").
const ProtocolVersion uint32 = 1

// MaxUserAgentLen bounds MsgVersion's UserAgent field.
const MaxUserAgentLen = 256

// MsgVersion is the first message exchanged on a new connection,
// announcing the sender's protocol version, services, best known
// height and an anti-self-connect nonce. Grounded on
// wire/msgversion.go's MsgVersion, dropping the DAG-era SubnetworkID/
// SelectedTipHash fields in favor of BTPC's single-chain
// StartHeight/ForkID.
type MsgVersion struct {
	ProtocolVersion uint32
	Services        uint64
	Timestamp       uint64
	AddrMe          NetAddress
	AddrYou         NetAddress
	Nonce           uint64
	UserAgent       string
	StartHeight     uint32
	ForkID          uint8
}

func (msg *MsgVersion) Command() string { return CmdVersion }

func (msg *MsgVersion) MaxPayloadLength() uint32 { return uint32(MaxGenericPayload) }

func (msg *MsgVersion) BtpcEncode(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], msg.ProtocolVersion)
	if _, err := w.Write(buf[:4]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[:], msg.Services)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[:], msg.Timestamp)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if err := writeNetAddress(w, &msg.AddrMe); err != nil {
		return err
	}
	if err := writeNetAddress(w, &msg.AddrYou); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[:], msg.Nonce)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if err := WriteVarBytes(w, []byte(msg.UserAgent)); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[:4], msg.StartHeight)
	if _, err := w.Write(buf[:4]); err != nil {
		return err
	}
	_, err := w.Write([]byte{msg.ForkID})
	return err
}

func (msg *MsgVersion) BtpcDecode(r io.Reader) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return err
	}
	msg.ProtocolVersion = binary.LittleEndian.Uint32(buf[:4])

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	msg.Services = binary.LittleEndian.Uint64(buf[:])

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	msg.Timestamp = binary.LittleEndian.Uint64(buf[:])

	if err := readNetAddress(r, &msg.AddrMe); err != nil {
		return err
	}
	if err := readNetAddress(r, &msg.AddrYou); err != nil {
		return err
	}

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	msg.Nonce = binary.LittleEndian.Uint64(buf[:])

	ua, err := ReadVarBytes(r, MaxUserAgentLen, "user_agent")
	if err != nil {
		return err
	}
	msg.UserAgent = string(ua)

	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return err
	}
	msg.StartHeight = binary.LittleEndian.Uint32(buf[:4])

	var forkByte [1]byte
	if _, err := io.ReadFull(r, forkByte[:]); err != nil {
		return err
	}
	msg.ForkID = forkByte[0]
	return nil
}

// MsgVerAck acknowledges a received MsgVersion, completing the
// handshake. It carries no payload.
type MsgVerAck struct{}

func (msg *MsgVerAck) Command() string             { return CmdVerAck }
func (msg *MsgVerAck) MaxPayloadLength() uint32     { return 0 }
func (msg *MsgVerAck) BtpcEncode(w io.Writer) error { return nil }
func (msg *MsgVerAck) BtpcDecode(r io.Reader) error { return nil }

func writeNetAddress(w io.Writer, addr *NetAddress) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], addr.Timestamp)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if _, err := w.Write(addr.IP[:]); err != nil {
		return err
	}
	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], addr.Port)
	_, err := w.Write(portBuf[:])
	return err
}

func readNetAddress(r io.Reader, addr *NetAddress) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	addr.Timestamp = binary.LittleEndian.Uint64(buf[:])
	if _, err := io.ReadFull(r, addr.IP[:]); err != nil {
		return err
	}
	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		return err
	}
	addr.Port = binary.BigEndian.Uint16(portBuf[:])
	return nil
}
