// Package wire implements BTPC's peer-to-peer wire format: Bitcoin-
// compatible message framing (4-byte magic, 12-byte command, 4-byte
// length, 4-byte checksum) and the concrete message types of spec.md
// §4.8. Grounded on wire/common.go's var-int family and
// wire/message.go's Message interface/command enum, rebuilt with raw
// magic+checksum framing: the teacher's own wire package dropped that
// framing in favor of a gRPC transport (netadapter/domainmessage), so
// this file restores the classic btcsuite header shape the teacher's
// message-type files were themselves originally written against.
package wire

import (
	"bytes"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// CommandSize is the fixed width, in bytes, of a message's ASCII
// command name in the header.
const CommandSize = 12

// MaxMessagePayload bounds any single message regardless of the
// per-type caps below, guarding against memory exhaustion from a
// malformed or hostile length field.
const MaxMessagePayload = 1024 * 1024 * 2 // 2 MiB, spec.md §4.8's largest cap (block)

// Per-message size/count caps, spec.md §4.8.
const (
	MaxBlockPayload      = 1024 * 1024 * 2   // 2 MiB
	MaxTxPayload         = 1024 * 100        // 100 KiB
	MaxInvPerMsg         = 50000
	MaxHeadersPerMsg     = 2000
	MaxAddrPerMsg        = 1000
	MaxGenericPayload    = 1024 * 1024 // 1 MiB
)

// Command names, exactly CommandSize bytes once padded with zeros.
const (
	CmdVersion     = "version"
	CmdVerAck      = "verack"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdGetAddr     = "getaddr"
	CmdAddr        = "addr"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdGetHeaders  = "getheaders"
	CmdHeaders     = "headers"
	CmdGetBlocks   = "getblocks"
	CmdBlock       = "block"
	CmdTx          = "tx"
	CmdReject      = "reject"
)

// Message is implemented by every concrete message type. Command
// identifies the type for framing; MaxPayloadLength bounds how many
// bytes ReadMessage will accept for it.
type Message interface {
	Command() string
	MaxPayloadLength() uint32
	BtpcEncode(w io.Writer) error
	BtpcDecode(r io.Reader) error
}

// messageHeader is the fixed 24-byte prefix of every wire message:
// network magic, zero-padded ASCII command, payload length and a
// truncated double-SHA-512 checksum of the payload.
type messageHeader struct {
	magic    netparams.Magic
	command  string
	length   uint32
	checksum [4]byte
}

const messageHeaderSize = 4 + CommandSize + 4 + 4

func checksum(payload []byte) [4]byte {
	first := sha512.Sum512(payload)
	second := sha512.Sum512(first[:])
	var sum [4]byte
	copy(sum[:], second[:4])
	return sum
}

func writeHeader(w io.Writer, magic netparams.Magic, command string, payload []byte) error {
	if len(command) > CommandSize {
		return fmt.Errorf("wire: command %q exceeds %d bytes", command, CommandSize)
	}
	var cmdBuf [CommandSize]byte
	copy(cmdBuf[:], command)

	buf := make([]byte, messageHeaderSize)
	copy(buf[0:4], magic[:])
	copy(buf[4:4+CommandSize], cmdBuf[:])
	binary.LittleEndian.PutUint32(buf[4+CommandSize:8+CommandSize], uint32(len(payload)))
	sum := checksum(payload)
	copy(buf[8+CommandSize:], sum[:])
	_, err := w.Write(buf)
	return err
}

func readHeader(r io.Reader) (messageHeader, error) {
	buf := make([]byte, messageHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return messageHeader{}, err
	}
	var hdr messageHeader
	copy(hdr.magic[:], buf[0:4])
	cmdEnd := 4 + CommandSize
	cmdBuf := buf[4:cmdEnd]
	// Commands are zero-padded; trim at the first NUL.
	n := bytes.IndexByte(cmdBuf, 0)
	if n == -1 {
		n = len(cmdBuf)
	}
	hdr.command = string(cmdBuf[:n])
	hdr.length = binary.LittleEndian.Uint32(buf[cmdEnd : cmdEnd+4])
	copy(hdr.checksum[:], buf[cmdEnd+4:])
	return hdr, nil
}

// MakeEmptyMessage returns a zero-value instance of the message type
// named by command, or an error if command is unrecognized. Used by
// ReadMessage to decode a payload once the header names its type.
func MakeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	case CmdGetAddr:
		return &MsgGetAddr{}, nil
	case CmdAddr:
		return &MsgAddr{}, nil
	case CmdInv:
		return &MsgInv{}, nil
	case CmdGetData:
		return &MsgGetData{}, nil
	case CmdGetHeaders:
		return &MsgGetHeaders{}, nil
	case CmdHeaders:
		return &MsgHeaders{}, nil
	case CmdGetBlocks:
		return &MsgGetBlocks{}, nil
	case CmdBlock:
		return &MsgBlock{}, nil
	case CmdTx:
		return &MsgTx{}, nil
	case CmdReject:
		return &MsgReject{}, nil
	default:
		return nil, fmt.Errorf("wire: unhandled command %q", command)
	}
}

// WriteMessage writes msg to w framed for network magic, returning the
// total number of bytes written.
func WriteMessage(w io.Writer, msg Message, magic netparams.Magic) (int, error) {
	var payloadBuf bytes.Buffer
	if err := msg.BtpcEncode(&payloadBuf); err != nil {
		return 0, err
	}
	payload := payloadBuf.Bytes()
	if uint32(len(payload)) > msg.MaxPayloadLength() {
		return 0, fmt.Errorf("wire: %s payload of %d bytes exceeds cap of %d",
			msg.Command(), len(payload), msg.MaxPayloadLength())
	}

	var hdrBuf bytes.Buffer
	if err := writeHeader(&hdrBuf, magic, msg.Command(), payload); err != nil {
		return 0, err
	}
	n, err := w.Write(hdrBuf.Bytes())
	if err != nil {
		return n, err
	}
	n2, err := w.Write(payload)
	return n + n2, err
}

// ReadMessage reads one length- and checksum-verified message from r.
// A peer that sends a header naming an over-cap length, a bad magic, or
// a payload whose checksum does not match is misbehaving and must be
// disconnected by the caller (spec.md §4.8).
func ReadMessage(r io.Reader, magic netparams.Magic) (Message, error) {
	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if hdr.magic != magic {
		return nil, fmt.Errorf("wire: message from wrong network (got magic %x, want %x)", hdr.magic, magic)
	}
	if hdr.length > MaxMessagePayload {
		return nil, fmt.Errorf("wire: %s payload length %d exceeds hard cap %d", hdr.command, hdr.length, MaxMessagePayload)
	}

	msg, err := MakeEmptyMessage(hdr.command)
	if err != nil {
		// Drain the unknown payload so the stream stays in sync.
		io.CopyN(io.Discard, r, int64(hdr.length))
		return nil, err
	}
	if hdr.length > msg.MaxPayloadLength() {
		return nil, fmt.Errorf("wire: %s payload length %d exceeds type cap %d", hdr.command, hdr.length, msg.MaxPayloadLength())
	}

	payload := make([]byte, hdr.length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if checksum(payload) != hdr.checksum {
		return nil, fmt.Errorf("wire: %s checksum mismatch", hdr.command)
	}
	if err := msg.BtpcDecode(bytes.NewReader(payload)); err != nil {
		return nil, err
	}
	return msg, nil
}
