package wire

import (
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
)

// RejectCode classifies why a peer rejected a message, following
// Bitcoin's conventional reject-code ranges.
type RejectCode uint8

const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonstandard     RejectCode = 0x40
	RejectInsufficientFee RejectCode = 0x42
	RejectCheckpoint      RejectCode = 0x43
)

// MsgReject is an optional diagnostic message naming the command and
// object a peer rejected and why, per spec.md §4.8 ("reject
// (optional)").
type MsgReject struct {
	Message string
	Code    RejectCode
	Reason  string
	Hash    chainhash.Hash
}

func (msg *MsgReject) Command() string         { return CmdReject }
func (msg *MsgReject) MaxPayloadLength() uint32 { return uint32(MaxGenericPayload) }

func (msg *MsgReject) BtpcEncode(w io.Writer) error {
	if err := WriteVarBytes(w, []byte(msg.Message)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(msg.Code)}); err != nil {
		return err
	}
	if err := WriteVarBytes(w, []byte(msg.Reason)); err != nil {
		return err
	}
	_, err := w.Write(msg.Hash[:])
	return err
}

func (msg *MsgReject) BtpcDecode(r io.Reader) error {
	message, err := ReadVarBytes(r, CommandSize*2, "reject_message")
	if err != nil {
		return err
	}
	msg.Message = string(message)

	var codeByte [1]byte
	if _, err := io.ReadFull(r, codeByte[:]); err != nil {
		return err
	}
	msg.Code = RejectCode(codeByte[0])

	reason, err := ReadVarBytes(r, 1024, "reject_reason")
	if err != nil {
		return err
	}
	msg.Reason = string(reason)

	_, err = io.ReadFull(r, msg.Hash[:])
	return err
}
