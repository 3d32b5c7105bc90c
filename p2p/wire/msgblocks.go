package wire

import (
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// MsgGetBlocks requests full block bodies following the first locator
// hash the receiver recognizes, per spec.md §4.8. Shares MsgGetHeaders'
// locator shape; kept as a distinct type since the two requests answer
// with different payloads (bodies vs. headers).
type MsgGetBlocks struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []chainhash.Hash
	HashStop           chainhash.Hash
}

func (msg *MsgGetBlocks) Command() string         { return CmdGetBlocks }
func (msg *MsgGetBlocks) MaxPayloadLength() uint32 { return uint32(MaxGenericPayload) }

func (msg *MsgGetBlocks) BtpcEncode(w io.Writer) error {
	if err := writeUint32(w, msg.ProtocolVersion); err != nil {
		return err
	}
	return writeLocator(w, msg.BlockLocatorHashes, msg.HashStop)
}

func (msg *MsgGetBlocks) BtpcDecode(r io.Reader) error {
	v, err := readUint32(r)
	if err != nil {
		return err
	}
	msg.ProtocolVersion = v
	locator, stop, err := readLocator(r, maxLocatorHashes)
	if err != nil {
		return err
	}
	msg.BlockLocatorHashes = locator
	msg.HashStop = stop
	return nil
}

// MsgBlock carries one full block, per spec.md §4.8 (2 MiB cap).
type MsgBlock struct {
	Block *domain.Block
}

func (msg *MsgBlock) Command() string         { return CmdBlock }
func (msg *MsgBlock) MaxPayloadLength() uint32 { return uint32(MaxBlockPayload) }

func (msg *MsgBlock) BtpcEncode(w io.Writer) error {
	return msg.Block.Serialize(w)
}

func (msg *MsgBlock) BtpcDecode(r io.Reader) error {
	block, err := domain.DeserializeBlock(r)
	if err != nil {
		return err
	}
	msg.Block = block
	return nil
}
