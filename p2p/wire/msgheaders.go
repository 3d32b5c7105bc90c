package wire

import (
	"fmt"
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

func writeLocator(w io.Writer, locator []chainhash.Hash, hashStop chainhash.Hash) error {
	if err := WriteVarInt(w, uint64(len(locator))); err != nil {
		return err
	}
	for _, h := range locator {
		if _, err := w.Write(h[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(hashStop[:])
	return err
}

func readLocator(r io.Reader, maxHashes int) ([]chainhash.Hash, chainhash.Hash, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, chainhash.Hash{}, err
	}
	if count > uint64(maxHashes) {
		return nil, chainhash.Hash{}, fmt.Errorf("wire: locator carries too many hashes (%d > %d)", count, maxHashes)
	}
	locator := make([]chainhash.Hash, count)
	for i := range locator {
		if _, err := io.ReadFull(r, locator[i][:]); err != nil {
			return nil, chainhash.Hash{}, err
		}
	}
	var hashStop chainhash.Hash
	if _, err := io.ReadFull(r, hashStop[:]); err != nil {
		return nil, chainhash.Hash{}, err
	}
	return locator, hashStop, nil
}

// maxLocatorHashes bounds a getheaders/getblocks locator: the
// exponential-backoff scheme (chain.BlockLocator) never produces more
// than ~32 entries for any realistic chain height, so this is a
// generous DoS ceiling rather than a tight one.
const maxLocatorHashes = 128

// MsgGetHeaders requests headers following the first locator hash the
// receiver recognizes, per spec.md §4.7's headers-first sync.
type MsgGetHeaders struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []chainhash.Hash
	HashStop           chainhash.Hash
}

func (msg *MsgGetHeaders) Command() string         { return CmdGetHeaders }
func (msg *MsgGetHeaders) MaxPayloadLength() uint32 { return uint32(MaxGenericPayload) }

func (msg *MsgGetHeaders) BtpcEncode(w io.Writer) error {
	if err := writeUint32(w, msg.ProtocolVersion); err != nil {
		return err
	}
	return writeLocator(w, msg.BlockLocatorHashes, msg.HashStop)
}

func (msg *MsgGetHeaders) BtpcDecode(r io.Reader) error {
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

// MsgHeaders carries up to MaxHeadersPerMsg headers, per spec.md §4.8.
type MsgHeaders struct {
	Headers []*domain.BlockHeader
}

func (msg *MsgHeaders) Command() string         { return CmdHeaders }
func (msg *MsgHeaders) MaxPayloadLength() uint32 { return uint32(MaxGenericPayload) }

func (msg *MsgHeaders) BtpcEncode(w io.Writer) error {
	if len(msg.Headers) > MaxHeadersPerMsg {
		return fmt.Errorf("wire: too many headers (%d > %d)", len(msg.Headers), MaxHeadersPerMsg)
	}
	if err := WriteVarInt(w, uint64(len(msg.Headers))); err != nil {
		return err
	}
	for _, h := range msg.Headers {
		if err := h.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

func (msg *MsgHeaders) BtpcDecode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxHeadersPerMsg {
		return fmt.Errorf("wire: headers message carries too many headers (%d > %d)", count, MaxHeadersPerMsg)
	}
	msg.Headers = make([]*domain.BlockHeader, count)
	for i := range msg.Headers {
		h, err := domain.DeserializeHeader(r)
		if err != nil {
			return err
		}
		msg.Headers[i] = h
	}
	return nil
}
