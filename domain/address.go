package domain

import (
	"bytes"
	"fmt"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/btcsuite/btcutil/base58"
)

// NetworkPrefix is the single byte prepended to an address's payload
// to bind it to a network, per spec.md §6. Grounded on
// util/address.go's pubKeyHashAddrID/scriptHashAddrID prefix-byte
// idiom, generalized to one prefix per BTPC network.
type NetworkPrefix byte

const (
	PrefixMainnet NetworkPrefix = 0x1C // Base58Check form starts with 'w', 'x' or 'y'
	PrefixTestnet NetworkPrefix = 0x3F
	PrefixRegtest NetworkPrefix = 0x6F
)

// AddressPayloadLen is the truncated-hash length embedded in an
// address: SHA-512(public_key)[0..32].
const AddressPayloadLen = 32

// checksumLen is the length, in bytes, of the Base58Check checksum.
const checksumLen = 4

// EncodeAddress derives and encodes the Base58Check address for a
// public key on the given network, per spec.md §6:
// addr = prefix_byte(network) || truncated SHA-512(public_key)[0..32],
// checksum = SHA-512(SHA-512(prefix||payload))[0..4].
func EncodeAddress(publicKey []byte, prefix NetworkPrefix) string {
	full := chainhash.Sum(publicKey)
	payload := full[:AddressPayloadLen]

	body := make([]byte, 0, 1+AddressPayloadLen)
	body = append(body, byte(prefix))
	body = append(body, payload...)

	checksum := chainhash.DoubleSum(body)
	body = append(body, checksum[:checksumLen]...)

	return base58.Encode(body)
}

// DecodeAddress decodes a Base58Check address, verifying its checksum
// and that its network prefix matches wantPrefix. It returns the
// 32-byte truncated public-key-hash payload.
func DecodeAddress(addr string, wantPrefix NetworkPrefix) ([]byte, error) {
	decoded := base58.Decode(addr)
	if len(decoded) != 1+AddressPayloadLen+checksumLen {
		return nil, fmt.Errorf("domain: invalid address length %d", len(decoded))
	}

	body := decoded[:1+AddressPayloadLen]
	gotChecksum := decoded[1+AddressPayloadLen:]

	wantChecksum := chainhash.DoubleSum(body)
	for i := 0; i < checksumLen; i++ {
		if gotChecksum[i] != wantChecksum[i] {
			return nil, fmt.Errorf("domain: address checksum mismatch")
		}
	}

	if NetworkPrefix(body[0]) != wantPrefix {
		return nil, fmt.Errorf("domain: address network prefix %#x does not match expected %#x", body[0], wantPrefix)
	}

	payload := make([]byte, AddressPayloadLen)
	copy(payload, body[1:])
	return payload, nil
}

// AddressBytes returns the raw (prefix || payload || checksum) bytes
// used as a TransactionOutput.Address, rather than the Base58Check
// display string. Storing the raw form avoids re-deriving the
// checksum on every UTXO lookup.
func AddressBytes(publicKey []byte, prefix NetworkPrefix) []byte {
	full := chainhash.Sum(publicKey)
	payload := full[:AddressPayloadLen]

	body := make([]byte, 0, 1+AddressPayloadLen+checksumLen)
	body = append(body, byte(prefix))
	body = append(body, payload...)
	checksum := chainhash.DoubleSum(body)
	body = append(body, checksum[:checksumLen]...)
	return body
}

// PublicKeyOwnsAddress reports whether publicKey is the key an output
// paying to address was addressed to, per spec.md §6: address encodes
// prefix || truncated SHA-512(public_key), so the claimed key's address
// (reconstructed with the prefix embedded in address itself) must match
// address byte-for-byte. This is the binding a spending input's
// PublicKey must satisfy against the UTXO it spends -- a valid
// signature alone only proves the signer holds the private half of
// whatever key it supplied, never that the key is the one the output
// was paid to.
func PublicKeyOwnsAddress(publicKey, address []byte) bool {
	if len(address) != 1+AddressPayloadLen+checksumLen {
		return false
	}
	expected := AddressBytes(publicKey, NetworkPrefix(address[0]))
	return bytes.Equal(expected, address)
}
