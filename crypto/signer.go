package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode5"
	"github.com/pkg/errors"
)

// Sizes of the ML-DSA (Dilithium5) key and signature material, per
// spec.md §3.
const (
	SeedSize      = mode5.SeedSize
	PublicKeySize = mode5.PublicKeySize
	SecretKeySize = mode5.PrivateKeySize
	SignatureSize = mode5.SignatureSize
)

// ErrVerifyFailed is never returned directly: Verify returns a bare
// bool and never an error, per spec.md §4.1 ("verify returns false for
// malformed inputs; never panics").
var ErrVerifyFailed = errors.New("crypto: signature verification failed")

// SignatureFailedError is returned by Sign when a Signer lacks the
// key material required to produce a signature.
type SignatureFailedError struct {
	MissingSeed bool
}

func (e *SignatureFailedError) Error() string {
	if e.MissingSeed {
		return "crypto: sign failed: seed missing, cannot reconstruct signing key"
	}
	return "crypto: sign failed"
}

// Signer holds ML-DSA key material for a single keypair. The underlying
// lattice scheme's canonical private-key representation is not
// guaranteed to round-trip through raw bytes in every implementation, so
// Seed acts as a regeneration anchor per spec.md §4.1/§9: when a
// full-length seed is supplied, NewSignerFromParts regenerates the key
// from Seed rather than unpacking SecretBytes. Sign uses the key held
// by the Signer.
//
// Signer is not safe for concurrent signing from multiple goroutines;
// each signing path should own its Signer instance.
type Signer struct {
	PublicKey   []byte
	SecretBytes []byte
	Seed        []byte // optional; nil if unavailable (see spec.md §9)

	sk *mode5.PrivateKey
}

// GenerateSigner creates a new Signer from a freshly generated
// cryptographically random seed.
func GenerateSigner() (*Signer, error) {
	var seed [SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, errors.Wrap(err, "crypto: failed to read random seed")
	}
	return NewSignerFromSeed(seed[:])
}

// NewSignerFromSeed deterministically derives a keypair from a 32-byte
// seed, per spec.md §4.1's keypair_from_seed contract.
func NewSignerFromSeed(seed []byte) (*Signer, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("crypto: seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	var seedArr [SeedSize]byte
	copy(seedArr[:], seed)

	pk, sk := mode5.NewKeyFromSeed(&seedArr)

	var pkBytes [PublicKeySize]byte
	pk.Pack(&pkBytes)
	var skBytes [SecretKeySize]byte
	sk.Pack(&skBytes)

	return &Signer{
		PublicKey:   pkBytes[:],
		SecretBytes: skBytes[:],
		Seed:        append([]byte(nil), seed...),
		sk:          sk,
	}, nil
}

// NewSignerFromParts reconstructs a Signer from previously stored
// key material. If seed is non-nil, it is used to regenerate the
// signing key (the reliable path per spec.md §4.1); otherwise the
// signer attempts to unpack secretBytes directly, which may fail to
// produce a working signer for schemes that do not byte-round-trip.
func NewSignerFromParts(publicKey, secretBytes, seed []byte) (*Signer, error) {
	if len(seed) == SeedSize {
		s, err := NewSignerFromSeed(seed)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	if len(secretBytes) != SecretKeySize {
		return nil, fmt.Errorf("crypto: secret key must be %d bytes, got %d", SecretKeySize, len(secretBytes))
	}
	var skBytes [SecretKeySize]byte
	copy(skBytes[:], secretBytes)
	sk := new(mode5.PrivateKey)
	sk.Unpack(&skBytes)

	return &Signer{
		PublicKey:   append([]byte(nil), publicKey...),
		SecretBytes: append([]byte(nil), secretBytes...),
		Seed:        nil,
		sk:          sk,
	}, nil
}

// Sign produces an ML-DSA signature over msg. If the signer was
// constructed without a usable secret key and without a seed to
// regenerate one, Sign fails with SignatureFailedError{MissingSeed:
// true}.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	if s.sk == nil {
		return nil, &SignatureFailedError{MissingSeed: s.Seed == nil}
	}
	sig := make([]byte, SignatureSize)
	mode5.SignTo(s.sk, msg, sig)
	return sig, nil
}

// Close zeroizes the signer's in-memory secret material. Callers must
// call Close when a Signer is no longer needed.
func (s *Signer) Close() {
	Zeroize(s.SecretBytes)
	Zeroize(s.Seed)
	s.sk = nil
}

// Verify reports whether signature is a valid ML-DSA signature over msg
// under publicKey. It never panics; malformed inputs simply fail
// verification.
func Verify(publicKey, msg, signature []byte) bool {
	if len(publicKey) != PublicKeySize || len(signature) != SignatureSize {
		return false
	}
	var pkBytes [PublicKeySize]byte
	copy(pkBytes[:], publicKey)
	pk := new(mode5.PublicKey)
	pk.Unpack(&pkBytes)
	return mode5.Verify(pk, msg, signature)
}

// VerificationItem is one (publicKey, message, signature) triple
// checked by BatchVerify.
type VerificationItem struct {
	PublicKey []byte
	Message   []byte
	Signature []byte
}

// BatchVerify verifies a batch of signatures, returning false if any
// one of them fails to verify. Per spec.md §4.4 consensus uses this to
// check every transaction input's signature in a block in one pass.
//
// circl's mode5.Verify is already constant-time with respect to the
// secret key material involved in signing; batching here is purely a
// call-site convenience: items are verified one after another, stopping
// at the first failure.
func BatchVerify(items []VerificationItem) bool {
	for _, item := range items {
		if !Verify(item.PublicKey, item.Message, item.Signature) {
			return false
		}
	}
	return true
}
