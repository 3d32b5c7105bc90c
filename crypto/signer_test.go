package crypto

import (
	"bytes"
	"testing"
)

func TestSignerFromSeedDeterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, SeedSize)

	s1, err := NewSignerFromSeed(seed)
	if err != nil {
		t.Fatalf("NewSignerFromSeed: %v", err)
	}
	s2, err := NewSignerFromSeed(seed)
	if err != nil {
		t.Fatalf("NewSignerFromSeed: %v", err)
	}

	if !bytes.Equal(s1.PublicKey, s2.PublicKey) {
		t.Fatal("same seed produced different public keys")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer, err := GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	defer signer.Close()

	msg := []byte("btpc signing preimage")
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if !Verify(signer.PublicKey, msg, sig) {
		t.Fatal("signature did not verify under its own public key")
	}
	if Verify(signer.PublicKey, []byte("tampered"), sig) {
		t.Fatal("signature verified under a different message")
	}
}

func TestSignWithoutKeyMaterialFails(t *testing.T) {
	s := &Signer{PublicKey: make([]byte, PublicKeySize)}
	_, err := s.Sign([]byte("msg"))
	if err == nil {
		t.Fatal("expected SignatureFailedError, got nil")
	}
	sfe, ok := err.(*SignatureFailedError)
	if !ok || !sfe.MissingSeed {
		t.Fatalf("expected MissingSeed error, got %v", err)
	}
}

func TestRecoverSignerFromSecretBytesAndSeed(t *testing.T) {
	original, err := GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	defer original.Close()

	recovered, err := NewSignerFromParts(original.PublicKey, original.SecretBytes, original.Seed)
	if err != nil {
		t.Fatalf("NewSignerFromParts: %v", err)
	}
	defer recovered.Close()

	msg := []byte("recovered signer must still sign")
	sig, err := recovered.Sign(msg)
	if err != nil {
		t.Fatalf("Sign after recovery: %v", err)
	}
	if !Verify(original.PublicKey, msg, sig) {
		t.Fatal("signature from recovered signer did not verify under original public key")
	}
}

func TestVerifyNeverPanicsOnMalformedInput(t *testing.T) {
	cases := [][]byte{nil, {}, {0x01, 0x02}, make([]byte, PublicKeySize-1)}
	for _, pk := range cases {
		if Verify(pk, []byte("msg"), make([]byte, SignatureSize)) {
			t.Fatalf("malformed public key %v unexpectedly verified", pk)
		}
	}
}

func TestBatchVerifyFailsOnAnyBadSignature(t *testing.T) {
	s1, _ := GenerateSigner()
	s2, _ := GenerateSigner()
	defer s1.Close()
	defer s2.Close()

	msg := []byte("batch message")
	sig1, _ := s1.Sign(msg)
	sig2, _ := s2.Sign(msg)

	good := []VerificationItem{
		{PublicKey: s1.PublicKey, Message: msg, Signature: sig1},
		{PublicKey: s2.PublicKey, Message: msg, Signature: sig2},
	}
	if !BatchVerify(good) {
		t.Fatal("expected batch of valid signatures to verify")
	}

	bad := append(append([]VerificationItem{}, good...), VerificationItem{
		PublicKey: s1.PublicKey, Message: msg, Signature: sig2,
	})
	if BatchVerify(bad) {
		t.Fatal("expected batch containing a mismatched signature to fail")
	}
}
