package errkind

import "testing"

func TestOfAndIs(t *testing.T) {
	err := New(UtxoLocked, "outpoint already reserved").WithAction("wait for the other transaction to settle")
	if !Is(err, UtxoLocked) {
		t.Fatal("Is should match the error's own kind")
	}
	if Is(err, UtxoNotFound) {
		t.Fatal("Is should not match an unrelated kind")
	}
	if Of(err) != UtxoLocked {
		t.Fatalf("Of = %v, want UtxoLocked", Of(err))
	}
	if err.SuggestedAction == "" {
		t.Fatal("WithAction should populate SuggestedAction")
	}
}

func TestOfNonErrkind(t *testing.T) {
	if Of(nil) != -1 {
		t.Fatal("Of(nil) should report an unrecognized kind")
	}
}

func TestInsufficientFundsFields(t *testing.T) {
	err := &Error{Kind: InsufficientFunds, Available: 100, Required: 500}
	if err.Error() != "InsufficientFunds" {
		t.Fatalf("Error() = %q, want the kind name as fallback message", err.Error())
	}
	if err.Available != 100 || err.Required != 500 {
		t.Fatal("Available/Required should round-trip")
	}
}
