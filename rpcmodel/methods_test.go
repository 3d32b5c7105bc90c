package rpcmodel

import (
	"encoding/json"
	"testing"
)

func TestBlockchainInfoRoundTrip(t *testing.T) {
	want := BlockchainInfo{
		Height:         42,
		BestHash:       "deadbeef",
		Difficulty:     1.5,
		Network:        "regtest",
		SyncPercentage: 100,
	}

	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got BlockchainInfo
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestMempoolInfoRoundTrip(t *testing.T) {
	want := MempoolInfo{Count: 3, Bytes: 9000, MinFeeRate: 10}

	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got MempoolInfo
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}
