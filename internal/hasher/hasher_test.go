package hasher

import (
	"crypto/sha256"
	"testing"
)

func TestHashStringMatchesStdlib(t *testing.T) {
	want := sha256.Sum256([]byte("hello"))
	got := HashString("hello")

	if len(got) != 32 {
		t.Fatalf("expected 32-byte digest, got %d bytes", len(got))
	}
	if string(got) != string(want[:]) {
		t.Fatalf("digest mismatch: got %x want %x", got, want)
	}
}

func TestHashBytesEmptyInputIsStable(t *testing.T) {
	a := HashBytes(nil)
	b := HashBytes([]byte{})

	if string(a) != string(b) {
		t.Fatalf("expected nil and empty slice to hash identically")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32-byte digest, got %d bytes", len(a))
	}
}

func TestHashStringDiffersOnDifferentInput(t *testing.T) {
	if string(HashString("a")) == string(HashString("b")) {
		t.Fatalf("expected different inputs to hash differently")
	}
}
