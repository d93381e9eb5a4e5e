package secret

import (
	"errors"
	"testing"
)

func TestSealOpen(t *testing.T) {
	box, err := NewBox("test-key")
	if err != nil {
		t.Fatalf("NewBox() failed: %v", err)
	}

	sealed, err := box.Seal("hunter2")
	if err != nil {
		t.Fatalf("Seal() failed: %v", err)
	}
	if sealed == "hunter2" {
		t.Fatal("Seal() returned the plaintext")
	}

	again, _ := box.Seal("hunter2")
	if again == sealed {
		t.Error("Seal() should use a fresh nonce per call")
	}

	plain, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if plain != "hunter2" {
		t.Errorf("Open() = %q, want hunter2", plain)
	}
}

func TestOpenWrongKey(t *testing.T) {
	a, _ := NewBox("key-a")
	b, _ := NewBox("key-b")

	sealed, err := a.Seal("value")
	if err != nil {
		t.Fatalf("Seal() failed: %v", err)
	}
	if _, err := b.Open(sealed); !errors.Is(err, ErrOpen) {
		t.Errorf("Open() with wrong key error = %v, want ErrOpen", err)
	}
	if _, err := a.Open("not base64!"); err == nil {
		t.Error("Open() should reject invalid base64")
	}
	if _, err := a.Open("c2hvcnQ="); !errors.Is(err, ErrOpen) {
		t.Errorf("Open() of a short value error = %v, want ErrOpen", err)
	}
}

func TestNewBoxEmptyKey(t *testing.T) {
	if _, err := NewBox(""); err == nil {
		t.Error("NewBox() should reject an empty key")
	}
}

func TestSealMap(t *testing.T) {
	box, _ := NewBox("k")
	sealed, err := box.SealMap(map[string]string{"password": "p", "empty": ""})
	if err != nil {
		t.Fatalf("SealMap() failed: %v", err)
	}
	if _, ok := sealed["empty"]; ok {
		t.Error("SealMap() should skip empty values")
	}

	opened, err := box.OpenMap(sealed)
	if err != nil {
		t.Fatalf("OpenMap() failed: %v", err)
	}
	if opened["password"] != "p" || len(opened) != 1 {
		t.Errorf("OpenMap() = %v", opened)
	}
}
