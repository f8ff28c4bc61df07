package storage

import (
	"strings"
	"testing"
)

func TestStoreSaveAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	data := []byte{0x89, 'P', 'N', 'G'}
	key, err := store.Save(data, "image/png")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("key = %q, want .png suffix", key)
	}

	got, err := store.Open(key)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("Open = %v, want %v", got, data)
	}
}

func TestStoreRejectsEmptyData(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Save(nil, "image/png"); err == nil {
		t.Fatal("Save should reject empty data")
	}
}

func TestStoreRejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Open("../../etc/passwd"); err == nil {
		t.Fatal("Open should reject path traversal")
	}
}

func TestExtensionForMIME(t *testing.T) {
	tests := map[string]string{
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
		"image/jpeg": ".jpg",
		"":           ".jpg",
	}
	for mime, want := range tests {
		if got := ExtensionForMIME(mime); got != want {
			t.Fatalf("ExtensionForMIME(%q) = %q, want %q", mime, got, want)
		}
	}
}
