package inmemkv

import "testing"

func TestStorageRoundTrip(t *testing.T) {
	storage := NewStorage()

	if _, ok, err := storage.Get("k"); err != nil || ok {
		t.Fatalf("Get() on fresh storage = ok %v, err %v; want absent", ok, err)
	}

	if err := storage.Set("k", "v1"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := storage.Set("k", "v2"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	val, ok, err := storage.Get("k")
	if err != nil || !ok || val != "v2" {
		t.Errorf("Get() = %q, %v, %v; want v2", val, ok, err)
	}

	if err = storage.Delete("k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok, _ = storage.Get("k"); ok {
		t.Error("Get() found a deleted key")
	}
}
