package driver

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ms := NewMemoryStore()

	if err := ms.SetEX("token", "tok-1", 0); err != nil {
		t.Fatalf("SetEX() error = %v", err)
	}
	got, err := ms.Get("token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "tok-1" {
		t.Fatalf("Get() = %q, want tok-1", got)
	}

	ok, err := ms.Exists("token")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v, want true", ok, err)
	}
}

func TestMemoryStoreMissingKey(t *testing.T) {
	ms := NewMemoryStore()

	if _, err := ms.Get("absent"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get() error = %v, want ErrKeyNotFound", err)
	}
	if ok, _ := ms.Exists("absent"); ok {
		t.Fatal("Exists() = true for a missing key")
	}
}

func TestMemoryStoreDel(t *testing.T) {
	ms := NewMemoryStore()
	ms.SetEX("a", "1", 0)
	ms.SetEX("b", "2", 0)

	if err := ms.Del("a", "b", "c"); err != nil {
		t.Fatalf("Del() error = %v", err)
	}
	if _, err := ms.Get("a"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatal("key a survived Del")
	}
	if _, err := ms.Get("b"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatal("key b survived Del")
	}
}

func TestMemoryStoreExpiration(t *testing.T) {
	ms := NewMemoryStore()
	ms.SetEX("short", "v", time.Nanosecond)
	time.Sleep(time.Millisecond)

	if _, err := ms.Get("short"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatal("expired key must behave like a missing key")
	}
}
