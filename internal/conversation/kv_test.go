package conversation

import (
	"path/filepath"
	"testing"
	"time"
)

// kvConformance runs the shared contract against any backend.
func kvConformance(t *testing.T, kv KV) {
	t.Helper()

	if _, ok, err := kv.Get("absent"); ok || err != nil {
		t.Errorf("Get(absent) = (%v, %v), want (false, nil)", ok, err)
	}

	if err := kv.SetWithTTL("k", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	got, ok, err := kv.Get("k")
	if err != nil || !ok || string(got) != "v1" {
		t.Errorf("Get(k) = (%q, %v, %v), want v1", got, ok, err)
	}

	// Replace resets the value.
	if err := kv.SetWithTTL("k", []byte("v2"), time.Hour); err != nil {
		t.Fatal(err)
	}
	got, _, _ = kv.Get("k")
	if string(got) != "v2" {
		t.Errorf("after replace Get(k) = %q, want v2", got)
	}

	exists, err := kv.Exists("k")
	if err != nil || !exists {
		t.Errorf("Exists(k) = (%v, %v), want true", exists, err)
	}

	if err := kv.Delete("k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get("k"); ok {
		t.Error("key should be gone after Delete")
	}
	if err := kv.Delete("k"); err != nil {
		t.Errorf("deleting an absent key should not error: %v", err)
	}
}

func TestMemoryKVConformance(t *testing.T) {
	kvConformance(t, NewMemoryKV())
}

func TestSQLiteKVConformance(t *testing.T) {
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "conv.db"))
	if err != nil {
		t.Fatalf("NewSQLiteKV: %v", err)
	}
	defer kv.Close()
	kvConformance(t, kv)
}

func TestMemoryKVExpiry(t *testing.T) {
	kv := NewMemoryKV()
	current := time.Now()
	kv.now = func() time.Time { return current }

	if err := kv.SetWithTTL("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := kv.Get("k"); !ok {
		t.Fatal("key should be live before expiry")
	}

	current = current.Add(2 * time.Minute)
	if _, ok, _ := kv.Get("k"); ok {
		t.Error("key should be gone after the TTL elapses")
	}
	if exists, _ := kv.Exists("k"); exists {
		t.Error("Exists should agree with Get on expiry")
	}
}

func TestMemoryKVTTLRefresh(t *testing.T) {
	kv := NewMemoryKV()
	current := time.Now()
	kv.now = func() time.Time { return current }

	kv.SetWithTTL("k", []byte("v"), time.Minute)
	current = current.Add(45 * time.Second)
	// Rewrite pushes the expiry out from now.
	kv.SetWithTTL("k", []byte("v"), time.Minute)
	current = current.Add(45 * time.Second)

	if _, ok, _ := kv.Get("k"); !ok {
		t.Error("rewrite should have refreshed the TTL")
	}
}

func TestSQLiteKVSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv.db")

	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.SetWithTTL("persistent", []byte("value"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}

	kv, err = NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	got, ok, err := kv.Get("persistent")
	if err != nil || !ok || string(got) != "value" {
		t.Errorf("after reopen Get = (%q, %v, %v), want value", got, ok, err)
	}
}
