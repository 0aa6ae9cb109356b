package utils

import (
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	got := SplitList(" Greece, ,New Zealand,")
	want := []string{"Greece", "New Zealand"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitList = %#v, want %#v", got, want)
	}
	if SplitList("") != nil {
		t.Fatalf("expected nil for an empty value")
	}
}

func TestIsHTTPURL(t *testing.T) {
	for in, want := range map[string]bool{
		"http://localhost:5000": true,
		"https://fires.example": true,
		"localhost:5000":        false,
		"ftp://fires.example":   false,
		"http://":               false,
	} {
		if got := IsHTTPURL(in); got != want {
			t.Fatalf("IsHTTPURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLock(t *testing.T) {
	dir := t.TempDir()
	a, err := NewSetupLock(dir, "setup")
	if err != nil {
		t.Fatalf("NewSetupLock: %v", err)
	}
	b, _ := NewSetupLock(dir, "setup")
	if a.Path() != b.Path() {
		t.Fatalf("locks with the same name should share a file")
	}

	if err := a.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if ok, err := b.TryLock(); err != nil || ok {
		t.Fatalf("second TryLock should fail while held, got %v, %v", ok, err)
	}
	if err := a.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if ok, err := b.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock after release = %v, %v", ok, err)
	}
	b.Unlock()
}
