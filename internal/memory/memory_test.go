package memory

/*
 * Elliott 903 - core store tests
 *
 * Copyright 2024, Richard Cornwell
 * Copyright 2026, Andrew Herbert
 */

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadWrite(t *testing.T) {
	s := New()
	for i := range uint32(256) {
		if err := s.Write(i, i); err != nil {
			t.Fatalf("Write(%d) failed: %v", i, err)
		}
	}
	for i := range uint32(256) {
		v, err := s.Read(i)
		if err != nil {
			t.Fatalf("Read(%d) failed: %v", i, err)
		}
		if v != i {
			t.Errorf("Read(%d) got %d, expected %d", i, v, i)
		}
	}
}

func TestWriteMasksTo18Bits(t *testing.T) {
	s := New()
	if err := s.Write(0, 0xFFFFFFFF); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	v, _ := s.Read(0)
	if v != WordMask {
		t.Errorf("Write did not mask to 18 bits, got %#x, expected %#x", v, WordMask)
	}
}

func TestOutOfRange(t *testing.T) {
	s := New()
	if _, err := s.Read(Size); err == nil {
		t.Errorf("Read(Size) should have failed")
	}
	if err := s.Write(Size+1, 0); err == nil {
		t.Errorf("Write(Size+1) should have failed")
	}
}

func TestLoadMissingFileLeavesZero(t *testing.T) {
	s := New()
	if err := s.Load(filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Fatalf("Load of missing file should not error: %v", err)
	}
	v, _ := s.Read(0)
	if v != 0 {
		t.Errorf("store should be zeroed, got %d at word 0", v)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New()
	for i := range uint32(Size) {
		if err := s.Write(i, (i*7+3)&WordMask); err != nil {
			t.Fatalf("Write(%d) failed: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "store.img")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for i := range uint32(Size) {
		want, _ := s.Read(i)
		got, _ := loaded.Read(i)
		if got != want {
			t.Errorf("word %d: got %d, expected %d", i, got, want)
		}
	}
}

func TestLoadRejectsExcessWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "too-big.img")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating test file: %v", err)
	}
	for range Size + 1 {
		if _, err := f.WriteString("0 "); err != nil {
			t.Fatalf("writing test file: %v", err)
		}
	}
	f.Close()

	s := New()
	if err := s.Load(path); err == nil {
		t.Errorf("Load should reject a store image with more than %d words", Size)
	}
}

func TestLoadRejectsMalformedWord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.img")
	if err := os.WriteFile(path, []byte("1 2 notanumber 4"), 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	s := New()
	if err := s.Load(path); err == nil {
		t.Errorf("Load should reject a malformed word")
	}
}

func TestLoadAcceptsUnvalidatedValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weird.img")
	if err := os.WriteFile(path, []byte("999999"), 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	s := New()
	if err := s.Load(path); err != nil {
		t.Fatalf("Load should accept out of range values as-is: %v", err)
	}
	if s.words[0] != 999999 {
		t.Errorf("Load should not validate/mask file values, got %d", s.words[0])
	}
}
