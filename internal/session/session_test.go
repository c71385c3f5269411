package session

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIdentityRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveIdentity(Identity{UserID: 42, Role: "Public"}); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	id, err := s.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if id.UserID != 42 || id.Role != "Public" {
		t.Errorf("identity = %+v", id)
	}
}

func TestIdentityBeforeLogin(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Identity(); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("err = %v, want ErrNoIdentity", err)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveIdentity(Identity{UserID: 7, Role: "Recycling Center"}); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Identity(); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("err after Clear = %v, want ErrNoIdentity", err)
	}
}

func TestSetItemOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetItem("theme", "light"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if err := s.SetItem("theme", "dark"); err != nil {
		t.Fatalf("SetItem overwrite: %v", err)
	}
	got, err := s.GetItem("theme")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != "dark" {
		t.Errorf("value = %q, want %q", got, "dark")
	}
}

func TestIdentityWithoutUserIDIsNoIdentity(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetItem(identityKey, `{"role":"Public"}`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if _, err := s.Identity(); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("err = %v, want ErrNoIdentity", err)
	}
}

func TestCorruptIdentityBlob(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetItem(identityKey, "not-json"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	_, err := s.Identity()
	if err == nil || errors.Is(err, ErrNoIdentity) {
		t.Errorf("err = %v, want a corrupt-blob error", err)
	}
}
