package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/valter-silva-au/planwise/pkg/models"
)

func TestSessionManager_LoadMissingFile(t *testing.T) {
	mgr := NewSessionManager(t.TempDir())
	if err := mgr.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := mgr.Get(); s.IsAuthenticated() {
		t.Errorf("session = %+v, want logged out", s)
	}
	if mgr.Token() != "" {
		t.Error("Token() not empty")
	}
}

func TestSessionManager_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	mgr := NewSessionManager(dir)
	mgr.Set(models.Session{Token: "tok-1", UserID: "u1", Email: "me@example.com", Username: "me"})
	if err := mgr.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "session.yaml"))
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("permissions = %o, want 600", perm)
		}
	}

	reloaded := NewSessionManager(dir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.Get()
	if got.Token != "tok-1" || got.Email != "me@example.com" || got.UserID != "u1" {
		t.Errorf("session = %+v", got)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not stamped")
	}
	if reloaded.Token() != "tok-1" {
		t.Errorf("Token() = %q", reloaded.Token())
	}
}

func TestSessionManager_SetKeepsExplicitTimestamp(t *testing.T) {
	mgr := NewSessionManager(t.TempDir())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr.Set(models.Session{Token: "x", SavedAt: at})
	if got := mgr.Get().SavedAt; !got.Equal(at) {
		t.Errorf("SavedAt = %s, want %s", got, at)
	}
}

func TestSessionManager_Clear(t *testing.T) {
	dir := t.TempDir()
	mgr := NewSessionManager(dir)
	mgr.Set(models.Session{Token: "tok"})
	if err := mgr.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := mgr.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if mgr.Token() != "" {
		t.Error("token survived Clear")
	}
	if _, err := os.Stat(filepath.Join(dir, "session.yaml")); !os.IsNotExist(err) {
		t.Errorf("session file still present: %v", err)
	}
	if err := mgr.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestSessionManager_LoadMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "session.yaml"), []byte("token: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := NewSessionManager(dir).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
