package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if store.Get().Active() {
		t.Fatal("fresh store should hold no session")
	}

	sess := Session{Token: "tok-123", Role: "supervisor", Email: "s@guild.test", UserID: 9}
	if err := store.Set(sess); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// A second store over the same path sees the persisted session, the way
	// a new CLI invocation would.
	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	if got := reopened.Get(); got != sess {
		t.Errorf("persisted session mismatch: got %+v want %+v", got, sess)
	}
}

func TestClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Set(Session{Token: "tok", Role: "supervisor"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if store.Get().Active() {
		t.Error("session still active after clear")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file should be removed on logout")
	}
}

func TestSubscribersNotified(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	var seen []Session
	store.Subscribe(func(s Session) { seen = append(seen, s) })

	if err := store.Set(Session{Token: "tok", Role: "alquimista"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	store.Invalidate()

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if !seen[0].Active() || seen[1].Active() {
		t.Errorf("expected login then logout notifications, got %+v", seen)
	}
}

func TestCorruptFileTreatedAsLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("corrupt file should not be fatal: %v", err)
	}
	if store.Get().Active() {
		t.Error("corrupt session file must read as logged out")
	}
}

func TestCanMutate(t *testing.T) {
	cases := []struct {
		name string
		sess Session
		want bool
	}{
		{"supervisor", Session{Token: "t", Role: "supervisor"}, true},
		{"alquimista", Session{Token: "t", Role: "alquimista"}, false},
		{"no session", Session{}, false},
		{"role without token", Session{Role: "supervisor"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanMutate(tc.sess); got != tc.want {
				t.Errorf("CanMutate(%+v) = %v, want %v", tc.sess, got, tc.want)
			}
		})
	}
}
