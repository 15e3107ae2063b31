// internal/state/session_test.go
package state

import (
	"context"
	"testing"

	"github.com/user/spikeclust/internal/types"
)

func TestSessionStore(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir)
	ctx := context.Background()

	// Test create
	id := types.NewSessionID()
	if err := store.Create(ctx, &types.SessionIndex{SessionID: id, Dataset: "a.yaml", Spikes: 5}); err != nil {
		t.Fatal(err)
	}

	// Test get
	session, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.Dataset != "a.yaml" || session.Status != "active" {
		t.Errorf("unexpected session %+v", session)
	}

	// Test duplicate create
	if err := store.Create(ctx, &types.SessionIndex{SessionID: id}); err == nil {
		t.Error("expected error creating a duplicate session")
	}

	// Test update
	session.Status = "closed"
	if err := store.Update(ctx, session); err != nil {
		t.Fatal(err)
	}
	session, err = store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.Status != "closed" {
		t.Errorf("expected status closed, got %s", session.Status)
	}
}

func TestSessionStoreList(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	ctx := context.Background()

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty index, got %d", len(list))
	}

	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := store.Create(ctx, &types.SessionIndex{SessionID: types.NewSessionID(), Dataset: name}); err != nil {
			t.Fatal(err)
		}
	}
	list, err = store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
}

func TestSessionStoreUpdateUnknown(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	err := store.Update(context.Background(), &types.SessionIndex{SessionID: "missing"})
	if err == nil {
		t.Fatal("expected error updating unknown session")
	}
}
