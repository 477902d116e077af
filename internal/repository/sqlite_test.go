package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/xiaot623/gogo/widget/internal/customization"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCustomizationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.GetCustomization(ctx, "agent-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	c := customization.Default()
	c.HeaderTitle = "Acme support"
	if err := store.SaveCustomization(ctx, "agent-1", c); err != nil {
		t.Fatalf("SaveCustomization failed: %v", err)
	}

	got, err := store.GetCustomization(ctx, "agent-1")
	if err != nil {
		t.Fatalf("GetCustomization failed: %v", err)
	}
	if *got != c {
		t.Fatalf("unexpected customization: %+v", got)
	}

	c.BorderRadius = 0
	c.PrimaryColor = "#000"
	if err := store.SaveCustomization(ctx, "agent-1", c); err != nil {
		t.Fatalf("second SaveCustomization failed: %v", err)
	}
	got, _ = store.GetCustomization(ctx, "agent-1")
	if got.BorderRadius != 0 || got.PrimaryColor != "#000" {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestHandoffs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	handedOff, err := store.IsHandedOff(ctx, "s1")
	if err != nil || handedOff {
		t.Fatalf("expected no handoff, got %v (%v)", handedOff, err)
	}

	h, err := store.CreateHandoff(ctx, "s1")
	if err != nil {
		t.Fatalf("CreateHandoff failed: %v", err)
	}
	if h.SessionID != "s1" || h.HandoffID == "" {
		t.Fatalf("unexpected handoff: %+v", h)
	}
	if _, err := store.CreateHandoff(ctx, "s1"); err != nil {
		t.Fatalf("CreateHandoff failed: %v", err)
	}

	list, err := store.ListHandoffs(ctx, "s1")
	if err != nil {
		t.Fatalf("ListHandoffs failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 handoffs, got %d", len(list))
	}

	handedOff, _ = store.IsHandedOff(ctx, "s1")
	if !handedOff {
		t.Fatal("expected session to be handed off")
	}
	handedOff, _ = store.IsHandedOff(ctx, "s2")
	if handedOff {
		t.Fatal("expected other session untouched")
	}
}
