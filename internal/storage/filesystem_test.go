package storage

import (
	"context"
	"errors"
	"testing"

	"cardsmith/internal/domain"
)

func TestFileStoreWriteRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "uploads/session-1/img-1.png", []byte("payload"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if key != "uploads/session-1/img-1.png" {
		t.Fatalf("unexpected key: %s", key)
	}

	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected data: %s", data)
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	if _, err := store.Read(context.Background(), "uploads/none.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	if _, err := store.Write(context.Background(), "../escape.png", []byte("x")); err == nil {
		t.Fatalf("expected traversal rejection")
	}
	if _, err := store.Write(context.Background(), "", []byte("x")); err == nil {
		t.Fatalf("expected empty key rejection")
	}
}

func TestFileStoreRemove(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Write(ctx, "uploads/img.png", []byte("x")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := store.Remove(ctx, "uploads/img.png"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := store.Read(ctx, "uploads/img.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	// Removing again is not an error.
	if err := store.Remove(ctx, "uploads/img.png"); err != nil {
		t.Fatalf("second Remove error: %v", err)
	}
}
