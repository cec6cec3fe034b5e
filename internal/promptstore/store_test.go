package promptstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStore_MissReturnsDummyTemplate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "prompts.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, err := s.Get(context.Background(), "does_not_exist")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	want := "ERROR: Prompt 'does_not_exist' not found."
	if got != want {
		t.Fatalf("Get = %q, want %q", got, want)
	}
}

func TestFileStore_UpdateRequiresExistingKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	ok, err := s.Update(ctx, "router_prompt", "new template")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ok {
		t.Fatalf("expected Update to fail for unregistered name")
	}

	if err := s.Register(ctx, "router_prompt", "original template"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ok, err = s.Update(ctx, "router_prompt", "new template")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !ok {
		t.Fatalf("expected Update to succeed after Register")
	}

	got, err := s.Get(ctx, "router_prompt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "new template" {
		t.Fatalf("Get = %q, want %q", got, "new template")
	}

	// Reopening from disk should see the persisted update.
	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen NewFileStore: %v", err)
	}
	got2, err := s2.Get(ctx, "router_prompt")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got2 != "new template" {
		t.Fatalf("Get after reopen = %q, want %q", got2, "new template")
	}
}
