package blob

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemStoreGet(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	got, err := store.Get(context.Background(), "model.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("{}")) {
		t.Fatalf("unexpected content %q", got)
	}

	got, err = store.Get(context.Background(), filepath.Join(store.Dir(), "model.json"))
	if err != nil || len(got) != 2 {
		t.Fatalf("absolute key inside root should resolve: %v", err)
	}
}

func TestFilesystemStoreNotFound(t *testing.T) {
	store, _ := NewFilesystemStore(t.TempDir())
	_, err := store.Get(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemStoreRejectsEscape(t *testing.T) {
	store, _ := NewFilesystemStore(t.TempDir())
	for _, key := range []string{"../secret", "/etc/passwd"} {
		if _, err := store.Get(context.Background(), key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestFilesystemStoreCanceledContext(t *testing.T) {
	store, _ := NewFilesystemStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Get(ctx, "model.json"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewStoreDrivers(t *testing.T) {
	if _, err := NewStore(context.Background(), Config{Directory: t.TempDir()}); err != nil {
		t.Fatalf("filesystem driver: %v", err)
	}
	if _, err := NewStore(context.Background(), Config{Driver: "s3"}); err == nil {
		t.Fatal("expected error for s3 without bucket")
	}
	if _, err := NewStore(context.Background(), Config{Driver: "gcs"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestS3StoreGet(t *testing.T) {
	bucket := os.Getenv("S3_TEST_BUCKET")
	region := os.Getenv("S3_TEST_REGION")
	key := os.Getenv("S3_TEST_KEY")
	if bucket == "" || region == "" || key == "" {
		t.Skip("S3_TEST_BUCKET, S3_TEST_REGION or S3_TEST_KEY not set")
	}
	store, err := NewS3Store(context.Background(), bucket, region, "")
	if err != nil {
		t.Fatalf("NewS3Store failed: %v", err)
	}
	if _, err := store.Get(context.Background(), key); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}
