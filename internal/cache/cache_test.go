package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	// Create a mini Redis server for testing
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewCacheUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	host, port := mr.Host(), mr.Server().Addr().Port
	mr.Close()

	if _, err := NewCache(host, port, "", 0); err == nil {
		t.Error("Expected error connecting to closed server")
	}
}

func TestCache_ClipOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	clip := &models.ClipArtifact{
		ID:       "2b1c6f5e-0000-4000-8000-000000000001",
		VideoID:  "dQw4w9WgXcQ",
		Path:     "/uploads/clip_2b1c6f5e-0000-4000-8000-000000000001.mp4",
		Size:     4096,
		Duration: 30,
		Method:   models.ExtractMethodCopy,
	}

	if err := cache.SetClip(ctx, clip, time.Hour); err != nil {
		t.Fatalf("SetClip failed: %v", err)
	}

	got, err := cache.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatalf("GetClip failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected clip, got nil")
	}
	if got.Path != clip.Path || got.VideoID != clip.VideoID || got.Size != clip.Size {
		t.Errorf("Clip mismatch: got %+v, want %+v", got, clip)
	}

	// Expiry
	mr.FastForward(2 * time.Hour)
	got, err = cache.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatalf("GetClip after expiry failed: %v", err)
	}
	if got != nil {
		t.Error("Expected clip to expire")
	}
}

func TestCache_DeleteClip(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	clip := &models.ClipArtifact{ID: "c1", Path: "/tmp/clip_c1.mp4"}

	if err := cache.SetClip(ctx, clip, time.Hour); err != nil {
		t.Fatalf("SetClip failed: %v", err)
	}
	if err := cache.DeleteClip(ctx, clip.ID); err != nil {
		t.Fatalf("DeleteClip failed: %v", err)
	}

	exists, err := cache.Exists(ctx, "clip:c1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Expected clip key to be removed")
	}
}

func TestCache_Locking(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	ok, err := cache.AcquireLock(ctx, "video:dQw4w9WgXcQ", "token-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = cache.AcquireLock(ctx, "video:dQw4w9WgXcQ", "token-b", time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if ok {
		t.Error("Expected second acquire to fail while held")
	}

	if err := cache.ReleaseLock(ctx, "video:dQw4w9WgXcQ", "token-b"); err != ErrLockNotHeld {
		t.Errorf("Expected ErrLockNotHeld for foreign token, got %v", err)
	}

	if err := cache.ReleaseLock(ctx, "video:dQw4w9WgXcQ", "token-a"); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}

	ok, err = cache.AcquireLock(ctx, "video:dQw4w9WgXcQ", "token-b", time.Minute)
	if err != nil || !ok {
		t.Errorf("Expected acquire after release to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestCache_LockExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	if ok, _ := cache.AcquireLock(ctx, "r", "t1", time.Second); !ok {
		t.Fatal("Expected acquire to succeed")
	}
	mr.FastForward(2 * time.Second)

	if ok, _ := cache.AcquireLock(ctx, "r", "t2", time.Second); !ok {
		t.Error("Expected acquire to succeed after TTL")
	}
}
