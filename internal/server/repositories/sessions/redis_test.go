package sessions

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/redis/go-redis/v9"
)

func newLedger(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run error: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisRepository(client), mr
}

func TestActivateIsActiveDeactivate(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	active, err := ledger.IsActive(ctx, "sig-1")
	if err != nil {
		t.Fatalf("IsActive error: %v", err)
	}
	if active {
		t.Fatal("signature must not be active before Activate")
	}

	if err := ledger.Activate(ctx, "u-1", "sig-1"); err != nil {
		t.Fatalf("Activate error: %v", err)
	}

	active, err = ledger.IsActive(ctx, "sig-1")
	if err != nil {
		t.Fatalf("IsActive error: %v", err)
	}
	if !active {
		t.Fatal("signature must be active after Activate")
	}

	if err := ledger.Deactivate(ctx, "sig-1"); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}

	active, err = ledger.IsActive(ctx, "sig-1")
	if err != nil {
		t.Fatalf("IsActive error: %v", err)
	}
	if active {
		t.Fatal("signature must not be active after Deactivate")
	}
}

func TestActivate_Idempotent(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	if err := ledger.Activate(ctx, "u-1", "sig-1"); err != nil {
		t.Fatalf("Activate error: %v", err)
	}
	if err := ledger.Activate(ctx, "u-1", "sig-1"); err != nil {
		t.Fatalf("second Activate error: %v", err)
	}

	active, err := ledger.IsActive(ctx, "sig-1")
	if err != nil || !active {
		t.Fatalf("IsActive = %v, %v", active, err)
	}
}

func TestDeactivate_UnknownSignatureIsNoop(t *testing.T) {
	ledger, _ := newLedger(t)

	if err := ledger.Deactivate(context.Background(), "never-seen"); err != nil {
		t.Fatalf("Deactivate of unknown signature must succeed, got %v", err)
	}
}

func TestSessions_IndependentSignatures(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	// two logins of the same user are separate sessions
	if err := ledger.Activate(ctx, "u-1", "sig-a"); err != nil {
		t.Fatalf("Activate error: %v", err)
	}
	if err := ledger.Activate(ctx, "u-1", "sig-b"); err != nil {
		t.Fatalf("Activate error: %v", err)
	}

	if err := ledger.Deactivate(ctx, "sig-a"); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}

	active, err := ledger.IsActive(ctx, "sig-b")
	if err != nil || !active {
		t.Fatalf("sig-b must stay active, got %v, %v", active, err)
	}
}

func TestStorageUnavailable(t *testing.T) {
	ledger, mr := newLedger(t)
	mr.Close()

	_, err := ledger.IsActive(context.Background(), "sig-1")
	if !errors.Is(err, common.ErrorStorageUnavailable) {
		t.Fatalf("want ErrorStorageUnavailable, got %v", err)
	}

	if err := ledger.Activate(context.Background(), "u-1", "sig-1"); !errors.Is(err, common.ErrorStorageUnavailable) {
		t.Fatalf("want ErrorStorageUnavailable, got %v", err)
	}
}
