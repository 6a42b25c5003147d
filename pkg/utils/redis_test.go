package utils

import (
	"context"
	"testing"
	"time"
)

func TestSlotScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if slotAcquireScript == nil || slotReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestSlotKey(t *testing.T) {
	got := SlotKey("ws1", "u1", "video")
	want := "slot:ws1:u1:video"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAcquireSlot_RejectsInvalidArgs(t *testing.T) {
	if _, err := AcquireSlot(context.Background(), nil, "k", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
