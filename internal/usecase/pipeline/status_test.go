package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/studyhall-app/studyhall/internal/entity"
)

func recvUpdate(t *testing.T, ch <-chan entity.ProcessingUpdate) (entity.ProcessingUpdate, bool) {
	t.Helper()
	select {
	case u, ok := <-ch:
		return u, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status update")
		return entity.ProcessingUpdate{}, false
	}
}

func TestStatusHubStatus(t *testing.T) {
	hub := NewStatusHub(time.Hour)
	hub.Publish(entity.ProcessingUpdate{
		DocumentID: "doc-1",
		Status:     entity.StatusQueued,
		Progress:   0,
		Message:    "Queued for processing",
	})

	got, err := hub.Status("doc-1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.Status != entity.StatusQueued {
		t.Errorf("status = %v, want %v", got.Status, entity.StatusQueued)
	}
	if got.Message != "Queued for processing" {
		t.Errorf("message = %q", got.Message)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be stamped on publish")
	}
}

func TestStatusHubUnknownDocument(t *testing.T) {
	hub := NewStatusHub(time.Hour)
	if _, err := hub.Status("missing"); !errors.Is(err, entity.ErrStatusNotFound) {
		t.Fatalf("Status() error = %v, want ErrStatusNotFound", err)
	}
	if _, err := hub.Watch(context.Background(), "missing"); !errors.Is(err, entity.ErrStatusNotFound) {
		t.Fatalf("Watch() error = %v, want ErrStatusNotFound", err)
	}
}

func TestStatusHubLatestUpdateWins(t *testing.T) {
	hub := NewStatusHub(time.Hour)
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusQueued})
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusExtracting, Progress: 40})

	got, err := hub.Status("doc-1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.Status != entity.StatusExtracting || got.Progress != 40 {
		t.Errorf("got %v/%d, want extracting/40", got.Status, got.Progress)
	}
}

func TestStatusHubExpiry(t *testing.T) {
	hub := NewStatusHub(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	hub.clock = func() time.Time { return now }

	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusComplete})
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-2", Status: entity.StatusError})

	now = now.Add(30 * time.Second)
	if _, err := hub.Status("doc-1"); err != nil {
		t.Fatalf("Status() before expiry error = %v", err)
	}
	if n := hub.Sweep(); n != 0 {
		t.Fatalf("Sweep() before expiry = %d, want 0", n)
	}

	now = now.Add(time.Minute)
	if _, err := hub.Status("doc-1"); !errors.Is(err, entity.ErrStatusNotFound) {
		t.Fatalf("Status() after expiry error = %v, want ErrStatusNotFound", err)
	}
	if n := hub.Sweep(); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if n := hub.Sweep(); n != 0 {
		t.Fatalf("second Sweep() = %d, want 0", n)
	}
}

func TestStatusHubWatchDeliversUpdatesInOrder(t *testing.T) {
	hub := NewStatusHub(time.Hour)
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusQueued})

	ch, err := hub.Watch(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusExtracting, Progress: 40})
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusSummarizing, Progress: 70})
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusComplete, Progress: 100})

	want := []entity.ProcessingStatus{
		entity.StatusQueued,
		entity.StatusExtracting,
		entity.StatusSummarizing,
		entity.StatusComplete,
	}
	for i, status := range want {
		u, ok := recvUpdate(t, ch)
		if !ok {
			t.Fatalf("channel closed after %d updates, want %d", i, len(want))
		}
		if u.Status != status {
			t.Fatalf("update %d status = %v, want %v", i, u.Status, status)
		}
	}
	if _, ok := recvUpdate(t, ch); ok {
		t.Fatal("expected channel to close after terminal update")
	}
}

func TestStatusHubWatchTerminalDeliversAndCloses(t *testing.T) {
	hub := NewStatusHub(time.Hour)
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusError, Message: "boom"})

	ch, err := hub.Watch(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	u, ok := recvUpdate(t, ch)
	if !ok {
		t.Fatal("expected current status before close")
	}
	if u.Status != entity.StatusError || u.Message != "boom" {
		t.Errorf("got %v %q, want error boom", u.Status, u.Message)
	}
	if _, ok := recvUpdate(t, ch); ok {
		t.Fatal("expected channel to close after terminal status")
	}
}

func TestStatusHubWatchCancel(t *testing.T) {
	hub := NewStatusHub(time.Hour)
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusQueued})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := hub.Watch(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if _, ok := recvUpdate(t, ch); !ok {
		t.Fatal("expected initial status delivery")
	}

	cancel()
	if _, ok := recvUpdate(t, ch); ok {
		t.Fatal("expected channel to close after context cancel")
	}
}

func TestStatusHubDrop(t *testing.T) {
	hub := NewStatusHub(time.Hour)
	hub.Publish(entity.ProcessingUpdate{DocumentID: "doc-1", Status: entity.StatusQueued})

	ch, err := hub.Watch(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if _, ok := recvUpdate(t, ch); !ok {
		t.Fatal("expected initial status delivery")
	}

	hub.Drop("doc-1")
	if _, ok := recvUpdate(t, ch); ok {
		t.Fatal("expected channel to close on drop")
	}
	if _, err := hub.Status("doc-1"); !errors.Is(err, entity.ErrStatusNotFound) {
		t.Fatalf("Status() after drop error = %v, want ErrStatusNotFound", err)
	}
}
