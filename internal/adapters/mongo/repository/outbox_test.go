package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mzawadzki/storekeeper/internal/adapters/mongo/repository"
	"github.com/mzawadzki/storekeeper/internal/adapters/outbox"
	"github.com/mzawadzki/storekeeper/internal/core/domain"
)

func TestOutboxRepository_Enqueue(t *testing.T) {
	freshDB := testClient.Database("test_outbox_enqueue")
	repo := repository.NewOutboxRepository(freshDB)
	ctx := context.Background()

	t.Run("serializes the domain event", func(t *testing.T) {
		event := &domain.StockPurchasedEvent{
			ProductName: "chleb",
			UnitPrice:   350,
			Quantity:    4,
			Total:       1400,
			OccurredAt:  time.Now(),
		}

		if err := repo.Enqueue(ctx, event); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries, err := repo.FetchPending(ctx, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].EventName != event.GetName() {
			t.Fatalf("expected event name %q, got %q", event.GetName(), entries[0].EventName)
		}

		var payload map[string]any
		if err := json.Unmarshal(entries[0].EventData, &payload); err != nil {
			t.Fatalf("stored payload is not valid json: %v", err)
		}
	})
}

func TestOutboxRepository_FetchPending(t *testing.T) {
	freshDB := testClient.Database("test_outbox_fetch")
	repo := repository.NewOutboxRepository(freshDB)
	ctx := context.Background()

	t.Run("returns empty when no entries", func(t *testing.T) {
		entries, err := repo.FetchPending(ctx, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected 0 entries, got %d", len(entries))
		}
	})

	t.Run("respects the limit in insertion order", func(t *testing.T) {
		_ = repo.Insert(ctx, outbox.Entry{EventName: "evt.1", EntityName: "store", EventData: []byte(`{}`)})
		_ = repo.Insert(ctx, outbox.Entry{EventName: "evt.2", EntityName: "store", EventData: []byte(`{}`)})
		_ = repo.Insert(ctx, outbox.Entry{EventName: "evt.3", EntityName: "store", EventData: []byte(`{}`)})

		entries, err := repo.FetchPending(ctx, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].EventName != "evt.1" || entries[1].EventName != "evt.2" {
			t.Fatalf("expected [evt.1 evt.2], got [%s %s]", entries[0].EventName, entries[1].EventName)
		}
		for i, e := range entries {
			if e.ID == "" {
				t.Fatalf("entry[%d] has empty ID", i)
			}
		}
	})
}

func TestOutboxRepository_Delete(t *testing.T) {
	freshDB := testClient.Database("test_outbox_delete")
	repo := repository.NewOutboxRepository(freshDB)
	ctx := context.Background()

	t.Run("deletes a published entry", func(t *testing.T) {
		_ = repo.Insert(ctx, outbox.Entry{EventName: "evt.1", EntityName: "store", EventData: []byte(`{}`)})

		entries, _ := repo.FetchPending(ctx, 10)
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}

		if err := repo.Delete(ctx, entries[0].ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries, _ = repo.FetchPending(ctx, 10)
		if len(entries) != 0 {
			t.Fatalf("expected 0 entries after delete, got %d", len(entries))
		}
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		if err := repo.Delete(ctx, "not-a-hex-id"); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
