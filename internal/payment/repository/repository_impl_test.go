package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/ticketbot/internal/migration"
	"github.com/smallbiznis/ticketbot/internal/payment/domain"
	"github.com/smallbiznis/ticketbot/internal/payment/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestInsertEventReportsDuplicates(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.Provide()
	node := newNode(t)

	first := newEvent(node, "stripe", "evt_1", "O1", time.Now())
	inserted, err := repo.InsertEvent(ctx, db, first)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}

	again := newEvent(node, "stripe", "evt_1", "O1", time.Now())
	inserted, err = repo.InsertEvent(ctx, db, again)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatalf("expected duplicate provider event to be skipped")
	}

	other := newEvent(node, "cryptomus", "evt_1", "O1", time.Now())
	if inserted, err := repo.InsertEvent(ctx, db, other); err != nil || !inserted {
		t.Fatalf("same id from another provider: inserted=%v err=%v", inserted, err)
	}
}

func TestListByOrderReturnsOldestFirst(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.Provide()
	node := newNode(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []*domain.EventRecord{
		newEvent(node, "cryptomus", "inv-1:paid", "O2", base.Add(time.Minute)),
		newEvent(node, "cryptomus", "inv-1:confirm_check", "O2", base),
		newEvent(node, "stripe", "evt_9", "O9", base),
	}
	for _, ev := range events {
		if _, err := repo.InsertEvent(ctx, db, ev); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := repo.MarkProcessed(ctx, db, events[0].ID, base.Add(2*time.Minute)); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	items, err := repo.ListByOrder(ctx, db, "O2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 events for O2, got %d", len(items))
	}
	if items[0].ProviderEventID != "inv-1:confirm_check" || items[1].ProviderEventID != "inv-1:paid" {
		t.Fatalf("unexpected order: %s, %s", items[0].ProviderEventID, items[1].ProviderEventID)
	}
	if items[1].ProcessedAt == nil || items[0].ProcessedAt != nil {
		t.Fatalf("processed_at not round-tripped: %+v %+v", items[0].ProcessedAt, items[1].ProcessedAt)
	}
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func newEvent(node *snowflake.Node, provider, eventID, orderID string, at time.Time) *domain.EventRecord {
	return &domain.EventRecord{
		ID:              node.Generate(),
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       "test",
		OrderID:         orderID,
		Payload:         datatypes.JSON([]byte(`{}`)),
		ReceivedAt:      at,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.RunMigrations(sqlDB, "sqlite"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
