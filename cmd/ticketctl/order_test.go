package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ticketbot/internal/migration"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestOrderDetailIncludesPaymentEvents(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	store := newOrderStore(conn)

	_, err := store.orders.Upsert(ctx, &orderdomain.Order{
		ID:        "O2",
		ChannelID: "C2",
		UserID:    "U1",
		Product:   orderdomain.ProductSnapshot{ID: "gold-pack", Name: "Gold Pack", Price: decimal.RequireFromString("9.99")},
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	for _, eventID := range []string{"inv-1:confirm_check", "inv-1:paid"} {
		_, err := store.events.InsertEvent(ctx, conn, &paymentdomain.EventRecord{
			ID:              node.Generate(),
			Provider:        paymentdomain.ProviderCryptomus,
			ProviderEventID: eventID,
			EventType:       strings.TrimPrefix(eventID, "inv-1:"),
			OrderID:         "O2",
			Payload:         datatypes.JSON([]byte(`{}`)),
			ReceivedAt:      time.Now(),
		})
		if err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}

	detail, err := store.detail(ctx, "O2")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Order.ID != "O2" {
		t.Fatalf("unexpected order %q", detail.Order.ID)
	}
	if len(detail.PaymentEvents) != 2 {
		t.Fatalf("expected 2 payment events, got %d", len(detail.PaymentEvents))
	}
}

func TestOrderDetailUnknownOrder(t *testing.T) {
	store := newOrderStore(setupTestDB(t))
	if _, err := store.detail(context.Background(), "missing"); !errors.Is(err, orderdomain.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWriteOrderTable(t *testing.T) {
	var buf bytes.Buffer
	items := []orderdomain.Order{{
		ID:        "6f1c2a90-0000-4000-8000-000000000001",
		ChannelID: "C1",
		Status:    orderdomain.StatusPending,
		Product:   orderdomain.ProductSnapshot{Name: "Gold Pack", Price: decimal.RequireFromString("9.99")},
	}}
	if err := writeOrderTable(&buf, items); err != nil {
		t.Fatalf("write table: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"INVOICE", "6f1c2a90", "Gold Pack", "pending", "-"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.RunMigrations(sqlDB, "sqlite"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return conn
}
