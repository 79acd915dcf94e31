package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/smallbiznis/ticketbot/internal/config"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	"github.com/smallbiznis/ticketbot/internal/order/repository"
	"github.com/smallbiznis/ticketbot/internal/order/service"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/ticketbot/internal/payment/repository"
	"github.com/smallbiznis/ticketbot/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Inspect stored orders",
	}
	cmd.AddCommand(orderGetCmd())
	cmd.AddCommand(orderListCmd())
	return cmd
}

func orderGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [order-id]",
		Short: "Print one order and its recorded payment events as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			detail, err := store.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(detail)
		},
	}
}

func orderListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a buyer's orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			store, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			items, err := store.orders.ListByUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return writeOrderTable(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringP("user", "u", "", "Discord user ID of the buyer")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func writeOrderTable(out io.Writer, items []orderdomain.Order) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INVOICE\tSTATUS\tPRODUCT\tAMOUNT\tPROVIDER\tCHANNEL\tCREATED")
	for _, o := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.InvoiceID(), o.Status, o.Product.Name, o.DisplayAmount(),
			valueOrDash(o.Payment.Provider), o.ChannelID, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

type orderStore struct {
	db     *gorm.DB
	orders orderdomain.Service
	events paymentdomain.Repository
}

type orderDetail struct {
	Order         *orderdomain.Order           `json:"order"`
	PaymentEvents []*paymentdomain.EventRecord `json:"payment_events"`
}

func newOrderStore(conn *gorm.DB) *orderStore {
	orders := service.New(service.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: clock.SystemClock{},
		Repo:  repository.Provide(),
	})
	return &orderStore{db: conn, orders: orders, events: paymentrepo.Provide()}
}

func (s *orderStore) detail(ctx context.Context, id string) (*orderDetail, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByOrder(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*paymentdomain.EventRecord{}
	}
	return &orderDetail{Order: order, PaymentEvents: events}, nil
}

func openStore() (*orderStore, func(), error) {
	cfg := config.Load()
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return newOrderStore(conn), closeDB, nil
}
