package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ticketbot/internal/config"
	"github.com/smallbiznis/ticketbot/internal/payment/adapters/cryptomus"
	"github.com/smallbiznis/ticketbot/internal/payment/adapters/stripe"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	orderID string
	amount  string
	status  string
	baseURL string
	dryRun  bool
}

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook utilities",
	}
	cmd.AddCommand(webhookSimulateCmd())
	return cmd
}

func webhookSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:       "simulate [card|crypto]",
		Short:     "Send a correctly signed test webhook to the running bot",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"card", "crypto"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if opts.baseURL == "" {
				opts.baseURL = cfg.PublicBaseURL
			}

			var (
				body    []byte
				headers = http.Header{}
				path    string
				err     error
			)
			switch args[0] {
			case "card":
				body, err = cardEvent(opts)
				if cfg.Stripe.WebhookSecret != "" {
					headers.Set("Stripe-Signature", stripe.SignPayload(cfg.Stripe.WebhookSecret, body, time.Now()))
				}
				path = "/webhooks/stripe"
			case "crypto":
				body, err = cryptoEvent(opts)
				if cfg.Crypto.WebhookSecret != "" {
					headers.Set(cryptomus.SignatureHeader, cryptomus.SignPayload(cfg.Crypto.WebhookSecret, body))
				}
				path = "/webhooks/crypto"
			default:
				return fmt.Errorf("unknown method %q, expected card or crypto", args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for key := range headers {
				fmt.Fprintf(out, "%s: %s\n", key, headers.Get(key))
			}
			fmt.Fprintf(out, "Body: %s\n", body)
			if opts.dryRun {
				fmt.Fprintln(out, "[DRY RUN] Not sending request")
				return nil
			}

			url := strings.TrimRight(opts.baseURL, "/") + path
			fmt.Fprintf(out, "Sending to %s...\n", url)
			return send(url, body, headers, out)
		},
	}

	cmd.Flags().StringVar(&opts.orderID, "order", "", "Order ID to settle")
	cmd.Flags().StringVar(&opts.amount, "amount", "9.99", "Paid amount in USD")
	cmd.Flags().StringVar(&opts.status, "status", "paid", "Crypto invoice status")
	cmd.Flags().StringVar(&opts.baseURL, "url", "", "Base URL of the bot (defaults to PUBLIC_BASE_URL)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the signed request without sending it")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}

func cardEvent(opts *simulateOptions) ([]byte, error) {
	amount, err := decimal.NewFromString(opts.amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", opts.amount, err)
	}
	event := map[string]any{
		"id":      "evt_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		"type":    stripe.EventCheckoutCompleted,
		"created": time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_sim_" + opts.orderID,
				"amount_total":   stripe.UnitAmount(amount),
				"currency":       "usd",
				"payment_intent": "pi_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
				"metadata":       map[string]string{"orderId": opts.orderID},
			},
		},
	}
	return json.Marshal(event)
}

func cryptoEvent(opts *simulateOptions) ([]byte, error) {
	if _, err := decimal.NewFromString(opts.amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", opts.amount, err)
	}
	event := map[string]any{
		"type":     "payment",
		"uuid":     uuid.NewString(),
		"order_id": opts.orderID,
		"amount":   opts.amount,
		"status":   opts.status,
		"txid":     "sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		"is_final": true,
	}
	return json.Marshal(event)
}

func send(url string, body []byte, headers http.Header, out io.Writer) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header = headers.Clone()
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	fmt.Fprintf(out, "Status: %s\n%s\n", resp.Status, respBody)
	if resp.StatusCode >= 300 {
		return errors.New("webhook was not accepted")
	}
	return nil
}
