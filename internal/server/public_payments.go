package server

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) RegisterPublicRoutes() {
	public := s.engine.Group("/payment")
	public.GET("/success", s.PaymentSuccess)
	public.GET("/cancel", s.PaymentCancel)
}

func (s *Server) PaymentSuccess(c *gin.Context) {
	s.paymentPage(c, "Payment received",
		"Thanks! Your payment is being confirmed. You can return to Discord; your ticket will update automatically.")
}

func (s *Server) PaymentCancel(c *gin.Context) {
	s.paymentPage(c, "Payment cancelled",
		"No payment was taken. Return to your ticket in Discord to pick a payment method again.")
}

func (s *Server) paymentPage(c *gin.Context, title, body string) {
	page := fmt.Sprintf(`<!doctype html><html><head><meta charset="utf-8"><title>%s | %s</title></head><body><h1>%s</h1><p>%s</p></body></html>`,
		html.EscapeString(title), html.EscapeString(s.cfg.StoreName), html.EscapeString(title), html.EscapeString(body))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}
