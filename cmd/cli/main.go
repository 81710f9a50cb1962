package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

type clientCfg struct {
	baseURL  string
	customer string
}

func main() {
	var cfg clientCfg

	root := &cobra.Command{
		Use:     "commerce",
		Short:   "Order management client for the commerce API",
		Version: version,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfg.baseURL, "base-url", getenv("COMMERCE_BASE_URL", "http://localhost:8080"), "commerce-api base URL")
	pf.StringVar(&cfg.customer, "customer", os.Getenv("COMMERCE_CUSTOMER_ID"), "customer id sent as X-Customer-ID")

	var checkoutProduct string
	var checkoutQty int
	var checkoutPromo string
	checkoutCmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for a single product",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.customer == "" {
				return fmt.Errorf("--customer is required")
			}
			if checkoutProduct == "" {
				return fmt.Errorf("--product is required")
			}
			return runCheckout(cfg, checkoutProduct, checkoutQty, checkoutPromo)
		},
	}
	checkoutCmd.Flags().StringVar(&checkoutProduct, "product", "", "product id to order")
	checkoutCmd.Flags().IntVar(&checkoutQty, "quantity", 1, "quantity to order")
	checkoutCmd.Flags().StringVar(&checkoutPromo, "promo", "", "promo code")

	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.customer == "" {
				return fmt.Errorf("--customer is required")
			}
			return runListOrders(cfg)
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.customer == "" {
				return fmt.Errorf("--customer is required")
			}
			return runCancel(cfg, args[0])
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show order statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cfg)
		},
	}

	uiCmd := &cobra.Command{
		Use:   "ui",
		Short: "Browse your orders interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.customer == "" {
				return fmt.Errorf("--customer is required")
			}
			p := tea.NewProgram(initialModel(cfg))
			_, err := p.Run()
			return err
		},
	}

	root.AddCommand(checkoutCmd, ordersCmd, cancelCmd, statsCmd, uiCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type orderSummary struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	Pricing     struct {
		Total string `json:"total"`
	} `json:"pricing"`
	CreatedAt time.Time `json:"createdAt"`
}

func runCheckout(cfg clientCfg, productID string, qty int, promo string) error {
	payload := map[string]any{
		"items": []map[string]any{{"productId": productID, "quantity": qty}},
		"shippingAddress": map[string]any{
			"line1":      getenv("COMMERCE_SHIP_LINE1", "1 Main St"),
			"city":       getenv("COMMERCE_SHIP_CITY", "Springfield"),
			"state":      getenv("COMMERCE_SHIP_STATE", "IL"),
			"postalCode": getenv("COMMERCE_SHIP_POSTAL", "62701"),
			"country":    getenv("COMMERCE_SHIP_COUNTRY", "US"),
		},
		"paymentInfo": map[string]any{"method": "card", "lastFour": "4242"},
	}
	if promo != "" {
		payload["promoCode"] = promo
	}

	body, err := apiRequest(cfg, http.MethodPost, "/orders", payload, true)
	if err != nil {
		return err
	}
	var o orderSummary
	if err := json.Unmarshal(body, &o); err != nil {
		return err
	}
	fmt.Printf("placed %s (%s) total=%s status=%s\n", o.OrderNumber, o.ID, o.Pricing.Total, o.Status)
	return nil
}

func runListOrders(cfg clientCfg) error {
	orders, err := fetchOrders(cfg)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("no orders")
		return nil
	}
	for _, o := range orders {
		fmt.Printf("%-24s %-10s %10s  %s  %s\n", o.OrderNumber, o.Status, o.Pricing.Total, o.CreatedAt.Format("2006-01-02 15:04"), o.ID)
	}
	return nil
}

func runCancel(cfg clientCfg, orderID string) error {
	body, err := apiRequest(cfg, http.MethodDelete, "/orders/"+orderID, nil, false)
	if err != nil {
		return err
	}
	var o orderSummary
	if err := json.Unmarshal(body, &o); err != nil {
		return err
	}
	fmt.Printf("cancelled %s status=%s\n", o.OrderNumber, o.Status)
	return nil
}

func runStats(cfg clientCfg) error {
	body, err := apiRequest(cfg, http.MethodGet, "/orders/stats", nil, false)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return err
	}
	fmt.Println(pretty.String())
	return nil
}

func fetchOrders(cfg clientCfg) ([]orderSummary, error) {
	body, err := apiRequest(cfg, http.MethodGet, "/orders/customer/"+cfg.customer+"?limit=50", nil, false)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Orders []orderSummary `json:"orders"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

func apiRequest(cfg clientCfg, method, path string, payload any, idempotent bool) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	url := strings.TrimRight(cfg.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.customer != "" {
		req.Header.Set("X-Customer-ID", cfg.customer)
	}
	if idempotent {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// --- interactive order browser ---

type model struct {
	cfg      clientCfg
	orders   []orderSummary
	selected int
	status   string
	busy     bool
}

type ordersLoaded struct {
	orders []orderSummary
	err    error
}

type cancelDone struct {
	order orderSummary
	err   error
}

func initialModel(cfg clientCfg) model {
	return model{cfg: cfg, status: "Loading...", busy: true}
}

func (m model) Init() tea.Cmd {
	return loadOrdersCmd(m.cfg)
}

func loadOrdersCmd(cfg clientCfg) tea.Cmd {
	return func() tea.Msg {
		orders, err := fetchOrders(cfg)
		return ordersLoaded{orders: orders, err: err}
	}
}

func cancelOrderCmd(cfg clientCfg, orderID string) tea.Cmd {
	return func() tea.Msg {
		body, err := apiRequest(cfg, http.MethodDelete, "/orders/"+orderID, nil, false)
		if err != nil {
			return cancelDone{err: err}
		}
		var o orderSummary
		if err := json.Unmarshal(body, &o); err != nil {
			return cancelDone{err: err}
		}
		return cancelDone{order: o}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up":
			if m.selected > 0 {
				m.selected--
			}
		case "down":
			if m.selected < len(m.orders)-1 {
				m.selected++
			}
		case "r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Refreshing..."
			return m, loadOrdersCmd(m.cfg)
		case "c":
			if m.busy || len(m.orders) == 0 {
				return m, nil
			}
			m.busy = true
			m.status = "Cancelling..."
			return m, cancelOrderCmd(m.cfg, m.orders[m.selected].ID)
		}
	case ordersLoaded:
		m.busy = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Load failed: %v", msg.err)
			return m, nil
		}
		m.orders = msg.orders
		if m.selected >= len(m.orders) {
			m.selected = 0
		}
		m.status = fmt.Sprintf("%d orders", len(m.orders))
	case cancelDone:
		m.busy = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Cancel failed: %v", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Cancelled %s", msg.order.OrderNumber)
		return m, loadOrdersCmd(m.cfg)
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "commerce orders")
	fmt.Fprintln(b, "")
	if len(m.orders) == 0 {
		fmt.Fprintln(b, " (no orders)")
	}
	for i, o := range m.orders {
		marker := " "
		if i == m.selected {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %-24s %-10s %10s  %s\n", marker, o.OrderNumber, o.Status, o.Pricing.Total, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	fmt.Fprintln(b, "\nControls: up/down select, c cancel, r refresh, q quit")
	return b.String()
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
