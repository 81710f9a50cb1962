package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type runResult struct {
	Timestamp          string         `json:"timestamp"`
	BaseURL            string         `json:"base_url"`
	Scenario           string         `json:"scenario"`
	Requests           int            `json:"requests"`
	Concurrency        int            `json:"concurrency"`
	SuccessfulRequests int            `json:"successful_requests"`
	ErrorRequests      int            `json:"error_requests"`
	DurationSeconds    float64        `json:"duration_seconds"`
	AvgLatencyMs       float64        `json:"avg_latency_ms"`
	MinLatencyMs       float64        `json:"min_latency_ms"`
	MaxLatencyMs       float64        `json:"max_latency_ms"`
	P50LatencyMs       float64        `json:"p50_latency_ms"`
	P90LatencyMs       float64        `json:"p90_latency_ms"`
	P95LatencyMs       float64        `json:"p95_latency_ms"`
	P99LatencyMs       float64        `json:"p99_latency_ms"`
	ThroughputRPS      float64        `json:"throughput_rps"`
	StatusCounts       map[string]int `json:"status_counts"`
	ErrorClasses       map[string]int `json:"error_classes"`
	FirstError         string         `json:"first_error"`
}

type metrics struct {
	mu           sync.Mutex
	success      int
	errors       int
	total        time.Duration
	minLatency   time.Duration
	maxLatency   time.Duration
	latenciesMs  []float64
	statusCounts map[string]int
	errorClasses map[string]int
	firstError   string
}

func newMetrics() *metrics {
	return &metrics{
		statusCounts: make(map[string]int),
		errorClasses: make(map[string]int),
	}
}

func (m *metrics) record(latency time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.errors++
		return
	}
	m.success++
	m.total += latency
	if m.minLatency == 0 || latency < m.minLatency {
		m.minLatency = latency
	}
	if latency > m.maxLatency {
		m.maxLatency = latency
	}
	m.latenciesMs = append(m.latenciesMs, float64(latency.Milliseconds()))
}

func (m *metrics) recordStatus(status int, err error, class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCounts[strconv.Itoa(status)]++
	if class != "" {
		m.errorClasses[class]++
	}
	if err != nil && m.firstError == "" {
		m.firstError = err.Error()
	}
}

func main() {
	baseURL := flag.String("base-url", getenv("COMMERCE_BASE_URL", "http://localhost:8080"), "commerce-api base URL")
	scenario := flag.String("scenario", "orders", "scenario to run: orders|browse|mixed")
	total := flag.Int("total", 1000, "total number of requests")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	customerIDs := flag.String("customer-ids", getenv("LOADGEN_CUSTOMER_IDS", ""), "comma-separated customer ids to order as (required for orders/mixed)")
	output := flag.String("output", "", "optional output path for JSON result")
	flag.Parse()

	if *total <= 0 {
		fmt.Fprintln(os.Stderr, "total must be > 0")
		os.Exit(1)
	}
	if *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency must be > 0")
		os.Exit(1)
	}
	switch *scenario {
	case "orders", "browse", "mixed":
	default:
		fmt.Fprintf(os.Stderr, "unknown scenario: %s\n", *scenario)
		os.Exit(1)
	}

	client := &http.Client{}

	products, err := fetchProductIDs(client, *baseURL, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list products: %v\n", err)
		os.Exit(1)
	}
	if len(products) == 0 && *scenario != "browse" {
		fmt.Fprintln(os.Stderr, "no products available; seed the catalog first")
		os.Exit(1)
	}

	var pool []string
	for _, part := range strings.Split(*customerIDs, ",") {
		if id := strings.TrimSpace(part); id != "" {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 && *scenario != "browse" {
		fmt.Fprintln(os.Stderr, "-customer-ids is required for the orders and mixed scenarios")
		os.Exit(1)
	}

	tasks := make(chan struct{})
	var wg sync.WaitGroup
	m := newMetrics()

	start := time.Now()
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range tasks {
				latency, err := runRequest(client, *baseURL, *scenario, products, pool, *timeout, m)
				m.record(latency, err)
			}
		}()
	}

	for i := 0; i < *total; i++ {
		tasks <- struct{}{}
	}
	close(tasks)
	wg.Wait()

	duration := time.Since(start)
	avgLatency := 0.0
	minLatency := 0.0
	maxLatency := 0.0
	if m.success > 0 {
		avgLatency = float64(m.total.Milliseconds()) / float64(m.success)
		minLatency = float64(m.minLatency.Milliseconds())
		maxLatency = float64(m.maxLatency.Milliseconds())
	}
	p50, p90, p95, p99 := calcPercentiles(m.latenciesMs)

	result := runResult{
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		BaseURL:            *baseURL,
		Scenario:           *scenario,
		Requests:           *total,
		Concurrency:        *concurrency,
		SuccessfulRequests: m.success,
		ErrorRequests:      m.errors,
		DurationSeconds:    duration.Seconds(),
		AvgLatencyMs:       avgLatency,
		MinLatencyMs:       minLatency,
		MaxLatencyMs:       maxLatency,
		P50LatencyMs:       p50,
		P90LatencyMs:       p90,
		P95LatencyMs:       p95,
		P99LatencyMs:       p99,
		ThroughputRPS:      float64(m.success) / duration.Seconds(),
		StatusCounts:       m.statusCounts,
		ErrorClasses:       m.errorClasses,
		FirstError:         m.firstError,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		if err := writeResult(*output, result); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
			os.Exit(1)
		}
	}
}

func runRequest(client *http.Client, baseURL, scenario string, products, customers []string, timeout time.Duration, m *metrics) (time.Duration, error) {
	op := scenario
	if scenario == "mixed" {
		// Roughly the read-heavy mix of a storefront.
		if rand.IntN(10) < 7 {
			op = "browse"
		} else {
			op = "orders"
		}
	}

	start := time.Now()
	var status int
	var class string
	var err error
	switch op {
	case "orders":
		status, class, err = placeOrder(client, baseURL, products, customers, timeout)
	case "browse":
		status, class, err = browseProducts(client, baseURL, timeout)
	}
	m.recordStatus(status, err, class)
	if err != nil {
		return time.Since(start), fmt.Errorf("%s: %w", op, err)
	}
	return time.Since(start), nil
}

func placeOrder(client *http.Client, baseURL string, products, customers []string, timeout time.Duration) (int, string, error) {
	productID := products[rand.IntN(len(products))]
	customerID := customers[rand.IntN(len(customers))]
	payload := map[string]any{
		"items": []map[string]any{{"productId": productID, "quantity": 1 + rand.IntN(3)}},
		"shippingAddress": map[string]any{
			"line1":      "1 Load Test Way",
			"city":       "Springfield",
			"state":      "IL",
			"postalCode": "62701",
			"country":    "US",
		},
		"paymentInfo": map[string]any{"method": "card", "lastFour": "4242"},
	}

	data, _ := json.Marshal(payload)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/orders", bytes.NewReader(data))
	if err != nil {
		return 0, "transport", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Customer-ID", customerID)
	req.Header.Set("Idempotency-Key", uuid.NewString())
	return doRequest(client, req)
}

func browseProducts(client *http.Client, baseURL string, timeout time.Duration) (int, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/products?limit=20", nil)
	if err != nil {
		return 0, "transport", err
	}
	return doRequest(client, req)
}

func doRequest(client *http.Client, req *http.Request) (int, string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, "transport", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := strings.TrimSpace(string(body))
		return resp.StatusCode, classifyError(resp.StatusCode, bodyStr), fmt.Errorf("status %d: %s", resp.StatusCode, bodyStr)
	}
	return resp.StatusCode, "", nil
}

func fetchProductIDs(client *http.Client, baseURL string, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/products?limit=100", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Products []struct {
			ID      string `json:"id"`
			InStock bool   `json:"inStock"`
		} `json:"products"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range payload.Products {
		if p.InStock {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func writeResult(path string, result runResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// classifyError separates domain rejections (insufficient inventory, pricing
// mismatch) from transport and server failures so a run summary shows where
// errors came from.
func classifyError(status int, body string) string {
	if status == http.StatusBadRequest && isBusinessRejection(body) {
		return "business_rejected"
	}
	switch {
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	default:
		return ""
	}
}

func isBusinessRejection(body string) bool {
	if body == "" {
		return false
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return false
	}
	msg, _ := payload["error"].(string)
	return msg != ""
}

func calcPercentiles(values []float64) (float64, float64, float64, float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sort.Float64s(values)
	return percentile(values, 0.50), percentile(values, 0.90), percentile(values, 0.95), percentile(values, 0.99)
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
