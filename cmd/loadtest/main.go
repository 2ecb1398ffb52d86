// Генератор нагрузки для HTTP API заказов: создаёт заказы в несколько
// воркеров и печатает сводку по задержкам и кодам ответов.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type loadMode string

const (
	modeCreate       loadMode = "create"
	modeCreateCancel loadMode = "create-cancel"
)

type config struct {
	baseURL     string
	total       int
	concurrency int
	timeout     time.Duration
	mode        loadMode
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type report struct {
	StartedAt        time.Time        `json:"started_at"`
	DurationSeconds  float64          `json:"duration_seconds"`
	TotalScenarios   int64            `json:"total_scenarios"`
	SuccessScenarios int64            `json:"success_scenarios"`
	FailedScenarios  int64            `json:"failed_scenarios"`
	StatusCodes      map[string]int64 `json:"status_codes"`
	LatencyMs        latencySummary   `json:"latency_ms"`
}

type collector struct {
	mu        sync.Mutex
	latencies []float64
	codes     map[string]int64
	success   int64
	failed    int64
}

func newCollector() *collector {
	return &collector{codes: make(map[string]int64)}
}

func (c *collector) record(code int, latency time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latencies = append(c.latencies, float64(latency.Milliseconds()))
	c.codes[fmt.Sprintf("%d", code)]++
	if ok {
		c.success++
	} else {
		c.failed++
	}
}

func (c *collector) summary() latencySummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.latencies) == 0 {
		return latencySummary{}
	}

	sorted := append([]float64(nil), c.latencies...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

// percentile ожидает отсортированный по возрастанию срез.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func parseFlags(args []string) (config, error) {
	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)

	cfg := config{}
	var mode string
	fs.StringVar(&cfg.baseURL, "url", "http://localhost:8080", "orders API base URL")
	fs.IntVar(&cfg.total, "total", 100, "total scenarios to run")
	fs.IntVar(&cfg.concurrency, "concurrency", 10, "number of concurrent workers")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	fs.StringVar(&mode, "mode", string(modeCreate), "scenario: create|create-cancel")
	fs.StringVar(&cfg.outputPath, "output", "", "write JSON report to file (default stdout)")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg.mode = loadMode(mode)
	if cfg.mode != modeCreate && cfg.mode != modeCreateCancel {
		return config{}, fmt.Errorf("unsupported mode: %s", mode)
	}
	if cfg.total <= 0 || cfg.concurrency <= 0 {
		return config{}, fmt.Errorf("total and concurrency must be positive")
	}

	return cfg, nil
}

func orderPayload(seq int64) []byte {
	body := map[string]any{
		"orderData": map[string]any{
			"user_id":   seq%100 + 1,
			"store_id":  seq%10 + 1,
			"dealer_id": seq%5 + 1,
			"address":   fmt.Sprintf("Calle %d #10-%d", seq%90+1, seq%50+1),
		},
		"items": []map[string]any{
			{"product_id": seq%500 + 1, "quantity": seq%3 + 1, "unit_price": 9.99},
		},
		"payment_method": "tarjeta",
	}
	raw, _ := json.Marshal(body)
	return raw
}

type createdOrder struct {
	ID string `json:"id"`
}

func runScenario(client *http.Client, cfg config, seq int64, stats *collector) {
	start := time.Now()

	resp, err := client.Post(cfg.baseURL+"/orders", "application/json", bytes.NewReader(orderPayload(seq)))
	if err != nil {
		stats.record(0, time.Since(start), false)
		return
	}

	var created createdOrder
	decodeErr := json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	ok := resp.StatusCode == http.StatusCreated && decodeErr == nil && created.ID != ""
	if !ok || cfg.mode == modeCreate {
		stats.record(resp.StatusCode, time.Since(start), ok)
		return
	}

	cancelResp, err := client.Post(cfg.baseURL+"/orders/"+created.ID+"/cancel", "application/json", nil)
	if err != nil {
		stats.record(0, time.Since(start), false)
		return
	}
	cancelResp.Body.Close()

	stats.record(cancelResp.StatusCode, time.Since(start), cancelResp.StatusCode == http.StatusOK)
}

func run(cfg config) report {
	client := &http.Client{Timeout: cfg.timeout}
	stats := newCollector()

	startedAt := time.Now()
	var seq int64

	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				n := atomic.AddInt64(&seq, 1)
				if n > int64(cfg.total) {
					return
				}
				runScenario(client, cfg, n, stats)
			}
		}()
	}
	wg.Wait()

	return report{
		StartedAt:        startedAt,
		DurationSeconds:  time.Since(startedAt).Seconds(),
		TotalScenarios:   int64(cfg.total),
		SuccessScenarios: stats.success,
		FailedScenarios:  stats.failed,
		StatusCodes:      stats.codes,
		LatencyMs:        stats.summary(),
	}
}

func writeReport(r report, outputPath string) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if outputPath == "" {
		fmt.Println(string(raw))
		return nil
	}
	return os.WriteFile(outputPath, append(raw, '\n'), 0o644)
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	result := run(cfg)
	if err := writeReport(result, cfg.outputPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}
