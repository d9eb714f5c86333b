package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Report is a point-in-time aggregation of the metrics for one day.
type Report struct {
	Day string `json:"day"`

	ActivePlayers int `json:"active_players"`

	RewardsGranted     int64              `json:"rewards_granted"`
	RewardsByPromotion map[string]int64   `json:"rewards_by_promotion"`
	AmountByPromotion  map[string]float64 `json:"amount_by_promotion"`

	ProgressEvents      int64            `json:"progress_events"`
	ProgressByPromotion map[string]int64 `json:"progress_by_promotion"`

	FireRate float64 `json:"fire_rate"`

	CreatedAt time.Time `json:"created_at"`
}

// Snapshot builds a report for one UTC day.
func (m *PromoMetrics) Snapshot(day string) *Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r := &Report{
		Day:                 day,
		ActivePlayers:       len(m.dailyActivePlayers[day]),
		RewardsGranted:      m.rewardsByDay[day],
		RewardsByPromotion:  make(map[string]int64, len(m.rewardsByPromotion)),
		AmountByPromotion:   make(map[string]float64, len(m.amountByPromotion)),
		ProgressEvents:      m.progressByDay[day],
		ProgressByPromotion: make(map[string]int64, len(m.progressByPromotion)),
		CreatedAt:           time.Now().UTC(),
	}
	for id, n := range m.rewardsByPromotion {
		r.RewardsByPromotion[id] = n
	}
	for id, amt := range m.amountByPromotion {
		r.AmountByPromotion[id] = amt
	}
	for id, n := range m.progressByPromotion {
		r.ProgressByPromotion[id] = n
	}
	if m.evaluations > 0 {
		r.FireRate = float64(m.firedEvaluations) / float64(m.evaluations)
	}
	return r
}

// Exporter defines the interface for exporting analytics reports
type Exporter interface {
	Export(ctx context.Context, report *Report) error
	Flush(ctx context.Context) error
	Close() error
}

// HTTPExporter exports reports to an external HTTP endpoint
type HTTPExporter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	buffer     []*Report
	batchSize  int
}

func NewHTTPExporter(endpoint, apiKey string, batchSize int) *HTTPExporter {
	return &HTTPExporter{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		buffer:    make([]*Report, 0, batchSize),
		batchSize: batchSize,
	}
}

func (e *HTTPExporter) Export(ctx context.Context, report *Report) error {
	e.buffer = append(e.buffer, report)

	if len(e.buffer) >= e.batchSize {
		return e.Flush(ctx)
	}
	return nil
}

func (e *HTTPExporter) Flush(ctx context.Context) error {
	if len(e.buffer) == 0 {
		return nil
	}

	payload, err := json.Marshal(e.buffer)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics reports: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send analytics reports: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("analytics export failed with status %d: %s", resp.StatusCode, string(body))
	}

	// Clear buffer on successful export
	e.buffer = e.buffer[:0]
	return nil
}

func (e *HTTPExporter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Flush(ctx)
}

// ConsoleExporter exports reports to stdout (for debugging)
type ConsoleExporter struct {
	prefix string
}

func NewConsoleExporter(prefix string) *ConsoleExporter {
	return &ConsoleExporter{prefix: prefix}
}

func (e *ConsoleExporter) Export(ctx context.Context, report *Report) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	fmt.Printf("%s Analytics Report:\n%s\n", e.prefix, string(jsonData))
	return nil
}

func (e *ConsoleExporter) Flush(ctx context.Context) error { return nil }

func (e *ConsoleExporter) Close() error { return nil }

// ExportManager distributes reports to all configured exporters.
type ExportManager struct {
	exporters []Exporter
}

func NewExportManager(exporters ...Exporter) *ExportManager {
	return &ExportManager{exporters: exporters}
}

func (em *ExportManager) ExportReports(ctx context.Context, reports []*Report) error {
	for _, report := range reports {
		for _, exporter := range em.exporters {
			if err := exporter.Export(ctx, report); err != nil {
				return fmt.Errorf("export failed for %T: %w", exporter, err)
			}
		}
	}
	return em.Flush(ctx)
}

func (em *ExportManager) Flush(ctx context.Context) error {
	for _, exporter := range em.exporters {
		if err := exporter.Flush(ctx); err != nil {
			return fmt.Errorf("flush failed for %T: %w", exporter, err)
		}
	}
	return nil
}

func (em *ExportManager) Close() error {
	var lastErr error
	for _, exporter := range em.exporters {
		if err := exporter.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
