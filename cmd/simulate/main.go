// Command simulate hammers a running api-server with concurrent bookings
// for the same doctor and day, then verifies against Postgres that no two
// booked appointments overlap. Conflicts and retry responses are expected;
// an overlap in storage is a failure.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicdesk/appointment-backend/internal/db"
)

type SimConfig struct {
	APIBaseURL  string
	DoctorName  string
	Day         string // YYYY-MM-DD
	Workers     int
	Requests    int
	PostgresDSN string
}

type Metrics struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *Metrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&m.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.Success, 1)
	case status == http.StatusConflict || status == http.StatusTooManyRequests:
		atomic.AddInt64(&m.Conflict, 1)
	default:
		atomic.AddInt64(&m.Error, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *Metrics) Stats() (avg, p50, p95 time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	idx95 := len(latencies) * 95 / 100
	if idx95 >= len(latencies) {
		idx95 = len(latencies) - 1
	}
	p95 = latencies[idx95]
	return avg, p50, p95
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_URL", "http://localhost:8080"),
		DoctorName:  getEnv("SIM_DOCTOR", "Dr. Ahuja"),
		Day:         getEnv("SIM_DAY", time.Now().AddDate(0, 0, 1).Format("2006-01-02")),
		Workers:     getEnvInt("SIM_WORKERS", 16),
		Requests:    getEnvInt("SIM_REQUESTS", 400),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	return cfg
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate: doctor=%q day=%s workers=%d requests=%d", cfg.DoctorName, cfg.Day, cfg.Workers, cfg.Requests)

	client := &http.Client{Timeout: 10 * time.Second}
	metrics := &Metrics{}

	// All workers fight over the same 16 half-hour slots of one day, so
	// most requests collide.
	slotStarts := make([]string, 0, 16)
	for h := 9; h < 17; h++ {
		slotStarts = append(slotStarts, fmt.Sprintf("%sT%02d:00:00", cfg.Day, h))
		slotStarts = append(slotStarts, fmt.Sprintf("%sT%02d:30:00", cfg.Day, h))
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range jobs {
				start := slotStarts[rand.Intn(len(slotStarts))]
				status, latency := bookOnce(client, cfg, worker, i, start)
				metrics.Record(latency, status)
			}
		}(w)
	}

	startedAt := time.Now()
	for i := 0; i < cfg.Requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	avg, p50, p95 := metrics.Stats()
	log.Printf("done in %s", time.Since(startedAt))
	log.Printf("total=%d success=%d conflict=%d error=%d", metrics.Total, metrics.Success, metrics.Conflict, metrics.Error)
	log.Printf("latency avg=%s p50=%s p95=%s", avg, p50, p95)

	if metrics.Success > 16 {
		log.Printf("WARNING: more successes (%d) than slots in the day (16)", metrics.Success)
	}

	if cfg.PostgresDSN != "" {
		verifyNoOverlaps(cfg.PostgresDSN)
	} else {
		log.Println("POSTGRES_DSN not set, skipping storage overlap verification")
	}
}

func bookOnce(client *http.Client, cfg SimConfig, worker, i int, start string) (int, time.Duration) {
	payload := map[string]any{
		"doctor_name":      cfg.DoctorName,
		"patient_name":     fmt.Sprintf("Sim Patient %d-%d", worker, i),
		"patient_email":    fmt.Sprintf("sim-%d-%d@example.com", worker, i),
		"start_time":       start,
		"duration_minutes": 30,
	}
	body, _ := json.Marshal(payload)

	begin := time.Now()
	resp, err := client.Post(cfg.APIBaseURL+"/tools/book_appointment", "application/json", bytes.NewReader(body))
	latency := time.Since(begin)
	if err != nil {
		log.Printf("request error: %v", err)
		return 0, latency
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, latency
}

// verifyNoOverlaps counts pairs of distinct booked appointments for the same
// doctor whose intervals overlap. Anything above zero means the invariant
// was violated.
func verifyNoOverlaps(dsn string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Printf("verify: connect postgres: %v", err)
		return
	}
	defer pool.Close()

	var overlapping int
	err = pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.doctor_id = b.doctor_id
		 AND a.id < b.id
		 AND a.status = 'booked'
		 AND b.status = 'booked'
		 AND a.start_time < b.end_time
		 AND b.start_time < a.end_time
	`).Scan(&overlapping)
	if err != nil {
		log.Printf("verify: overlap query: %v", err)
		return
	}

	if overlapping > 0 {
		log.Printf("FAIL: %d overlapping booked pairs found", overlapping)
		os.Exit(1)
	}
	log.Println("OK: no overlapping booked appointments in storage")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
