// simulate drives concurrent booking traffic against a running api-server
// and verifies that contended slots are never double-booked: for every
// (doctor, date, time) triple, at most one worker may get 201 and everyone
// else must see 409 slot_taken.
package main

import (
	"bytes"
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

	json "github.com/goccy/go-json"

	"github.com/clinicdesk/appointment-scheduling/internal/booking"
)

type SimConfig struct {
	APIBaseURL string
	Workers    int
	Rounds     int
}

type Metrics struct {
	Total     int64
	Booked    int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (m *Metrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&m.Total, 1)
	switch status {
	case http.StatusCreated:
		atomic.AddInt64(&m.Booked, 1)
	case http.StatusConflict:
		atomic.AddInt64(&m.Conflict, 1)
	default:
		atomic.AddInt64(&m.Error, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *Metrics) Stats() (avg, p95 time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0, 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	avg = sum / time.Duration(len(sorted))

	idx := len(sorted) * 95 / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return avg, sorted[idx]
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate starting: base_url=%s workers=%d rounds=%d",
		cfg.APIBaseURL, cfg.Workers, cfg.Rounds)

	client := &http.Client{Timeout: 10 * time.Second}

	tokens := make([]string, cfg.Workers)
	for i := range tokens {
		username := fmt.Sprintf("sim_user_%d_%d", time.Now().Unix(), i)
		token, err := registerAndLogin(client, cfg.APIBaseURL, username)
		if err != nil {
			log.Fatalf("prepare worker %d: %v", i, err)
		}
		tokens[i] = token
	}

	metrics := &Metrics{}
	for round := 0; round < cfg.Rounds; round++ {
		// All workers race for the same slot.
		doctor := booking.Roster[rand.Intn(len(booking.Roster))].DisplayName
		date := booking.DateOf(time.Now()).AddDays(1 + rand.Intn(30))
		slot := booking.AllSlots[rand.Intn(len(booking.AllSlots))]

		var wg sync.WaitGroup
		var winners int64
		for i := 0; i < cfg.Workers; i++ {
			wg.Add(1)
			go func(token string) {
				defer wg.Done()
				status, latency := book(client, cfg.APIBaseURL, token, doctor, date, slot)
				metrics.Record(latency, status)
				if status == http.StatusCreated {
					atomic.AddInt64(&winners, 1)
				}
			}(tokens[i])
		}
		wg.Wait()

		if winners > 1 {
			log.Fatalf("DOUBLE BOOKING: %d winners for %s %s %s", winners, doctor, date, slot)
		}
	}

	avg, p95 := metrics.Stats()
	log.Printf("simulate complete: total=%d booked=%d conflict=%d error=%d avg=%s p95=%s",
		metrics.Total, metrics.Booked, metrics.Conflict, metrics.Error, avg, p95)
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL: "http://localhost:8080",
		Workers:    8,
		Rounds:     25,
	}
	if v := os.Getenv("SIM_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("SIM_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Rounds = n
		}
	}
	return cfg
}

func registerAndLogin(client *http.Client, baseURL, username string) (string, error) {
	reg := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"phone":    "555-0100",
		"password": "sim-password",
	}
	if _, _, err := post(client, baseURL+"/auth/register", "", reg); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}

	login := map[string]string{
		"username": username,
		"password": "sim-password",
		"role":     "patient",
	}
	status, body, err := post(client, baseURL+"/auth/login", "", login)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login status %d: %s", status, body)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	return resp.Token, nil
}

func book(client *http.Client, baseURL, token, doctor string, date booking.Date, slot booking.Slot) (int, time.Duration) {
	req := map[string]string{
		"patient_name": "Sim Patient",
		"contact":      "555-0101",
		"doctor":       doctor,
		"date":         date.String(),
		"time":         string(slot),
		"reason":       "load simulation",
	}

	start := time.Now()
	status, _, err := post(client, baseURL+"/appointments", token, req)
	if err != nil {
		return 0, time.Since(start)
	}
	return status, time.Since(start)
}

func post(client *http.Client, url, token string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
