package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func withCLIArgs(t *testing.T, args []string, fn func()) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine

	os.Args = append([]string{"loadtest"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	fn()
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		input   string
		want    loadMode
		wantErr bool
	}{
		{input: "create", want: modeCreate},
		{input: " create-finalize ", want: modeCreateFinalize},
		{input: "create-cancel", want: modeCreateCancel},
		{input: "pay", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseMode(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseMode(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseMode(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseMode(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseConfig(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, cfg config)
	}{
		{
			name: "defaults",
			args: nil,
			check: func(t *testing.T, cfg config) {
				if cfg.baseURL != "http://localhost:8080" {
					t.Errorf("unexpected url: %s", cfg.baseURL)
				}
				if cfg.total != 400 || cfg.totalSet {
					t.Errorf("unexpected total: %d (set=%v)", cfg.total, cfg.totalSet)
				}
				if cfg.mode != modeCreate {
					t.Errorf("unexpected mode: %s", cfg.mode)
				}
				if cfg.timeout != 5*time.Second {
					t.Errorf("unexpected timeout: %s", cfg.timeout)
				}
			},
		},
		{
			name: "custom values",
			args: []string{
				"-url=http://api:8181", "-token=tok", "-total=10",
				"-duration=1m", "-concurrency=3", "-timeout=2s",
				"-mode=create-cancel", "-cancel-rate=25",
			},
			check: func(t *testing.T, cfg config) {
				if cfg.baseURL != "http://api:8181" {
					t.Errorf("unexpected url: %s", cfg.baseURL)
				}
				if !cfg.totalSet || cfg.total != 10 {
					t.Errorf("unexpected total: %d (set=%v)", cfg.total, cfg.totalSet)
				}
				if cfg.duration != time.Minute {
					t.Errorf("unexpected duration: %s", cfg.duration)
				}
				if cfg.mode != modeCreateCancel || cfg.cancelRate != 25 {
					t.Errorf("unexpected mode/cancel-rate: %s/%d", cfg.mode, cfg.cancelRate)
				}
			},
		},
		{name: "zero total", args: []string{"-total=0"}, wantErr: "total must be > 0"},
		{name: "bad mode", args: []string{"-mode=pay"}, wantErr: "unsupported mode"},
		{name: "bad cancel rate", args: []string{"-cancel-rate=150"}, wantErr: "cancel-rate"},
		{name: "zero concurrency", args: []string{"-concurrency=0"}, wantErr: "concurrency must be > 0"},
		{name: "empty price", args: []string{"-price="}, wantErr: "price is required"},
		{name: "empty client tag", args: []string{"-client-tag= "}, wantErr: "client-tag is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withCLIArgs(t, tc.args, func() {
				cfg, err := parseConfig()
				if tc.wantErr != "" {
					if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
						t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				tc.check(t, cfg)
			})
		})
	}
}

func TestDispatchJobs(t *testing.T) {
	t.Run("count mode", func(t *testing.T) {
		jobs := make(chan int, 16)
		dispatchJobs(jobs, config{total: 5})

		var got []int
		for id := range jobs {
			got = append(got, id)
		}
		if len(got) != 5 {
			t.Fatalf("expected 5 jobs, got %d", len(got))
		}
	})

	t.Run("duration mode stops", func(t *testing.T) {
		jobs := make(chan int, 1024)
		done := make(chan struct{})
		go func() {
			dispatchJobs(jobs, config{duration: 50 * time.Millisecond})
			close(done)
		}()

		count := 0
		for range jobs {
			count++
		}
		<-done
		if count == 0 {
			t.Fatal("expected at least one job in duration mode")
		}
	})

	t.Run("duration mode respects explicit total", func(t *testing.T) {
		jobs := make(chan int, 16)
		dispatchJobs(jobs, config{duration: time.Minute, total: 3, totalSet: true})

		count := 0
		for range jobs {
			count++
		}
		if count != 3 {
			t.Fatalf("expected 3 jobs, got %d", count)
		}
	})
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()

	col.record("scenario", 10*time.Millisecond, "ok", true)
	col.record("scenario", 30*time.Millisecond, "failed", false)
	col.record("CreateOrder", 5*time.Millisecond, "201", true)
	col.record("CreateOrder", 7*time.Millisecond, "409", false)

	startedAt := time.Now().Add(-time.Second)
	result := col.buildReport(startedAt, time.Second)

	if result.TotalScenarios != 2 || result.SuccessScenarios != 1 || result.FailedScenarios != 1 {
		t.Fatalf("unexpected scenario counts: %+v", result)
	}
	if result.ErrorRate != 0.5 {
		t.Fatalf("expected error rate 0.5, got %f", result.ErrorRate)
	}
	if result.RPS != 2 {
		t.Fatalf("expected rps 2, got %f", result.RPS)
	}

	created, ok := result.Methods["CreateOrder"]
	if !ok {
		t.Fatal("expected CreateOrder method report")
	}
	if created.Calls != 2 || created.Success != 1 || created.Failed != 1 {
		t.Fatalf("unexpected CreateOrder counts: %+v", created)
	}
	if created.Statuses["201"] != 1 || created.Statuses["409"] != 1 {
		t.Fatalf("unexpected CreateOrder statuses: %+v", created.Statuses)
	}
	if created.LatencyMs.Min <= 0 || created.LatencyMs.Max < created.LatencyMs.Min {
		t.Fatalf("unexpected latency summary: %+v", created.LatencyMs)
	}
}

func TestUtilityFunctions(t *testing.T) {
	if got := ratio(1, 4); got != 0.25 {
		t.Errorf("ratio(1,4) = %f", got)
	}
	if got := ratio(1, 0); got != 0 {
		t.Errorf("ratio with zero total should be 0, got %f", got)
	}

	if shouldCancelScenario(5, 0) {
		t.Error("cancel rate 0 should never cancel")
	}
	if !shouldCancelScenario(5, 100) {
		t.Error("cancel rate 100 should always cancel")
	}
	if !shouldCancelScenario(10, 50) || shouldCancelScenario(60, 50) {
		t.Error("cancel rate 50 should cancel first half of each hundred")
	}

	if got := statusLabel(201, nil); got != "201" {
		t.Errorf("statusLabel(201) = %s", got)
	}
	if got := statusLabel(0, io.EOF); got != "transport_error" {
		t.Errorf("statusLabel with error = %s", got)
	}

	if boolStatus(true) != "ok" || boolStatus(false) != "failed" {
		t.Error("unexpected boolStatus values")
	}

	sorted := []float64{1, 2, 3, 4, 5}
	if got := percentile(sorted, 50); got != 3 {
		t.Errorf("p50 = %f", got)
	}
	if got := percentile(sorted, 100); got != 5 {
		t.Errorf("p100 = %f", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("empty percentile = %f", got)
	}
	if got := percentile([]float64{7}, 95); got != 7 {
		t.Errorf("single-value percentile = %f", got)
	}

	summary := buildLatencySummary([]float64{2, 1, 3})
	if summary.Min != 1 || summary.Max != 3 || summary.Avg != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if empty := buildLatencySummary(nil); empty != (latencySummary{}) {
		t.Errorf("expected zero summary, got %+v", empty)
	}
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	result := report{
		TotalScenarios:   10,
		SuccessScenarios: 9,
		FailedScenarios:  1,
		ErrorRate:        0.1,
		Methods:          map[string]methodReport{},
	}

	if err := writeJSONReport(path, result); err != nil {
		t.Fatalf("writeJSONReport failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.TotalScenarios != 10 {
		t.Fatalf("unexpected total scenarios: %d", decoded.TotalScenarios)
	}

	if err := writeJSONReport(".", result); err == nil {
		t.Fatal("expected error for directory path")
	}
	if err := writeJSONReport(".."+string(filepath.Separator)+"escape.json", result); err == nil {
		t.Fatal("expected error for path outside current directory")
	}
}

// newFakeAPI поднимает httptest-сервер, имитирующий REST API заказов.
func newFakeAPI(t *testing.T, failStatusChange bool) (*httptest.Server, *int64) {
	t.Helper()

	var orderSeq int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/clients", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"client-load"}`))
	})
	mux.HandleFunc("/api/v1/products", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"product-load"}`))
	})
	mux.HandleFunc("/api/v1/orders", func(w http.ResponseWriter, _ *http.Request) {
		id := atomic.AddInt64(&orderSeq, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"id":"order-%d"}`, id)
	})
	mux.HandleFunc("/api/v1/orders/", func(w http.ResponseWriter, _ *http.Request) {
		if failStatusChange {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid status transition"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"order-1","status":"in_progress"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &orderSeq
}

func TestRunScenarioAgainstFakeAPI(t *testing.T) {
	server, orderSeq := newFakeAPI(t, false)

	cfg := config{
		baseURL: server.URL,
		timeout: 2 * time.Second,
		mode:    modeCreateFinalize,
		price:   defaultPrice,
	}
	client := newAPIClient(cfg)

	clientID, productID, err := seedCatalog(client, cfg, "test-run")
	if err != nil {
		t.Fatalf("seedCatalog failed: %v", err)
	}
	if clientID != "client-load" || productID != "product-load" {
		t.Fatalf("unexpected catalog ids: %s/%s", clientID, productID)
	}

	col := newCollector()
	if err := runScenario(client, cfg, 0, clientID, productID, col); err != nil {
		t.Fatalf("runScenario failed: %v", err)
	}
	if atomic.LoadInt64(orderSeq) != 1 {
		t.Fatalf("expected 1 created order, got %d", atomic.LoadInt64(orderSeq))
	}

	result := col.buildReport(time.Now().Add(-time.Second), time.Second)
	if result.Methods["CreateOrder"].Calls != 1 {
		t.Fatalf("expected 1 CreateOrder call: %+v", result.Methods)
	}
	if result.Methods["ChangeStatus"].Calls != 2 {
		t.Fatalf("expected 2 ChangeStatus calls: %+v", result.Methods)
	}
	if result.FailedScenarios != 0 {
		t.Fatalf("expected no failed scenarios: %+v", result)
	}
}

func TestRunScenarioStatusFailure(t *testing.T) {
	server, _ := newFakeAPI(t, true)

	cfg := config{
		baseURL: server.URL,
		timeout: 2 * time.Second,
		mode:    modeCreateCancel,
		// cancelRate 100: каждый сценарий пытается отменить заказ
		cancelRate: 100,
		price:      defaultPrice,
	}
	client := newAPIClient(cfg)
	col := newCollector()

	err := runScenario(client, cfg, 0, "client-load", "product-load", col)
	if err == nil {
		t.Fatal("expected scenario error when status change fails")
	}

	result := col.buildReport(time.Now().Add(-time.Second), time.Second)
	if result.FailedScenarios != 1 {
		t.Fatalf("expected 1 failed scenario: %+v", result)
	}
	if result.Methods["ChangeStatus"].Statuses["400"] != 1 {
		t.Fatalf("expected one 400 status: %+v", result.Methods["ChangeStatus"].Statuses)
	}
}

func TestAPIClientAuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newAPIClient(config{baseURL: server.URL, token: "load-token", timeout: time.Second})
	status, _, err := client.call(http.MethodGet, "/api/v1/orders", nil)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if gotAuth != "Bearer load-token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
}

func TestPrintReport(t *testing.T) {
	result := report{
		TotalScenarios:   4,
		SuccessScenarios: 3,
		FailedScenarios:  1,
		ErrorRate:        0.25,
		RPS:              4,
		DurationSeconds:  1,
		Methods: map[string]methodReport{
			"scenario":    {Calls: 4},
			"CreateOrder": {Calls: 4, Success: 3, Failed: 1, ErrorRate: 0.25},
		},
	}

	output := captureStdout(t, func() {
		printReport(result, config{mode: modeCreate, total: 4})
	})

	if !strings.Contains(output, "Load test summary") {
		t.Errorf("missing summary header: %s", output)
	}
	if !strings.Contains(output, "CreateOrder") {
		t.Errorf("missing method line: %s", output)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	return string(raw)
}
