package namedex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQuery_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/query" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["query"] != "주문 취소" {
			t.Errorf("query = %q", body["query"])
		}
		_ = json.NewEncoder(w).Encode(QueryResponse{
			Answer: "cancelOrder",
			Cited:  []string{"rule-002"},
			Status: "success",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, WithAPIKey("secret"))
	resp, err := client.Query(context.Background(), "주문 취소")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Answer != "cancelOrder" || resp.Status != "success" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestQuery_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "index_unavailable",
			"message": "index unavailable",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Query(context.Background(), "q")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable || apiErr.Code != "index_unavailable" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestHealth_DegradedBodyStillDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthReport{
			Status: "error",
			Checks: map[string]string{"llm": "error", "index": "error"},
		})
	}))
	defer srv.Close()

	report, err := New(srv.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if report.Status != "error" || report.Checks["llm"] != "error" {
		t.Errorf("report = %+v", report)
	}
}

func TestReload_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/reload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(ReloadReport{Documents: 42, TookMs: 7})
	}))
	defer srv.Close()

	report, err := New(srv.URL).Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if report.Documents != 42 {
		t.Errorf("Documents = %d", report.Documents)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://example.com/")
	if c.baseURL != "http://example.com" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}
