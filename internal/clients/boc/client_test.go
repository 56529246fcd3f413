package boc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetObservations(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"observations": [
				{"d": "2024-03-14", "FXUSDCAD": {"v": "1.3510"}},
				{"d": "2024-03-15", "FXUSDCAD": {"v": "1.3520"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	from := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	observations, err := client.GetObservations(context.Background(), "USD", "CAD", from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/observations/FXUSDCAD/json" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotQuery != "start_date=2024-03-11&end_date=2024-03-15" {
		t.Errorf("unexpected query: %s", gotQuery)
	}

	if len(observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(observations))
	}
	if observations[0].Date != "2024-03-14" || observations[0].Rate != 1.3510 {
		t.Errorf("unexpected first observation: %+v", observations[0])
	}
	if observations[1].Date != "2024-03-15" || observations[1].Rate != 1.3520 {
		t.Errorf("unexpected second observation: %+v", observations[1])
	}
}

func TestGetObservations_SkipsInvalidValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"observations": [
				{"d": "2024-03-13", "FXUSDCAD": {"v": "not-a-number"}},
				{"d": "2024-03-14", "FXUSDCAD": {"v": "-1.0"}},
				{"d": "", "FXUSDCAD": {"v": "1.3500"}},
				{"d": "2024-03-15", "FXUSDCAD": {"v": "1.3520"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	observations, err := client.GetObservations(context.Background(), "USD", "CAD",
		time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(observations) != 1 {
		t.Fatalf("expected 1 valid observation, got %d", len(observations))
	}
	if observations[0].Rate != 1.3520 {
		t.Errorf("unexpected rate: %f", observations[0].Rate)
	}
}

func TestGetObservations_UnknownSeriesIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "series not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	observations, err := client.GetObservations(context.Background(), "XXX", "CAD",
		time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("404 should mean no data, got error: %v", err)
	}
	if len(observations) != 0 {
		t.Errorf("expected no observations, got %d", len(observations))
	}
}

func TestGetObservations_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.GetObservations(context.Background(), "USD", "CAD",
		time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("unexpected status: %d", apiErr.StatusCode)
	}
}
