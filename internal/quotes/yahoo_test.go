package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const chartBody = `{
	"chart": {
		"result": [{
			"meta": {"regularMarketPrice": 42.5, "regularMarketTime": 1741615200},
			"timestamp": [1741442400, 1741528800, 1741615200],
			"indicators": {"quote": [{"close": [41.0, null, 42.5]}]}
		}],
		"error": null
	}
}`

func TestYahooHistoryParsesCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/PETR4.SA" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "7d" || r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	client := NewYahooClient(srv.URL, time.Second)
	points, err := client.History(context.Background(), "PETR4.SA", Day7)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	// The null close must be dropped.
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Close != 41.0 || points[1].Close != 42.5 {
		t.Errorf("unexpected closes: %+v", points)
	}
	if !points[0].Date.Before(points[1].Date) {
		t.Error("points must be ascending by date")
	}
}

func TestYahooLatestUsesLastClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	client := NewYahooClient(srv.URL, time.Second)
	quote, err := client.Latest(context.Background(), "PETR4.SA")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if quote.Price != 42.5 {
		t.Errorf("expected 42.5, got %v", quote.Price)
	}
	if quote.Ticker != "PETR4.SA" {
		t.Errorf("unexpected ticker %q", quote.Ticker)
	}
}

func TestYahooNotAvailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"not found": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
		"upstream error": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`)
		},
		"all closes null": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart": {"result": [{"timestamp": [1741442400], "indicators": {"quote": [{"close": [null]}]}}], "error": null}}`)
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			client := NewYahooClient(srv.URL, time.Second)
			_, err := client.History(context.Background(), "NOPE.SA", Day1)
			if !errors.Is(err, ErrNotAvailable) {
				t.Fatalf("expected ErrNotAvailable, got %v", err)
			}
		})
	}
}

func TestYahooServerErrorIsNotSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewYahooClient(srv.URL, time.Second)
	_, err := client.History(context.Background(), "PETR4.SA", Day1)
	if err == nil {
		t.Fatal("expected error on status 500")
	}
	if errors.Is(err, ErrNotAvailable) {
		t.Fatal("a server failure is not the same as missing data")
	}
}
