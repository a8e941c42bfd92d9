package venue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOrcaFetchQuote_ParsesResponse(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/whirlpool/quote" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"quotedAmount": "100250000",
			"poolAddress": "Whirl111",
			"tickCurrentIndex": 128
		}`))
	}))
	defer server.Close()

	client := NewOrcaClient(server.URL, time.Second, nil)
	quote, err := client.FetchQuote(context.Background(), testPair())
	if err != nil {
		t.Fatalf("FetchQuote returned error: %v", err)
	}

	// 50bps -> 0.005
	if gotQuery["slippageTolerance"] != "0.005" {
		t.Errorf("slippage tolerance not converted: %v", gotQuery)
	}
	if gotQuery["amountSpecifiedIsInput"] != "true" {
		t.Errorf("amountSpecifiedIsInput not forwarded: %v", gotQuery)
	}

	if quote.Venue != VenueOrca {
		t.Errorf("unexpected venue %s", quote.Venue)
	}
	if quote.OutAmount != 100_250_000 {
		t.Errorf("unexpected out amount %d", quote.OutAmount)
	}
	// Orca 不自报滑点，一律采用配置上限。
	if quote.SlippageBps != 50 {
		t.Errorf("expected configured ceiling 50, got %d", quote.SlippageBps)
	}
	if quote.Route["pool"] != "Whirl111" || quote.Route["tick"] != "128" {
		t.Errorf("route not captured: %v", quote.Route)
	}
}

func TestOrcaFetchQuote_MissingQuotedAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"poolAddress": "Whirl111"}`))
	}))
	defer server.Close()

	client := NewOrcaClient(server.URL, time.Second, nil)
	if _, err := client.FetchQuote(context.Background(), testPair()); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestOrcaFetchQuote_UnsupportedPair(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown pool", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOrcaClient(server.URL, time.Second, nil)
	if _, err := client.FetchQuote(context.Background(), testPair()); !errors.Is(err, ErrUnsupportedPair) {
		t.Fatalf("expected ErrUnsupportedPair, got %v", err)
	}
}
