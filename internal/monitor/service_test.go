package monitor

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dex-sniper/internal/config"
	"dex-sniper/internal/execution"
	"dex-sniper/internal/store"
	"dex-sniper/internal/strategy"
	"dex-sniper/internal/venue"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := store.NewSQLite(config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "events.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	svc, err := NewService(st, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func testQuote() venue.Quote {
	return venue.Quote{
		Venue:       venue.VenueJupiter,
		InMint:      "MintIn111",
		OutMint:     "MintOut111",
		InAmount:    1_000_000,
		OutAmount:   100_300_000,
		SlippageBps: 50,
		Price:       venue.PriceOf(100_300_000, 1_000_000),
		Route:       map[string]string{"best_route": "amm"},
	}
}

func TestRecordDecision_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	quote := testQuote()
	decision := strategy.Decision{
		Execute:        true,
		Venue:          venue.VenueJupiter,
		ImprovementBps: decimal.RequireFromString("30"),
		ReferencePrice: decimal.RequireFromString("100"),
		Selected:       &quote,
	}

	svc.RecordDecision(ctx, decision, []venue.Quote{quote})

	events, err := svc.ListEvents(ctx, EventDecision, 10)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one decision event, got %d", len(events))
	}

	raw, ok := events[0].Payload.(json.RawMessage)
	if !ok {
		t.Fatalf("payload should be raw json, got %T", events[0].Payload)
	}

	var payload DecisionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("解析决策载荷失败: %v", err)
	}
	if !payload.Decision.Execute || payload.Decision.Venue != venue.VenueJupiter {
		t.Errorf("decision not preserved: %+v", payload.Decision)
	}
	if payload.QuoteCount != 1 || len(payload.Venues) != 1 {
		t.Errorf("quote metadata not preserved: %+v", payload)
	}
}

func TestRecordExecutionPlan_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plan := execution.Plan{
		Venue:        venue.VenueJupiter,
		SwapEndpoint: "https://jupiter.test/swap",
		Request:      map[string]interface{}{"wrapAndUnwrapSol": true},
		Quote:        testQuote(),
		GeneratedAt:  time.Now().UTC(),
	}

	svc.RecordExecutionPlan(ctx, plan)

	events, err := svc.ListEvents(ctx, EventExecutionPlan, 10)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one plan event, got %d", len(events))
	}

	var payload ExecutionPlanPayload
	if err := json.Unmarshal(events[0].Payload.(json.RawMessage), &payload); err != nil {
		t.Fatalf("解析执行计划载荷失败: %v", err)
	}
	if payload.Plan.SwapEndpoint != plan.SwapEndpoint {
		t.Errorf("endpoint not preserved: %q", payload.Plan.SwapEndpoint)
	}
}

func TestListEvents_FiltersByType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.RecordDecision(ctx, strategy.Decision{Reason: strategy.ReasonNoValidQuotes}, nil)
	svc.RecordError(ctx, "拉取报价失败", context.DeadlineExceeded, map[string]interface{}{"venue": venue.VenueOrca})

	decisions, err := svc.ListEvents(ctx, EventDecision, 10)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected one decision event, got %d", len(decisions))
	}

	all, err := svc.ListEvents(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two events in total, got %d", len(all))
	}
}

func TestListEvents_NewestFirstWithLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.RecordDecision(ctx, strategy.Decision{Reason: strategy.ReasonInsufficientImprovement}, nil)
	}

	events, err := svc.ListEvents(ctx, EventDecision, 3)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected limit to cap results at 3, got %d", len(events))
	}
}
