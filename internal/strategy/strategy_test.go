package strategy

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"dex-sniper/internal/config"
	"dex-sniper/internal/venue"
)

func makePair() config.PairConfig {
	return config.PairConfig{
		InMint:      "So11111111111111111111111111111111111111112",
		OutMint:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		AmountIn:    1_000_000,
		SlippageBps: 50,
	}
}

func makeStrategyCfg() config.StrategyConfig {
	return config.StrategyConfig{
		ReferencePrice:    decimal.RequireFromString("100"),
		MinImprovementBps: decimal.RequireFromString("25"),
		MaxSlippageBps:    100,
		MinOutAmount:      99_000_000,
	}
}

func makeQuote(v string, outAmount, slippageBps int64) venue.Quote {
	pair := makePair()
	return venue.Quote{
		Venue:       v,
		InMint:      pair.InMint,
		OutMint:     pair.OutMint,
		InAmount:    pair.AmountIn,
		OutAmount:   outAmount,
		SlippageBps: slippageBps,
		Price:       venue.PriceOf(outAmount, pair.AmountIn),
		Route:       map[string]string{"best_route": "amm"},
	}
}

var defaultPriority = []string{venue.VenueJupiter, venue.VenueOrca}

func TestEvaluate_EmptyQuotes(t *testing.T) {
	decision := Evaluate(nil, makePair(), makeStrategyCfg(), defaultPriority)
	if decision.Execute {
		t.Fatalf("expected execute=false for empty quote set")
	}
	if decision.Reason != ReasonNoValidQuotes {
		t.Fatalf("unexpected reason: got %q want %q", decision.Reason, ReasonNoValidQuotes)
	}
	if decision.Selected != nil {
		t.Fatalf("expected no selected quote")
	}
}

func TestEvaluate_DiscardsMalformedQuotes(t *testing.T) {
	quotes := []venue.Quote{
		makeQuote(venue.VenueJupiter, 0, 50),
		makeQuote(venue.VenueOrca, 100_300_000, 50),
	}

	decision := Evaluate(quotes, makePair(), makeStrategyCfg(), defaultPriority)
	if !decision.Execute {
		t.Fatalf("expected execute=true, got reason %q", decision.Reason)
	}
	if decision.Venue != venue.VenueOrca {
		t.Fatalf("expected orca to win, got %s", decision.Venue)
	}

	allMalformed := []venue.Quote{
		makeQuote(venue.VenueJupiter, 0, 50),
		makeQuote(venue.VenueOrca, -1, 50),
	}
	decision = Evaluate(allMalformed, makePair(), makeStrategyCfg(), defaultPriority)
	if decision.Execute || decision.Reason != ReasonNoValidQuotes {
		t.Fatalf("expected no valid quotes, got execute=%v reason=%q", decision.Execute, decision.Reason)
	}
}

func TestEvaluate_EndToEndExample(t *testing.T) {
	// reference=100, min_improvement=25bps, max_slippage=100bps,
	// min_out=99_000_000, amount_in=1_000_000.
	pair := makePair()
	cfg := makeStrategyCfg()

	// 100_300_000 -> price 100.3 -> improvement 30bps, pair slippage 50 <= 100.
	passing := []venue.Quote{makeQuote(venue.VenueJupiter, 100_300_000, 50)}
	decision := Evaluate(passing, pair, cfg, defaultPriority)
	if !decision.Execute {
		t.Fatalf("expected execute=true, got reason %q", decision.Reason)
	}
	if decision.Venue != venue.VenueJupiter {
		t.Fatalf("expected jupiter selected, got %s", decision.Venue)
	}
	if want := decimal.RequireFromString("30"); !decision.ImprovementBps.Equal(want) {
		t.Fatalf("unexpected improvement: got %s want %s", decision.ImprovementBps, want)
	}

	// 100_200_000 -> improvement 20bps < 25bps.
	failing := []venue.Quote{makeQuote(venue.VenueJupiter, 100_200_000, 50)}
	decision = Evaluate(failing, pair, cfg, defaultPriority)
	if decision.Execute {
		t.Fatalf("expected execute=false")
	}
	if decision.Reason != ReasonInsufficientImprovement {
		t.Fatalf("unexpected reason: got %q want %q", decision.Reason, ReasonInsufficientImprovement)
	}
}

func TestEvaluate_BoundaryExactness(t *testing.T) {
	pair := makePair()
	cfg := makeStrategyCfg()

	// improvement == min_improvement_bps 恰好通过。
	exact := []venue.Quote{makeQuote(venue.VenueJupiter, 100_250_000, 50)}
	if decision := Evaluate(exact, pair, cfg, defaultPriority); !decision.Execute {
		t.Fatalf("exact improvement boundary should pass, got reason %q", decision.Reason)
	}

	// 低一个bps即失败。
	below := []venue.Quote{makeQuote(venue.VenueJupiter, 100_240_000, 50)}
	if decision := Evaluate(below, pair, cfg, defaultPriority); decision.Execute {
		t.Fatalf("one bps below improvement threshold should fail")
	}

	// slippage == max_slippage_bps 恰好通过，高一个bps失败。
	atCeiling := []venue.Quote{makeQuote(venue.VenueJupiter, 100_300_000, 100)}
	if decision := Evaluate(atCeiling, pair, cfg, defaultPriority); !decision.Execute {
		t.Fatalf("slippage at ceiling should pass, got reason %q", decision.Reason)
	}
	overCeiling := []venue.Quote{makeQuote(venue.VenueJupiter, 100_300_000, 101)}
	decision := Evaluate(overCeiling, pair, cfg, defaultPriority)
	if decision.Execute || decision.Reason != ReasonSlippageExceedsCeiling {
		t.Fatalf("slippage over ceiling should fail with %q, got execute=%v reason=%q",
			ReasonSlippageExceedsCeiling, decision.Execute, decision.Reason)
	}

	// output == min_out_amount 恰好通过，低一即失败。
	floorCfg := cfg
	floorCfg.MinImprovementBps = decimal.Zero
	floorCfg.MinOutAmount = 100_300_000
	atFloor := []venue.Quote{makeQuote(venue.VenueJupiter, 100_300_000, 50)}
	if decision := Evaluate(atFloor, pair, floorCfg, defaultPriority); !decision.Execute {
		t.Fatalf("output at floor should pass, got reason %q", decision.Reason)
	}
	belowFloor := []venue.Quote{makeQuote(venue.VenueJupiter, 100_299_999, 50)}
	decision = Evaluate(belowFloor, pair, floorCfg, defaultPriority)
	if decision.Execute || decision.Reason != ReasonOutputBelowFloor {
		t.Fatalf("output below floor should fail with %q, got execute=%v reason=%q",
			ReasonOutputBelowFloor, decision.Execute, decision.Reason)
	}
}

func TestEvaluate_Determinism(t *testing.T) {
	quotes := []venue.Quote{
		makeQuote(venue.VenueOrca, 100_300_000, 50),
		makeQuote(venue.VenueJupiter, 100_250_000, 50),
	}

	first := Evaluate(quotes, makePair(), makeStrategyCfg(), defaultPriority)
	for i := 0; i < 10; i++ {
		again := Evaluate(quotes, makePair(), makeStrategyCfg(), defaultPriority)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("evaluate is not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestEvaluate_TieBreakByPriority(t *testing.T) {
	quotes := []venue.Quote{
		makeQuote(venue.VenueOrca, 100_300_000, 50),
		makeQuote(venue.VenueJupiter, 100_300_000, 50),
	}

	decision := Evaluate(quotes, makePair(), makeStrategyCfg(), []string{venue.VenueJupiter, venue.VenueOrca})
	if decision.Venue != venue.VenueJupiter {
		t.Fatalf("expected jupiter by priority, got %s", decision.Venue)
	}

	decision = Evaluate(quotes, makePair(), makeStrategyCfg(), []string{venue.VenueOrca, venue.VenueJupiter})
	if decision.Venue != venue.VenueOrca {
		t.Fatalf("expected orca by priority, got %s", decision.Venue)
	}

	// 平票裁决与报价在输入中的顺序无关。
	reversed := []venue.Quote{quotes[1], quotes[0]}
	decision = Evaluate(reversed, makePair(), makeStrategyCfg(), []string{venue.VenueOrca, venue.VenueJupiter})
	if decision.Venue != venue.VenueOrca {
		t.Fatalf("tie-break should ignore input order, got %s", decision.Venue)
	}
}

func TestEvaluate_HigherOutputNeverDemotes(t *testing.T) {
	pair := makePair()
	cfg := makeStrategyCfg()

	base := []venue.Quote{
		makeQuote(venue.VenueJupiter, 100_300_000, 50),
		makeQuote(venue.VenueOrca, 100_250_000, 50),
	}
	decision := Evaluate(base, pair, cfg, defaultPriority)
	if !decision.Execute || decision.Venue != venue.VenueJupiter {
		t.Fatalf("expected jupiter to win baseline")
	}

	// 提高已胜报价的产出不会使其落选，也不会让决策翻负。
	improved := []venue.Quote{
		makeQuote(venue.VenueJupiter, 100_400_000, 50),
		makeQuote(venue.VenueOrca, 100_250_000, 50),
	}
	decision = Evaluate(improved, pair, cfg, defaultPriority)
	if !decision.Execute || decision.Venue != venue.VenueJupiter {
		t.Fatalf("raising winner output must keep it selected, got execute=%v venue=%s",
			decision.Execute, decision.Venue)
	}
}

func TestEvaluate_FailingQuoteDoesNotBlockSurvivor(t *testing.T) {
	// 产出更高但滑点超限的报价不参与选择，不应挡住合规报价。
	quotes := []venue.Quote{
		makeQuote(venue.VenueJupiter, 100_400_000, 200),
		makeQuote(venue.VenueOrca, 100_300_000, 50),
	}

	decision := Evaluate(quotes, makePair(), makeStrategyCfg(), defaultPriority)
	if !decision.Execute {
		t.Fatalf("expected surviving quote to win, got reason %q", decision.Reason)
	}
	if decision.Venue != venue.VenueOrca {
		t.Fatalf("expected orca, got %s", decision.Venue)
	}
}

func TestEvaluate_SelectedSatisfiesAllGates(t *testing.T) {
	quotes := []venue.Quote{makeQuote(venue.VenueJupiter, 100_300_000, 50)}
	cfg := makeStrategyCfg()

	decision := Evaluate(quotes, makePair(), cfg, defaultPriority)
	if !decision.Execute || decision.Selected == nil {
		t.Fatalf("expected positive decision with selected quote")
	}
	if decision.Selected.OutAmount < cfg.MinOutAmount {
		t.Errorf("selected quote violates output floor")
	}
	if decision.Selected.SlippageBps > cfg.MaxSlippageBps {
		t.Errorf("selected quote violates slippage ceiling")
	}
	if decision.ImprovementBps.LessThan(cfg.MinImprovementBps) {
		t.Errorf("selected quote violates improvement threshold")
	}
}
