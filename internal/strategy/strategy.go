package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"dex-sniper/internal/config"
	"dex-sniper/internal/venue"
)

var bpsScale = decimal.NewFromInt(10000)

// Evaluate 对一组报价做确定性裁决。纯函数：无 I/O、无跨调用状态，
// 相同输入必然产生逐字节相同的 Decision。
//
// 关卡依次为：改善幅度 >= min_improvement_bps、滑点 <= max_slippage_bps、
// 产出 >= min_out_amount，全部为闭区间比较。胜者为存活报价中产出最高者，
// 产出相同时按 priority 中靠前的场所裁决。
func Evaluate(quotes []venue.Quote, pair config.PairConfig, cfg config.StrategyConfig, priority []string) Decision {
	ranked := rank(discardMalformed(quotes), priority)
	if len(ranked) == 0 {
		return Decision{
			ImprovementBps: decimal.Zero,
			ReferencePrice: cfg.ReferencePrice,
			Reason:         ReasonNoValidQuotes,
		}
	}

	// ranked 按产出降序排列，第一条通过全部关卡的报价即为
	// 存活集合中产出最高者。
	for i := range ranked {
		improvement := improvementBps(ranked[i], pair, cfg)
		if passesGates(ranked[i], improvement, cfg) {
			selected := ranked[i]
			return Decision{
				Execute:        true,
				Venue:          selected.Venue,
				ImprovementBps: improvement,
				ReferencePrice: cfg.ReferencePrice,
				Selected:       &selected,
			}
		}
	}

	// 无报价存活时，以排序最优的有效报价为准报告首个未通过的关卡。
	best := ranked[0]
	improvement := improvementBps(best, pair, cfg)
	return Decision{
		Venue:          best.Venue,
		ImprovementBps: improvement,
		ReferencePrice: cfg.ReferencePrice,
		Reason:         firstFailingGate(best, improvement, cfg),
	}
}

// discardMalformed 剔除产出非正的报价（场所响应畸形），它们不参与选择。
func discardMalformed(quotes []venue.Quote) []venue.Quote {
	valid := make([]venue.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.OutAmount > 0 {
			valid = append(valid, q)
		}
	}
	return valid
}

// rank 按产出降序排序，产出相同按固定优先级裁决，保证平票确定性。
func rank(quotes []venue.Quote, priority []string) []venue.Quote {
	index := make(map[string]int, len(priority))
	for i, name := range priority {
		index[name] = i
	}

	rankOf := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return len(priority)
	}

	ranked := make([]venue.Quote, len(quotes))
	copy(ranked, quotes)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].OutAmount != ranked[j].OutAmount {
			return ranked[i].OutAmount > ranked[j].OutAmount
		}
		return rankOf(ranked[i].Venue) < rankOf(ranked[j].Venue)
	})
	return ranked
}

// improvementBps 计算相对参考价的改善幅度（bps）。
// 全程 decimal 运算，除法精度由 decimal 包固定，不做额外舍入，
// 保证每次调用使用同一套运算规则。
func improvementBps(q venue.Quote, pair config.PairConfig, cfg config.StrategyConfig) decimal.Decimal {
	if !cfg.ReferencePrice.IsPositive() {
		return decimal.Zero
	}
	price := venue.PriceOf(q.OutAmount, pair.AmountIn)
	return price.Sub(cfg.ReferencePrice).Div(cfg.ReferencePrice).Mul(bpsScale)
}

func passesGates(q venue.Quote, improvement decimal.Decimal, cfg config.StrategyConfig) bool {
	return improvement.GreaterThanOrEqual(cfg.MinImprovementBps) &&
		q.SlippageBps <= cfg.MaxSlippageBps &&
		q.OutAmount >= cfg.MinOutAmount
}

// firstFailingGate 按改善、滑点、产出下限的固定顺序报告首个失败关卡。
func firstFailingGate(q venue.Quote, improvement decimal.Decimal, cfg config.StrategyConfig) string {
	switch {
	case improvement.LessThan(cfg.MinImprovementBps):
		return ReasonInsufficientImprovement
	case q.SlippageBps > cfg.MaxSlippageBps:
		return ReasonSlippageExceedsCeiling
	case q.OutAmount < cfg.MinOutAmount:
		return ReasonOutputBelowFloor
	default:
		return ""
	}
}
