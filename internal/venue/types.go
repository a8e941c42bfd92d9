package venue

import (
	"context"

	"github.com/shopspring/decimal"

	"dex-sniper/internal/config"
)

// 场所标识与配置保持一致。
const (
	VenueJupiter = config.VenueJupiter
	VenueOrca    = config.VenueOrca
)

// Quote 表示单个聚合器返回的标准化报价。每次 Plan 调用都会重新拉取，
// 生成后不再修改。
type Quote struct {
	Venue    string `json:"venue"`
	InMint   string `json:"in_mint"`
	OutMint  string `json:"out_mint"`
	InAmount int64  `json:"in_amount"`
	// OutAmount 为场所报出的输出数量，最小单位。
	OutAmount int64 `json:"out_amount"`
	// SlippageBps 为本报价适用的最坏滑点上限：场所在响应中给出自身上限时
	// 采用场所值，否则回退到 PairConfig 配置的上限。
	SlippageBps int64 `json:"slippage_bps"`
	// Price 为 OutAmount/InAmount，与参考价同单位。
	Price decimal.Decimal `json:"price"`
	// Route 为场所专属的路由信息，核心逻辑不做解释，仅透传给执行构建。
	Route map[string]string `json:"route"`
}

// Provider 抽象单个聚合器的报价能力，是核心对外部 I/O 的唯一依赖边界。
type Provider interface {
	Venue() string
	FetchQuote(ctx context.Context, pair config.PairConfig) (Quote, error)
}

// PriceOf 以 decimal 计算有效价格，输入无效时返回零值。
func PriceOf(outAmount, inAmount int64) decimal.Decimal {
	if inAmount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(outAmount).Div(decimal.NewFromInt(inAmount))
}
