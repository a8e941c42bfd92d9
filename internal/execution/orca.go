package execution

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dex-sniper/internal/config"
	"dex-sniper/internal/venue"
)

// OrcaBuilder 组装 Orca whirlpool/swap 请求载荷。
type OrcaBuilder struct {
	baseURL string
}

// NewOrcaBuilder 创建 Orca 执行构建器。
func NewOrcaBuilder(baseURL string) *OrcaBuilder {
	return &OrcaBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// Venue 返回场所标识。
func (b *OrcaBuilder) Venue() string {
	return venue.VenueOrca
}

// Build 由获胜报价与交易对配置生成换币请求。
func (b *OrcaBuilder) Build(quote venue.Quote, pair config.PairConfig) (Plan, error) {
	if quote.Venue != venue.VenueOrca {
		return Plan{}, fmt.Errorf("execution: 报价场所 %q 与构建器不匹配", quote.Venue)
	}

	tolerance := decimal.NewFromInt(quote.SlippageBps).Div(decimal.NewFromInt(10000))

	request := map[string]interface{}{
		"poolAddress":            quote.Route["pool"],
		"inputMint":              pair.InMint,
		"outputMint":             pair.OutMint,
		"amount":                 strconv.FormatInt(pair.AmountIn, 10),
		"slippageTolerance":      tolerance.String(),
		"tickCurrentIndex":       quote.Route["tick"],
		"amountSpecifiedIsInput": true,
	}

	return Plan{
		Venue:        venue.VenueOrca,
		SwapEndpoint: b.baseURL + "/whirlpool/swap",
		Request:      request,
		Quote:        quote,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
