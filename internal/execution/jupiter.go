package execution

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dex-sniper/internal/config"
	"dex-sniper/internal/venue"
)

// JupiterBuilder 组装 Jupiter /swap 请求载荷。
type JupiterBuilder struct {
	baseURL string
}

// NewJupiterBuilder 创建 Jupiter 执行构建器。
func NewJupiterBuilder(baseURL string) *JupiterBuilder {
	return &JupiterBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// Venue 返回场所标识。
func (b *JupiterBuilder) Venue() string {
	return venue.VenueJupiter
}

// Build 由获胜报价与交易对配置生成换币请求。载荷形状遵循 Jupiter
// swap 接口，userPublicKey 等签名相关字段由外部提交方补齐。
func (b *JupiterBuilder) Build(quote venue.Quote, pair config.PairConfig) (Plan, error) {
	if quote.Venue != venue.VenueJupiter {
		return Plan{}, fmt.Errorf("execution: 报价场所 %q 与构建器不匹配", quote.Venue)
	}

	request := map[string]interface{}{
		"quoteResponse": map[string]interface{}{
			"inputMint":   pair.InMint,
			"outputMint":  pair.OutMint,
			"inAmount":    strconv.FormatInt(pair.AmountIn, 10),
			"outAmount":   strconv.FormatInt(quote.OutAmount, 10),
			"slippageBps": quote.SlippageBps,
			"routePlan": []map[string]interface{}{
				{
					"swapInfo": map[string]interface{}{
						"ammKey": quote.Route["best_route"],
					},
				},
			},
		},
		"wrapAndUnwrapSol": true,
	}

	return Plan{
		Venue:        venue.VenueJupiter,
		SwapEndpoint: b.baseURL + "/swap",
		Request:      request,
		Quote:        quote,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
