package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dex-sniper/internal/config"
)

// JupiterClient 通过 Jupiter v6 quote API 获取报价。
type JupiterClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewJupiterClient 创建 Jupiter 报价客户端。
func NewJupiterClient(baseURL string, timeout time.Duration, logger *zap.Logger) *JupiterClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JupiterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Venue 返回场所标识。
func (c *JupiterClient) Venue() string {
	return VenueJupiter
}

type jupiterQuoteResponse struct {
	OutAmount   string `json:"outAmount"`
	SlippageBps int64  `json:"slippageBps"`
	RoutePlan   []struct {
		SwapInfo struct {
			AmmKey string `json:"ammKey"`
		} `json:"swapInfo"`
	} `json:"routePlan"`
}

// FetchQuote 请求 {base}/quote 并解析为标准化 Quote。
func (c *JupiterClient) FetchQuote(ctx context.Context, pair config.PairConfig) (Quote, error) {
	params := url.Values{}
	params.Set("inputMint", pair.InMint)
	params.Set("outputMint", pair.OutMint)
	params.Set("amount", strconv.FormatInt(pair.AmountIn, 10))
	params.Set("slippageBps", strconv.FormatInt(pair.SlippageBps, 10))
	params.Set("swapMode", "ExactIn")
	params.Set("onlyDirectRoutes", "true")

	endpoint := c.baseURL + "/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("jupiter: 构造请求失败: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("jupiter: 请求报价失败: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return Quote{}, fmt.Errorf("%w: jupiter status %d", ErrUnsupportedPair, resp.StatusCode)
	default:
		return Quote{}, fmt.Errorf("jupiter: 报价接口返回状态 %d", resp.StatusCode)
	}

	var body jupiterQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	outAmount, err := strconv.ParseInt(body.OutAmount, 10, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: outAmount=%q", ErrMalformedResponse, body.OutAmount)
	}

	// Jupiter 在响应中回报自身的滑点上限；缺失时回退到配置上限。
	slippage := body.SlippageBps
	if slippage <= 0 {
		slippage = pair.SlippageBps
	}

	route := map[string]string{"best_route": ""}
	if len(body.RoutePlan) > 0 {
		route["best_route"] = body.RoutePlan[0].SwapInfo.AmmKey
	}

	c.logger.Debug("已获取报价",
		zap.String("venue", VenueJupiter),
		zap.Int64("out_amount", outAmount),
		zap.Int64("slippage_bps", slippage),
	)

	return Quote{
		Venue:       VenueJupiter,
		InMint:      pair.InMint,
		OutMint:     pair.OutMint,
		InAmount:    pair.AmountIn,
		OutAmount:   outAmount,
		SlippageBps: slippage,
		Price:       PriceOf(outAmount, pair.AmountIn),
		Route:       route,
	}, nil
}
