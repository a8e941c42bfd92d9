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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dex-sniper/internal/config"
)

// OrcaClient 通过 Orca whirlpool quote API 获取报价。
type OrcaClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewOrcaClient 创建 Orca 报价客户端。
func NewOrcaClient(baseURL string, timeout time.Duration, logger *zap.Logger) *OrcaClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrcaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Venue 返回场所标识。
func (c *OrcaClient) Venue() string {
	return VenueOrca
}

type orcaQuoteResponse struct {
	QuotedAmount     string `json:"quotedAmount"`
	PoolAddress      string `json:"poolAddress"`
	TickCurrentIndex int64  `json:"tickCurrentIndex"`
}

// FetchQuote 请求 {base}/whirlpool/quote 并解析为标准化 Quote。
// Orca 不回报自身的滑点上限，因此报价的滑点一律取配置上限。
func (c *OrcaClient) FetchQuote(ctx context.Context, pair config.PairConfig) (Quote, error) {
	tolerance := decimal.NewFromInt(pair.SlippageBps).Div(decimal.NewFromInt(10000))

	params := url.Values{}
	params.Set("inputMint", pair.InMint)
	params.Set("outputMint", pair.OutMint)
	params.Set("amount", strconv.FormatInt(pair.AmountIn, 10))
	params.Set("slippageTolerance", tolerance.String())
	params.Set("amountSpecifiedIsInput", "true")

	endpoint := c.baseURL + "/whirlpool/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("orca: 构造请求失败: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("orca: 请求报价失败: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return Quote{}, fmt.Errorf("%w: orca status %d", ErrUnsupportedPair, resp.StatusCode)
	default:
		return Quote{}, fmt.Errorf("orca: 报价接口返回状态 %d", resp.StatusCode)
	}

	var body orcaQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if body.QuotedAmount == "" {
		return Quote{}, fmt.Errorf("%w: 缺少 quotedAmount", ErrMalformedResponse)
	}

	outAmount, err := strconv.ParseInt(body.QuotedAmount, 10, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: quotedAmount=%q", ErrMalformedResponse, body.QuotedAmount)
	}

	route := map[string]string{
		"pool": body.PoolAddress,
		"tick": strconv.FormatInt(body.TickCurrentIndex, 10),
	}

	c.logger.Debug("已获取报价",
		zap.String("venue", VenueOrca),
		zap.Int64("out_amount", outAmount),
		zap.String("pool", body.PoolAddress),
	)

	return Quote{
		Venue:       VenueOrca,
		InMint:      pair.InMint,
		OutMint:     pair.OutMint,
		InAmount:    pair.AmountIn,
		OutAmount:   outAmount,
		SlippageBps: pair.SlippageBps,
		Price:       PriceOf(outAmount, pair.AmountIn),
		Route:       route,
	}, nil
}
