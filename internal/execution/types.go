package execution

import (
	"time"

	"dex-sniper/internal/config"
	"dex-sniper/internal/venue"
)

// Plan 描述一次可交付外部签名/提交组件的换币请求。
// 仅在正向决策之后构建，载荷中不包含任何签名字段。
type Plan struct {
	Venue        string                 `json:"venue"`
	SwapEndpoint string                 `json:"swap_endpoint"`
	Request      map[string]interface{} `json:"request"`
	Quote        venue.Quote            `json:"quote"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// Builder 将获胜报价物化为指定场所的请求载荷。
type Builder interface {
	Venue() string
	Build(quote venue.Quote, pair config.PairConfig) (Plan, error)
}

// NewBuilders 按场所标识注册全部执行构建器。
func NewBuilders(cfg config.VenuesConfig) map[string]Builder {
	return map[string]Builder{
		venue.VenueJupiter: NewJupiterBuilder(cfg.Jupiter.BaseURL),
		venue.VenueOrca:    NewOrcaBuilder(cfg.Orca.BaseURL),
	}
}
