package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dex-sniper/internal/config"
	"dex-sniper/internal/execution"
	"dex-sniper/internal/strategy"
	"dex-sniper/internal/venue"
)

var (
	// ErrNotPlanned 表示尚未产生任何决策，属于调用方状态误用。
	ErrNotPlanned = errors.New("agent: 尚未调用 Plan，无法构建执行计划")
	// ErrDecisionNegative 表示最近一次决策为不执行。
	ErrDecisionNegative = errors.New("agent: 最近一次决策未通过，禁止构建执行计划")
)

// Agent 编排报价获取、策略评估与执行计划构建。
// last 是核心中唯一的可变状态：每次 Plan 覆写（而非累积）最近一次决策，
// 互斥锁保证同一实例上至多一个 Plan 在途。
type Agent struct {
	pair        config.PairConfig
	strategyCfg config.StrategyConfig
	priority    []string
	timeout     time.Duration
	providers   []venue.Provider
	builders    map[string]execution.Builder
	logger      *zap.Logger

	mu   sync.Mutex
	last *strategy.Decision
}

// New 创建狙击代理。providers 会按配置的优先级排序，保证报价结果
// 与拉取完成顺序无关。
func New(
	pair config.PairConfig,
	strategyCfg config.StrategyConfig,
	venues config.VenuesConfig,
	providers []venue.Provider,
	builders map[string]execution.Builder,
	logger *zap.Logger,
) (*Agent, error) {
	if len(providers) == 0 {
		return nil, errors.New("agent: 至少需要一个报价来源")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	byVenue := make(map[string]venue.Provider, len(providers))
	for _, p := range providers {
		if _, dup := byVenue[p.Venue()]; dup {
			return nil, fmt.Errorf("agent: 场所 %q 注册了多个报价来源", p.Venue())
		}
		byVenue[p.Venue()] = p
	}

	ordered := make([]venue.Provider, 0, len(providers))
	for _, name := range venues.Priority {
		if p, ok := byVenue[name]; ok {
			ordered = append(ordered, p)
			delete(byVenue, name)
		}
	}
	for _, p := range providers {
		if _, ok := byVenue[p.Venue()]; ok {
			ordered = append(ordered, p)
		}
	}

	return &Agent{
		pair:        pair,
		strategyCfg: strategyCfg,
		priority:    venues.Priority,
		timeout:     venues.RequestTimeout,
		providers:   ordered,
		builders:    builders,
		logger:      logger,
	}, nil
}

// FetchQuotes 并发向全部场所拉取报价，整体耗时受限于最慢的一路而非各路之和。
// 单个场所超时或失败只会让该场所本轮缺席，不会中断其他场所。
// 返回结果按优先级顺序排列，与各路完成顺序无关。
func (a *Agent) FetchQuotes(ctx context.Context) []venue.Quote {
	results := make([]*venue.Quote, len(a.providers))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, provider := range a.providers {
		i, provider := i, provider
		group.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(groupCtx, a.timeout)
			defer cancel()

			quote, err := provider.FetchQuote(fetchCtx, a.pair)
			if err != nil {
				a.logger.Warn("场所报价失败，本轮跳过",
					zap.String("venue", provider.Venue()),
					zap.String("kind", venue.Classify(err)),
					zap.Error(err),
				)
				return nil
			}

			results[i] = &quote
			return nil
		})
	}
	// 各协程自行吞掉场所级错误，Wait 仅用于汇合。
	_ = group.Wait()

	quotes := make([]venue.Quote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return quotes
}

// Plan 拉取报价并评估，返回决策与本轮全部报价。
// 决策被写入唯一的 last 槽位，供随后的 BuildExecution 使用。
func (a *Agent) Plan(ctx context.Context) (strategy.Decision, []venue.Quote) {
	a.mu.Lock()
	defer a.mu.Unlock()

	quotes := a.FetchQuotes(ctx)
	decision := strategy.Evaluate(quotes, a.pair, a.strategyCfg, a.priority)
	a.last = &decision

	return decision, quotes
}

// BuildExecution 将最近一次正向决策物化为执行计划。
// 未经 Plan 或决策为负时同步返回状态误用错误，绝不推测性构建。
func (a *Agent) BuildExecution() (execution.Plan, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last == nil {
		return execution.Plan{}, ErrNotPlanned
	}

	decision := *a.last
	if !decision.Execute || decision.Selected == nil {
		return execution.Plan{}, fmt.Errorf("%w: %s", ErrDecisionNegative, decision.Reason)
	}

	builder, ok := a.builders[decision.Venue]
	if !ok {
		return execution.Plan{}, fmt.Errorf("agent: 场所 %q 未注册执行构建器", decision.Venue)
	}

	return builder.Build(*decision.Selected, a.pair)
}
