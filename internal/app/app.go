package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dex-sniper/internal/agent"
	"dex-sniper/internal/config"
	"dex-sniper/internal/execution"
	"dex-sniper/internal/monitor"
	"dex-sniper/internal/store"
	"dex-sniper/internal/venue"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 初始化代理与监控并驱动主循环，直到收到退出信号。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("狙击系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("in_mint", a.cfg.Pair.InMint),
		zap.String("out_mint", a.cfg.Pair.OutMint),
		zap.Strings("priority", a.cfg.Venues.Priority),
	)

	monitorSvc, err := monitor.NewService(a.store, a.logger)
	if err != nil {
		return err
	}

	providers := []venue.Provider{
		venue.NewJupiterClient(a.cfg.Venues.Jupiter.BaseURL, a.cfg.Venues.RequestTimeout, a.logger),
		venue.NewOrcaClient(a.cfg.Venues.Orca.BaseURL, a.cfg.Venues.RequestTimeout, a.logger),
	}

	sniper, err := agent.New(
		a.cfg.Pair,
		a.cfg.Strategy,
		a.cfg.Venues,
		providers,
		execution.NewBuilders(a.cfg.Venues),
		a.logger,
	)
	if err != nil {
		return err
	}

	if a.cfg.Monitor.Enabled {
		if err := startMonitorServer(ctx, monitorSvc, a.cfg.Monitor.Port, a.logger); err != nil {
			return err
		}
	}

	loopInterval := a.cfg.Scheduler.LoopInterval
	if loopInterval <= 0 {
		loopInterval = 30 * time.Second
	}

	if err := a.tick(ctx, sniper, monitorSvc); err != nil {
		a.logger.Error("首次执行失败", zap.Error(err))
	}

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			if err := a.tick(ctx, sniper, monitorSvc); err != nil {
				a.logger.Error("执行调度失败", zap.Error(err))
			}
		}
	}
}

// tick 执行一轮 plan，并在正向决策时生成执行计划交由外部签名提交。
func (a *App) tick(ctx context.Context, sniper *agent.Agent, mon *monitor.Service) error {
	decision, quotes := sniper.Plan(ctx)
	mon.RecordDecision(ctx, decision, quotes)

	if !decision.Execute {
		a.logger.Info("本轮不执行",
			zap.String("reason", decision.Reason),
			zap.Int("quotes", len(quotes)),
		)
		return nil
	}

	plan, err := sniper.BuildExecution()
	if err != nil {
		mon.RecordError(ctx, "构建执行计划失败", err, map[string]interface{}{"venue": decision.Venue})
		return err
	}
	mon.RecordExecutionPlan(ctx, plan)

	request, err := json.Marshal(plan.Request)
	if err != nil {
		return fmt.Errorf("序列化执行请求失败: %w", err)
	}

	a.logger.Info("执行计划已生成，等待外部签名提交",
		zap.String("venue", plan.Venue),
		zap.String("endpoint", plan.SwapEndpoint),
		zap.String("improvement_bps", decision.ImprovementBps.String()),
		zap.Int64("out_amount", plan.Quote.OutAmount),
		zap.ByteString("request", request),
	)
	return nil
}
