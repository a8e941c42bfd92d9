package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// 已支持的聚合器标识。
const (
	VenueJupiter = "jupiter"
	VenueOrca    = "orca"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Pair      PairConfig      `mapstructure:"pair"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// PairConfig 描述目标交易对。金额一律使用最小单位（lamports）。
type PairConfig struct {
	InMint      string `mapstructure:"in_mint" json:"in_mint"`
	OutMint     string `mapstructure:"out_mint" json:"out_mint"`
	AmountIn    int64  `mapstructure:"amount_in" json:"amount_in"`
	SlippageBps int64  `mapstructure:"slippage_bps" json:"slippage_bps"`
}

// StrategyConfig 描述狙击策略的判定阈值。
type StrategyConfig struct {
	ReferencePrice    decimal.Decimal `mapstructure:"reference_price" json:"reference_price"`
	MinImprovementBps decimal.Decimal `mapstructure:"min_improvement_bps" json:"min_improvement_bps"`
	MaxSlippageBps    int64           `mapstructure:"max_slippage_bps" json:"max_slippage_bps"`
	MinOutAmount      int64           `mapstructure:"min_out_amount" json:"min_out_amount"`
}

// VenueConfig 描述单个聚合器的接入信息。
type VenueConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// VenuesConfig 汇总报价场所的传输层配置，对策略完全不可见。
type VenuesConfig struct {
	Jupiter        VenueConfig   `mapstructure:"jupiter"`
	Orca           VenueConfig   `mapstructure:"orca"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// Priority 为固定的场所优先级，用于产出相同时的平票裁决。
	Priority []string `mapstructure:"priority"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SchedulerConfig 控制主循环节奏。
type SchedulerConfig struct {
	LoopInterval time.Duration `mapstructure:"loop_interval"`
}

// MonitorConfig 控制事件查询接口。
type MonitorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Validate 对配置进行基本校验。配置错误一律在启动阶段拒绝，不会进入策略。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}

	if c.Pair.InMint == "" {
		err = multierr.Append(err, errors.New("pair.in_mint 不能为空"))
	}
	if c.Pair.OutMint == "" {
		err = multierr.Append(err, errors.New("pair.out_mint 不能为空"))
	}
	if c.Pair.AmountIn <= 0 {
		err = multierr.Append(err, errors.New("pair.amount_in 必须大于0"))
	}
	if c.Pair.SlippageBps < 0 || c.Pair.SlippageBps > 10000 {
		err = multierr.Append(err, errors.New("pair.slippage_bps 必须位于[0,10000]"))
	}

	if !c.Strategy.ReferencePrice.IsPositive() {
		err = multierr.Append(err, errors.New("strategy.reference_price 必须大于0"))
	}
	if c.Strategy.MinImprovementBps.IsNegative() {
		err = multierr.Append(err, errors.New("strategy.min_improvement_bps 不能为负"))
	}
	if c.Strategy.MaxSlippageBps < 0 || c.Strategy.MaxSlippageBps > 10000 {
		err = multierr.Append(err, errors.New("strategy.max_slippage_bps 必须位于[0,10000]"))
	}
	if c.Strategy.MinOutAmount <= 0 {
		err = multierr.Append(err, errors.New("strategy.min_out_amount 必须大于0"))
	}

	if c.Venues.Jupiter.BaseURL == "" {
		err = multierr.Append(err, errors.New("venues.jupiter.base_url 不能为空"))
	}
	if c.Venues.Orca.BaseURL == "" {
		err = multierr.Append(err, errors.New("venues.orca.base_url 不能为空"))
	}
	if c.Venues.RequestTimeout <= 0 {
		err = multierr.Append(err, errors.New("venues.request_timeout 必须大于0"))
	}
	if prioErr := validatePriority(c.Venues.Priority); prioErr != nil {
		err = multierr.Append(err, prioErr)
	}

	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}

	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if c.Scheduler.LoopInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler.loop_interval 必须大于0"))
	}

	if c.Monitor.Enabled && (c.Monitor.Port <= 0 || c.Monitor.Port > 65535) {
		err = multierr.Append(err, errors.New("monitor.port 必须位于(0,65535]"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}

// validatePriority 要求优先级列表恰好覆盖全部已支持场所，且不重复。
func validatePriority(priority []string) error {
	known := map[string]bool{
		VenueJupiter: false,
		VenueOrca:    false,
	}

	for _, name := range priority {
		seen, ok := known[name]
		if !ok {
			return fmt.Errorf("venues.priority 含未知场所 %q", name)
		}
		if seen {
			return fmt.Errorf("venues.priority 含重复场所 %q", name)
		}
		known[name] = true
	}

	for name, seen := range known {
		if !seen {
			return fmt.Errorf("venues.priority 缺少场所 %q", name)
		}
	}

	return nil
}
