package monitor

import (
	"time"

	"dex-sniper/internal/execution"
	"dex-sniper/internal/strategy"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventDecision      EventType = "decision"
	EventExecutionPlan EventType = "execution_plan"
	EventError         EventType = "error"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DecisionPayload 记录一轮评估的结论。只记录结论与参与场所，
// 历史报价本身不做持久化。
type DecisionPayload struct {
	Decision   strategy.Decision `json:"decision"`
	QuoteCount int               `json:"quote_count"`
	Venues     []string          `json:"venues"`
}

// ExecutionPlanPayload 记录已生成、待外部签名提交的执行计划。
type ExecutionPlanPayload struct {
	Plan execution.Plan `json:"plan"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
