package strategy

import (
	"github.com/shopspring/decimal"

	"dex-sniper/internal/venue"
)

// 拒绝原因为对外报告口径，字符串固定，不随调用次数变化。
const (
	ReasonNoValidQuotes           = "no valid quotes"
	ReasonInsufficientImprovement = "insufficient improvement"
	ReasonSlippageExceedsCeiling  = "slippage exceeds ceiling"
	ReasonOutputBelowFloor        = "output below floor"
)

// Decision 表示一次评估的最终结论。Execute 为 true 时 Selected 必定指向
// 一条通过全部阈值检查的报价；为 false 时 Reason 说明首个未通过的关卡。
type Decision struct {
	Execute        bool            `json:"execute"`
	Venue          string          `json:"venue,omitempty"`
	ImprovementBps decimal.Decimal `json:"improvement_bps"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	Reason         string          `json:"reason,omitempty"`
	Selected       *venue.Quote    `json:"selected,omitempty"`
}
