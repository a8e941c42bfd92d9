package venue

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrMalformedResponse 表示场所返回了无法解析的报价。
	ErrMalformedResponse = errors.New("venue: 报价响应格式非法")
	// ErrUnsupportedPair 表示场所不支持该交易对。
	ErrUnsupportedPair = errors.New("venue: 场所不支持该交易对")
)

// Classify 将报价错误归类为日志用标签。场所级错误不会中断 plan，
// 只会让该场所在本轮不贡献报价。
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrUnsupportedPair):
		return "unsupported_pair"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			return "network"
		}
		return "unknown"
	}
}
