package service

import (
	"time"

	"github.com/eduassist/eduassist-go/internal/config"
	"golang.org/x/time/rate"
)

// BatchLimits 批处理数量限制
type BatchLimits struct {
	Default int
	Max     int
}

// Clamp 未指定时取默认值，超出上限时截断
func (l BatchLimits) Clamp(requested int) int {
	if requested <= 0 {
		return l.Default
	}
	if l.Max > 0 && requested > l.Max {
		return l.Max
	}
	return requested
}

// GradingLimits 评分批处理限制
func GradingLimits(cfg config.BatchConfig) BatchLimits {
	return BatchLimits{Default: cfg.GradeLimit, Max: cfg.GradeMaxLimit}
}

// EvaluationLimits 评估批处理限制
func EvaluationLimits(cfg config.BatchConfig) BatchLimits {
	return BatchLimits{Default: cfg.EvaluateLimit, Max: cfg.EvaluateMaxLimit}
}

// newBatchLimiter 批处理中两次模型调用之间的最小间隔
func newBatchLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
