package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConversationMemory 会话近期对话记忆
type ConversationMemory interface {
	Recent(ctx context.Context, sessionID string) (string, error)
	Append(ctx context.Context, sessionID, userPrompt, aiResponse string) error
}

// HistoryService 基于 Redis 的会话记忆
type HistoryService struct {
	redisClient *redis.Client
	ttl         time.Duration
	turns       int
	logger      *zap.Logger
}

// NewHistoryService 创建会话记忆服务，redisClient 为 nil 时不做任何事
func NewHistoryService(redisClient *redis.Client, ttl time.Duration, turns int, logger *zap.Logger) *HistoryService {
	if turns <= 0 {
		turns = 5
	}
	return &HistoryService{
		redisClient: redisClient,
		ttl:         ttl,
		turns:       turns,
		logger:      logger,
	}
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("chat_history:%s", sessionID)
}

// Recent 读取最近几轮对话
func (s *HistoryService) Recent(ctx context.Context, sessionID string) (string, error) {
	if s.redisClient == nil || sessionID == "" {
		return "", nil
	}
	history, err := s.redisClient.LRange(ctx, historyKey(sessionID), int64(-s.turns), -1).Result()
	if err != nil {
		return "", fmt.Errorf("读取对话历史失败: %w", err)
	}
	return strings.Join(history, "\n"), nil
}

// Append 保存一轮对话并刷新过期时间
func (s *HistoryService) Append(ctx context.Context, sessionID, userPrompt, aiResponse string) error {
	if s.redisClient == nil || sessionID == "" {
		return nil
	}
	key := historyKey(sessionID)
	entry := "User: " + userPrompt + "\nAssistant: " + aiResponse

	pipe := s.redisClient.TxPipeline()
	pipe.RPush(ctx, key, entry)
	pipe.LTrim(ctx, key, int64(-s.turns), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("保存对话历史失败: %w", err)
	}

	s.logger.Debug("对话历史已保存", zap.String("sessionId", sessionID))
	return nil
}
