package repository

import (
	"context"
	"fmt"

	"github.com/eduassist/eduassist-go/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConversationRepo 聊天记录仓储
type ConversationRepo interface {
	SaveConversation(ctx context.Context, c *model.Conversation) error
	ConversationsBySession(ctx context.Context, sessionID string, limit int) ([]model.Conversation, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewConversationRepo 创建聊天记录仓储
func NewConversationRepo(db *gorm.DB, baseLog *zap.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With(zap.String("repo", "ConversationRepo"))}
}

func (r *conversationRepo) SaveConversation(ctx context.Context, c *model.Conversation) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("保存聊天记录失败: %w", err)
	}
	return nil
}

// ConversationsBySession 按时间正序返回会话的聊天记录
func (r *conversationRepo) ConversationsBySession(ctx context.Context, sessionID string, limit int) ([]model.Conversation, error) {
	var results []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("查询聊天记录失败: %w", err)
	}
	return results, nil
}
