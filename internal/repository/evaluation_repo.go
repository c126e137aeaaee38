package repository

import (
	"context"
	"fmt"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EvaluationRepo 资料评估仓储
type EvaluationRepo interface {
	SaveEvaluation(ctx context.Context, e *model.MaterialEvaluation) error
	LatestEvaluation(ctx context.Context, materialID uuid.UUID) (*model.MaterialEvaluation, error)
}

type evaluationRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewEvaluationRepo 创建资料评估仓储
func NewEvaluationRepo(db *gorm.DB, baseLog *zap.Logger) EvaluationRepo {
	return &evaluationRepo{db: db, log: baseLog.With(zap.String("repo", "EvaluationRepo"))}
}

func (r *evaluationRepo) SaveEvaluation(ctx context.Context, e *model.MaterialEvaluation) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("保存评估结果失败: %w", err)
	}
	return nil
}

func (r *evaluationRepo) LatestEvaluation(ctx context.Context, materialID uuid.UUID) (*model.MaterialEvaluation, error) {
	var results []model.MaterialEvaluation
	if err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("查询评估结果失败: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &results[0], nil
}
