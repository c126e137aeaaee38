package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaterialRepo 课程资料仓储
type MaterialRepo interface {
	CreateMaterial(ctx context.Context, m *model.Material) error
	GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error)
	SearchMaterials(ctx context.Context, term string) ([]model.Material, error)
	ListMaterials(ctx context.Context) ([]model.Material, error)
	MaterialsByCourse(ctx context.Context, course string, limit int) ([]model.Material, error)
	CountMaterials(ctx context.Context) (int64, error)
	MaterialCourses(ctx context.Context) ([]string, error)
}

type materialRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewMaterialRepo 创建课程资料仓储
func NewMaterialRepo(db *gorm.DB, baseLog *zap.Logger) MaterialRepo {
	return &materialRepo{db: db, log: baseLog.With(zap.String("repo", "MaterialRepo"))}
}

const materialOrder = "created_at DESC, id ASC"

func (r *materialRepo) CreateMaterial(ctx context.Context, m *model.Material) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("创建课程资料失败: %w", err)
	}
	return nil
}

func (r *materialRepo) GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询课程资料失败: %w", err)
	}
	return &m, nil
}

// SearchMaterials 在课程名、描述、文件名中做不区分大小写的子串匹配
func (r *materialRepo) SearchMaterials(ctx context.Context, term string) ([]model.Material, error) {
	pattern := likePattern(term)
	var results []model.Material
	if err := r.db.WithContext(ctx).
		Where("LOWER(course) LIKE ? OR LOWER(description) LIKE ? OR LOWER(file_name) LIKE ?",
			pattern, pattern, pattern).
		Order(materialOrder).
		Limit(QueryLimit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("搜索课程资料失败: %w", err)
	}
	return results, nil
}

func (r *materialRepo) ListMaterials(ctx context.Context) ([]model.Material, error) {
	var results []model.Material
	if err := r.db.WithContext(ctx).
		Order(materialOrder).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("查询课程资料失败: %w", err)
	}
	return results, nil
}

func (r *materialRepo) MaterialsByCourse(ctx context.Context, course string, limit int) ([]model.Material, error) {
	q := r.db.WithContext(ctx).
		Where("LOWER(course) = LOWER(?)", course).
		Order(materialOrder)
	// limit <= 0 不限行数
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []model.Material
	if err := q.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("按课程查询资料失败: %w", err)
	}
	return results, nil
}

func (r *materialRepo) CountMaterials(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Material{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计课程资料失败: %w", err)
	}
	return n, nil
}

func (r *materialRepo) MaterialCourses(ctx context.Context) ([]string, error) {
	var courses []string
	if err := r.db.WithContext(ctx).Model(&model.Material{}).
		Where("course <> ''").
		Distinct().
		Pluck("course", &courses).Error; err != nil {
		return nil, fmt.Errorf("查询课程列表失败: %w", err)
	}
	return courses, nil
}
