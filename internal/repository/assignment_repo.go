package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 有截止日期的排在前面，其余按创建时间倒序，最后按 id 保证稳定
const assignmentOrder = "CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, created_at DESC, id ASC"

// 待批改筛选条件
const (
	StatusSubmitted = "submitted"
	StatusCompleted = "completed"
	StatusAll       = "all"
)

// UngradedFilter 待批改作业筛选
type UngradedFilter struct {
	Course string
	Status string
	Limit  int
}

// AssignmentRepo 作业仓储
type AssignmentRepo interface {
	CreateAssignment(ctx context.Context, a *model.Assignment) error
	GetAssignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	SearchAssignments(ctx context.Context, term string) ([]model.Assignment, error)
	ListAssignments(ctx context.Context) ([]model.Assignment, error)
	UpcomingAssignments(ctx context.Context) ([]model.Assignment, error)
	AssignmentsByStatus(ctx context.Context, status string) ([]model.Assignment, error)
	AssignmentsByCourse(ctx context.Context, course string) ([]model.Assignment, error)
	UngradedAssignments(ctx context.Context, f UngradedFilter) ([]model.Assignment, error)
	SaveGrade(ctx context.Context, id uuid.UUID, grade, remarks string) error
	CountAssignments(ctx context.Context, scope AssignmentScope) (int64, error)
	AssignmentCourses(ctx context.Context) ([]string, error)
}

// AssignmentScope 统计范围
type AssignmentScope int

const (
	ScopeAll AssignmentScope = iota
	ScopeCompleted
	ScopeGraded
)

type assignmentRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAssignmentRepo 创建作业仓储
func NewAssignmentRepo(db *gorm.DB, baseLog *zap.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: baseLog.With(zap.String("repo", "AssignmentRepo"))}
}

func (r *assignmentRepo) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("创建作业失败: %w", err)
	}
	return nil
}

func (r *assignmentRepo) GetAssignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询作业失败: %w", err)
	}
	return &a, nil
}

// SearchAssignments 在标题、课程、教师评语、文字答案中做子串匹配
func (r *assignmentRepo) SearchAssignments(ctx context.Context, term string) ([]model.Assignment, error) {
	pattern := likePattern(term)
	var results []model.Assignment
	if err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(course) LIKE ? OR LOWER(teacher_remarks) LIKE ? OR LOWER(answer) LIKE ?",
			pattern, pattern, pattern, pattern).
		Order(assignmentOrder).
		Limit(QueryLimit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("搜索作业失败: %w", err)
	}
	return results, nil
}

func (r *assignmentRepo) ListAssignments(ctx context.Context) ([]model.Assignment, error) {
	var results []model.Assignment
	if err := r.db.WithContext(ctx).
		Order(assignmentOrder).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("查询作业失败: %w", err)
	}
	return results, nil
}

// UpcomingAssignments 有截止日期的作业，按截止日期升序
func (r *assignmentRepo) UpcomingAssignments(ctx context.Context) ([]model.Assignment, error) {
	var results []model.Assignment
	if err := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL").
		Order(assignmentOrder).
		Limit(UpcomingLimit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("查询近期作业失败: %w", err)
	}
	return results, nil
}

func (r *assignmentRepo) AssignmentsByStatus(ctx context.Context, status string) ([]model.Assignment, error) {
	var results []model.Assignment
	if err := r.db.WithContext(ctx).
		Where("LOWER(completion) = ?", strings.ToLower(strings.TrimSpace(status))).
		Order(assignmentOrder).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("按状态查询作业失败: %w", err)
	}
	return results, nil
}

func (r *assignmentRepo) AssignmentsByCourse(ctx context.Context, course string) ([]model.Assignment, error) {
	var results []model.Assignment
	if err := r.db.WithContext(ctx).
		Where("LOWER(course) = LOWER(?)", course).
		Order(assignmentOrder).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("按课程查询作业失败: %w", err)
	}
	return results, nil
}

// UngradedAssignments 查询尚未评分的作业，最早创建的优先
func (r *assignmentRepo) UngradedAssignments(ctx context.Context, f UngradedFilter) ([]model.Assignment, error) {
	q := r.db.WithContext(ctx).Where("(grade IS NULL OR grade = '')")
	if f.Course != "" {
		q = q.Where("LOWER(course) = LOWER(?)", f.Course)
	}
	switch strings.ToLower(f.Status) {
	case StatusCompleted:
		q = q.Where("LOWER(completion) = 'yes'")
	case StatusAll:
	default:
		q = q.Where("(answer <> '' OR answer_file <> '')")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var results []model.Assignment
	if err := q.Order("created_at ASC, id ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("查询待批改作业失败: %w", err)
	}
	return results, nil
}

// SaveGrade 写入评分并标记为已完成
func (r *assignmentRepo) SaveGrade(ctx context.Context, id uuid.UUID, grade, remarks string) error {
	res := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"grade":           grade,
			"teacher_remarks": remarks,
			"completion":      "yes",
		})
	if res.Error != nil {
		return fmt.Errorf("保存评分失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assignmentRepo) CountAssignments(ctx context.Context, scope AssignmentScope) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Assignment{})
	switch scope {
	case ScopeCompleted:
		q = q.Where("LOWER(completion) = 'yes'")
	case ScopeGraded:
		q = q.Where("grade IS NOT NULL AND grade <> ''")
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计作业失败: %w", err)
	}
	return n, nil
}

func (r *assignmentRepo) AssignmentCourses(ctx context.Context) ([]string, error) {
	var courses []string
	if err := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("course <> ''").
		Distinct().
		Pluck("course", &courses).Error; err != nil {
		return nil, fmt.Errorf("查询作业课程失败: %w", err)
	}
	return courses, nil
}
