package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/eduassist/eduassist-go/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

const (
	// QueryLimit 搜索查询的最大行数
	QueryLimit = 20
	// UpcomingLimit 近期作业的最大行数
	UpcomingLimit = 10
)

// Store 学习数据存储，聚合各仓储
type Store struct {
	MaterialRepo
	AssignmentRepo
	ConversationRepo
	EvaluationRepo

	db  *gorm.DB
	log *zap.Logger
}

// NewStore 创建学习数据存储
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{
		MaterialRepo:     NewMaterialRepo(db, logger),
		AssignmentRepo:   NewAssignmentRepo(db, logger),
		ConversationRepo: NewConversationRepo(db, logger),
		EvaluationRepo:   NewEvaluationRepo(db, logger),
		db:               db,
		log:              logger,
	}
}

// Ping 检查数据库连接
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("获取连接池失败: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Statistics 并发统计课程数据
func (s *Store) Statistics(ctx context.Context) (*model.CourseStatistics, error) {
	var (
		stats             model.CourseStatistics
		materialCourses   []string
		assignmentCourses []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalMaterials, err = s.CountMaterials(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalAssignments, err = s.CountAssignments(gctx, ScopeAll)
		return err
	})
	g.Go(func() (err error) {
		stats.CompletedAssignments, err = s.CountAssignments(gctx, ScopeCompleted)
		return err
	})
	g.Go(func() (err error) {
		stats.GradedAssignments, err = s.CountAssignments(gctx, ScopeGraded)
		return err
	})
	g.Go(func() (err error) {
		materialCourses, err = s.MaterialCourses(gctx)
		return err
	})
	g.Go(func() (err error) {
		assignmentCourses, err = s.AssignmentCourses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("统计课程数据失败: %w", err)
	}

	stats.CoursesList = mergeCourses(materialCourses, assignmentCourses)
	stats.TotalCourses = len(stats.CoursesList)
	return &stats, nil
}

// mergeCourses 合并去重并排序
func mergeCourses(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, c := range list {
			c = strings.TrimSpace(c)
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
