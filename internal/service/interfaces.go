package service

import (
	"context"

	"github.com/eduassist/eduassist-go/internal/client"
	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/repository"
	"github.com/google/uuid"
)

// Generator 文本生成模型
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg client.GenerationConfig) (string, error)
	GenerateWithRetry(ctx context.Context, prompt string, cfg client.GenerationConfig, attempts int) (string, error)
	Model() string
	HasAPIKey() bool
}

// LearningStore 上下文检索使用的只读数据接口
type LearningStore interface {
	SearchMaterials(ctx context.Context, term string) ([]model.Material, error)
	ListMaterials(ctx context.Context) ([]model.Material, error)
	MaterialsByCourse(ctx context.Context, course string, limit int) ([]model.Material, error)
	SearchAssignments(ctx context.Context, term string) ([]model.Assignment, error)
	ListAssignments(ctx context.Context) ([]model.Assignment, error)
	UpcomingAssignments(ctx context.Context) ([]model.Assignment, error)
	AssignmentsByStatus(ctx context.Context, status string) ([]model.Assignment, error)
	AssignmentsByCourse(ctx context.Context, course string) ([]model.Assignment, error)
}

// ConversationStore 聊天记录持久化
type ConversationStore interface {
	SaveConversation(ctx context.Context, c *model.Conversation) error
}

// GradingStore 评分所需的数据接口
type GradingStore interface {
	GetAssignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	UngradedAssignments(ctx context.Context, f repository.UngradedFilter) ([]model.Assignment, error)
	SaveGrade(ctx context.Context, id uuid.UUID, grade, remarks string) error
}

// EvaluationStore 资料评估所需的数据接口
type EvaluationStore interface {
	GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error)
	ListMaterials(ctx context.Context) ([]model.Material, error)
	MaterialsByCourse(ctx context.Context, course string, limit int) ([]model.Material, error)
	SaveEvaluation(ctx context.Context, e *model.MaterialEvaluation) error
}
