package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DateLayout 日期展示格式
const DateLayout = "2006-01-02"

// Material 课程资料
type Material struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Course      string     `gorm:"column:course;index" json:"course"`
	FileName    string     `gorm:"column:file_name" json:"fileName"`
	Description string     `gorm:"column:description" json:"description"`
	UploadedAt  *time.Time `gorm:"column:uploaded_at" json:"uploadedAt,omitempty"`
	CreatedBy   string     `gorm:"column:created_by" json:"createdBy"`
	CreatedAt   time.Time  `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 表名
func (Material) TableName() string { return "course_materials" }

// BeforeCreate 自动生成主键
func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Assignment 作业
type Assignment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string     `gorm:"column:title" json:"title"`
	Course           string     `gorm:"column:course;index" json:"course"`
	DueDate          *time.Time `gorm:"column:due_date;index" json:"dueDate,omitempty"`
	Completion       string     `gorm:"column:completion" json:"completion"`
	Grade            string     `gorm:"column:grade" json:"grade"`
	TeacherRemarks   string     `gorm:"column:teacher_remarks" json:"teacherRemarks"`
	StudentName      string     `gorm:"column:student_name" json:"studentName"`
	Answer           string     `gorm:"column:answer" json:"answer"`
	AdditionalAnswer string     `gorm:"column:additional_answer" json:"additionalAnswer"`
	AnswerFile       string     `gorm:"column:answer_file" json:"answerFile"`
	QuestionsFile    string     `gorm:"column:questions_file" json:"questionsFile"`
	CreatedBy        string     `gorm:"column:created_by" json:"createdBy"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 表名
func (Assignment) TableName() string { return "assignments" }

// BeforeCreate 自动生成主键
func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// DueDateString 截止日期文本，无截止日期时为空
func (a Assignment) DueDateString() string {
	return formatDate(a.DueDate)
}

// UploadedString 上传日期文本
func (m Material) UploadedString() string {
	return formatDate(m.UploadedAt)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Conversation 持久化的聊天记录
type Conversation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"column:session_id;index" json:"sessionId"`
	UserPrompt string    `gorm:"column:user_prompt" json:"userPrompt"`
	AIResponse string    `gorm:"column:ai_response" json:"aiResponse"`
	Model      string    `gorm:"column:model" json:"model"`
	CreatedAt  time.Time `gorm:"column:created_at;index" json:"timestamp"`
}

// TableName 表名
func (Conversation) TableName() string { return "chat_conversations" }

// MaterialEvaluation 资料评估记录
type MaterialEvaluation struct {
	ID                       uint           `gorm:"primaryKey" json:"id"`
	MaterialID               uuid.UUID      `gorm:"type:uuid;index" json:"materialId"`
	RecommendationPercentage int            `json:"recommendationPercentage"`
	OverallRating            string         `json:"overallRating"`
	IsRecommended            bool           `json:"isRecommended"`
	Summary                  string         `json:"evaluationSummary"`
	Strengths                datatypes.JSON `json:"strengths"`
	Improvements             datatypes.JSON `json:"improvements"`
	Model                    string         `json:"model"`
	CreatedAt                time.Time      `json:"createdAt"`
}

// TableName 表名
func (MaterialEvaluation) TableName() string { return "material_evaluations" }

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{&Material{}, &Assignment{}, &Conversation{}, &MaterialEvaluation{}}
}
