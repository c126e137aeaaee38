package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eduassist/eduassist-go/internal/client"
	"github.com/eduassist/eduassist-go/internal/document"
	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
)

var (
	// ErrMissingParameters 评估请求缺少必要参数
	ErrMissingParameters = errors.New("At least one of materialId, filename, or description is required")
	// ErrMaterialNotFound 资料不存在
	ErrMaterialNotFound = errors.New("Material not found")
)

var evaluationGeneration = client.GenerationConfig{Temperature: 0.2, MaxOutputTokens: 2000}

const (
	evaluationAttempts      = 3
	courseContextLimit      = 5
	fallbackRecommendation  = 75
	fallbackRating          = "Average"
	fallbackRecommendations = "Please review the material manually for quality assessment."
	materialNotFoundSuffix  = ". Content evaluation will be based on description only."
)

// EvaluationService AI 课程资料评估
type EvaluationService struct {
	store     EvaluationStore
	generator Generator
	locator   *document.Locator
	limits    BatchLimits
	limiter   *rate.Limiter
	now       func() time.Time
	logger    *zap.Logger
}

// NewEvaluationService 创建评估服务
func NewEvaluationService(store EvaluationStore, generator Generator, locator *document.Locator, limits BatchLimits, interval time.Duration, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		store:     store,
		generator: generator,
		locator:   locator,
		limits:    limits,
		limiter:   newBatchLimiter(interval),
		now:       time.Now,
		logger:    logger,
	}
}

// Evaluate 评估一份课程资料
func (s *EvaluationService) Evaluate(ctx context.Context, req model.EvaluationRequest) (*model.EvaluationResult, error) {
	req.MaterialID = strings.TrimSpace(req.MaterialID)
	if req.MaterialID == "" && strings.TrimSpace(req.Filename) == "" && strings.TrimSpace(req.Description) == "" {
		return nil, ErrMissingParameters
	}
	if !s.generator.HasAPIKey() {
		return nil, client.ErrNoAPIKey
	}

	// 1. 根据资料 ID 补全缺失字段
	var materialID uuid.UUID
	if req.MaterialID != "" {
		id, err := uuid.Parse(req.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMaterialNotFound, req.MaterialID)
		}
		m, err := s.store.GetMaterial(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMaterialNotFound, req.MaterialID)
		}
		if err != nil {
			return nil, err
		}
		materialID = m.ID
		req.Course = firstNonEmpty(req.Course, m.Course)
		req.Filename = firstNonEmpty(req.Filename, m.FileName)
		req.Description = firstNonEmpty(req.Description, m.Description)
	}

	s.logger.Info("开始资料评估",
		zap.String("materialId", req.MaterialID),
		zap.String("filename", req.Filename),
		zap.Bool("preUpload", req.PreUpload),
		zap.Bool("preview", req.Preview))

	// 2. 文件内容：优先使用请求中的内容，否则从上传目录读取
	content := req.FileContent
	switch {
	case strings.TrimSpace(content) != "":
		if looksBinary(content) {
			content = "[Binary file: " + req.Filename + "]"
		}
	case !req.PreUpload:
		content = readUploadText(s.locator, req.MaterialID, req.Filename, materialNotFoundSuffix, s.logger)
	}

	// 3. 组装提示词并调用模型
	prompt := BuildEvaluationPrompt(EvaluationInput{
		Course:        req.Course,
		Filename:      req.Filename,
		Description:   req.Description,
		FileContent:   content,
		CourseContext: s.courseContext(ctx, req.Course),
		PreUpload:     req.PreUpload,
	})
	raw, err := s.generator.GenerateWithRetry(ctx, prompt, evaluationGeneration, evaluationAttempts)
	if err != nil {
		return nil, fmt.Errorf("AI 评估失败: %w", err)
	}

	// 4. 解析结果
	result := ParseEvaluationResponse(raw)
	result.MaterialID = req.MaterialID
	result.Course = req.Course
	result.Filename = req.Filename
	result.RequiresEnhancement = result.RecommendationPercentage < model.EnhancementThreshold
	result.Timestamp = s.now().UnixMilli()

	// 5. 已上传资料的评估结果入库
	if materialID != uuid.Nil && !req.Preview {
		if err := s.store.SaveEvaluation(ctx, s.toRecord(materialID, result)); err != nil {
			s.logger.Error("保存评估结果失败", zap.String("materialId", req.MaterialID), zap.Error(err))
		}
	}

	s.logger.Info("资料评估完成",
		zap.String("filename", result.Filename),
		zap.Int("recommendation", result.RecommendationPercentage),
		zap.Bool("requiresEnhancement", result.RequiresEnhancement))
	return result, nil
}

// EvaluateBatch 批量评估资料，course 为空时评估全部
func (s *EvaluationService) EvaluateBatch(ctx context.Context, course string, limit int, preview bool) (*model.BatchEvaluationResult, error) {
	if !s.generator.HasAPIKey() {
		return nil, client.ErrNoAPIKey
	}
	limit = s.limits.Clamp(limit)

	var (
		materials []model.Material
		err       error
	)
	if strings.TrimSpace(course) != "" {
		materials, err = s.store.MaterialsByCourse(ctx, course, limit)
	} else {
		materials, err = s.store.ListMaterials(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(materials) > limit {
		materials = materials[:limit]
	}

	out := &model.BatchEvaluationResult{Results: make([]model.BatchItemResult, 0, len(materials))}
	for _, m := range materials {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn("批量评估中断", zap.Int("processed", out.ProcessedCount), zap.Error(err))
			return out, fmt.Errorf("批量评估中断: %w", err)
		}
		item := model.BatchItemResult{ID: m.ID.String(), Title: m.FileName}
		result, err := s.Evaluate(ctx, model.EvaluationRequest{MaterialID: m.ID.String(), Preview: preview})
		if err != nil {
			s.logger.Warn("批量评估单项失败", zap.String("materialId", item.ID), zap.Error(err))
			item.Error = err.Error()
			out.ErrorCount++
		} else {
			item.Success = true
			item.Result = result
			if result.IsRecommended {
				out.RecommendedCount++
			}
			if result.RequiresEnhancement {
				out.NeedsEnhancementCount++
			}
		}
		out.Results = append(out.Results, item)
		out.ProcessedCount++
	}
	return out, nil
}

// courseContext 同课程已有资料
func (s *EvaluationService) courseContext(ctx context.Context, course string) string {
	materials, err := s.store.MaterialsByCourse(ctx, course, courseContextLimit)
	if err != nil {
		s.logger.Warn("查询课程资料失败", zap.String("course", course), zap.Error(err))
		return "Unable to retrieve existing course materials for context."
	}
	if len(materials) == 0 {
		return "This is the first material for the course: " + course
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Existing materials in course '%s':\n", course)
	for _, m := range materials {
		b.WriteString("- " + m.FileName)
		if m.Description != "" {
			b.WriteString(" (" + m.Description + ")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *EvaluationService) toRecord(materialID uuid.UUID, r *model.EvaluationResult) *model.MaterialEvaluation {
	return &model.MaterialEvaluation{
		MaterialID:               materialID,
		RecommendationPercentage: r.RecommendationPercentage,
		OverallRating:            r.OverallRating,
		IsRecommended:            r.IsRecommended,
		Summary:                  r.EvaluationSummary,
		Strengths:                jsonList(r.Strengths),
		Improvements:             jsonList(r.Improvements),
		Model:                    s.generator.Model(),
	}
}

func jsonList(l model.StringList) datatypes.JSON {
	if l == nil {
		l = model.StringList{}
	}
	b, _ := json.Marshal([]string(l))
	return datatypes.JSON(b)
}

type evaluationPayload struct {
	RecommendationPercentage json.RawMessage  `json:"recommendationPercentage"`
	OverallRating            string           `json:"overallRating"`
	IsRecommended            bool             `json:"isRecommended"`
	EvaluationSummary        string           `json:"evaluationSummary"`
	Strengths                model.StringList `json:"strengths"`
	Improvements             model.StringList `json:"improvements"`
	EducationalValue         json.RawMessage  `json:"educationalValue"`
	ContentQuality           json.RawMessage  `json:"contentQuality"`
	StudentSuitability       json.RawMessage  `json:"studentSuitability"`
	ClarityOrganization      json.RawMessage  `json:"clarityOrganization"`
	Completeness             json.RawMessage  `json:"completeness"`
	Recommendations          string           `json:"recommendations"`
}

// ParseEvaluationResponse 解析模型返回的评估 JSON，失败时使用保守的默认结果
func ParseEvaluationResponse(raw string) *model.EvaluationResult {
	if body, ok := extractJSONObject(raw); ok {
		var p evaluationPayload
		if err := json.Unmarshal([]byte(body), &p); err == nil {
			if pct, ok := parsePercent(p.RecommendationPercentage); ok {
				return &model.EvaluationResult{
					RecommendationPercentage: pct,
					OverallRating:            p.OverallRating,
					IsRecommended:            p.IsRecommended,
					EvaluationSummary:        p.EvaluationSummary,
					Strengths:                p.Strengths,
					Improvements:             p.Improvements,
					EducationalValue:         score(p.EducationalValue),
					ContentQuality:           score(p.ContentQuality),
					StudentSuitability:       score(p.StudentSuitability),
					ClarityOrganization:      score(p.ClarityOrganization),
					Completeness:             score(p.Completeness),
					Recommendations:          p.Recommendations,
				}
			}
		}
	}
	return &model.EvaluationResult{
		RecommendationPercentage: fallbackRecommendation,
		OverallRating:            fallbackRating,
		IsRecommended:            false,
		EvaluationSummary:        aiAnalysisPrefix + raw,
		Recommendations:          fallbackRecommendations,
	}
}

func score(raw json.RawMessage) int {
	n, _ := parsePercent(raw)
	return n
}

// looksBinary 包含 NUL 或不是合法 UTF-8
func looksBinary(s string) bool {
	return strings.ContainsRune(s, 0) || !utf8.ValidString(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
