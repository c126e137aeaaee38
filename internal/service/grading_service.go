package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eduassist/eduassist-go/internal/client"
	"github.com/eduassist/eduassist-go/internal/document"
	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrAssignmentNotFound 作业不存在
var ErrAssignmentNotFound = errors.New("Assignment not found")

// 评分模型参数
var gradingGeneration = client.GenerationConfig{Temperature: 0.3, MaxOutputTokens: 1500}

const (
	gradingAttempts     = 3
	fallbackGrade       = "C"
	fallbackPercentage  = 75
	gradedStampLayout   = "2006-01-02 15:04:05"
	aiAnalysisPrefix    = "AI Analysis: "
	unparsedStrength    = "Unable to parse detailed analysis"
	unparsedImprovement = "Please review manually"
)

var questionFileHints = []string{"question", "assignment", "problem", "task"}

// GradingService AI 作业评分
type GradingService struct {
	store     GradingStore
	generator Generator
	locator   *document.Locator
	limits    BatchLimits
	limiter   *rate.Limiter
	now       func() time.Time
	logger    *zap.Logger
}

// NewGradingService 创建评分服务
func NewGradingService(store GradingStore, generator Generator, locator *document.Locator, limits BatchLimits, interval time.Duration, logger *zap.Logger) *GradingService {
	return &GradingService{
		store:     store,
		generator: generator,
		locator:   locator,
		limits:    limits,
		limiter:   newBatchLimiter(interval),
		now:       time.Now,
		logger:    logger,
	}
}

// Grade 对单个作业评分，preview 为 true 时不写库
func (s *GradingService) Grade(ctx context.Context, id uuid.UUID, preview bool) (*model.GradingResult, error) {
	if !s.generator.HasAPIKey() {
		return nil, client.ErrNoAPIKey
	}

	// 1. 读取作业
	a, err := s.store.GetAssignment(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAssignmentNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	// 2. 区分题目文件与答案文件并提取文本
	questionsFile, answersFile := SortAssignmentFiles(a)
	s.logger.Info("开始 AI 评分",
		zap.String("assignmentId", id.String()),
		zap.String("questionsFile", questionsFile),
		zap.String("answersFile", answersFile),
		zap.Bool("preview", preview))

	prompt := BuildGradingPrompt(GradingInput{
		Assignment:     a,
		QuestionsText:  s.fileText(a.ID, questionsFile),
		AnswerFileText: s.fileText(a.ID, answersFile),
	})

	// 3. 调用模型
	raw, err := s.generator.GenerateWithRetry(ctx, prompt, gradingGeneration, gradingAttempts)
	if err != nil {
		return nil, fmt.Errorf("AI 评分失败: %w", err)
	}

	// 4. 解析结果
	result := ParseGradingResponse(raw)
	result.AssignmentID = id.String()
	result.AIGenerated = true
	result.Timestamp = s.now().UnixMilli()

	// 5. 保存
	if !preview {
		remarks := FormatGradingRemarks(result, s.now())
		if err := s.store.SaveGrade(ctx, id, result.Grade, remarks); err != nil {
			return nil, fmt.Errorf("保存评分失败: %w", err)
		}
		result.Saved = true
	}

	s.logger.Info("AI 评分完成",
		zap.String("assignmentId", id.String()),
		zap.String("grade", result.Grade),
		zap.Int("percentage", result.Percentage),
		zap.Bool("saved", result.Saved))
	return result, nil
}

// GradeBatch 批量评分未评分的作业，中途被取消时返回已完成部分和错误
func (s *GradingService) GradeBatch(ctx context.Context, course, status string, limit int, preview bool) (*model.BatchGradingResult, error) {
	if !s.generator.HasAPIKey() {
		return nil, client.ErrNoAPIKey
	}
	if status == "" {
		status = repository.StatusSubmitted
	}

	assignments, err := s.store.UngradedAssignments(ctx, repository.UngradedFilter{
		Course: course,
		Status: status,
		Limit:  s.limits.Clamp(limit),
	})
	if err != nil {
		return nil, err
	}

	out := &model.BatchGradingResult{Results: make([]model.BatchItemResult, 0, len(assignments))}
	for _, a := range assignments {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn("批量评分中断", zap.Int("processed", out.ProcessedCount), zap.Error(err))
			return out, fmt.Errorf("批量评分中断: %w", err)
		}
		item := model.BatchItemResult{ID: a.ID.String(), Title: a.Title}
		result, err := s.Grade(ctx, a.ID, preview)
		if err != nil {
			s.logger.Warn("批量评分单项失败", zap.String("assignmentId", item.ID), zap.Error(err))
			item.Error = err.Error()
			out.ErrorCount++
		} else {
			item.Success = true
			item.Result = result
			out.SuccessCount++
		}
		out.Results = append(out.Results, item)
		out.ProcessedCount++
	}

	s.logger.Info("批量评分完成",
		zap.Int("processed", out.ProcessedCount),
		zap.Int("success", out.SuccessCount),
		zap.Int("errors", out.ErrorCount))
	return out, nil
}

// fileText 文件缺失或提取失败时返回说明文字，评分继续
func (s *GradingService) fileText(id uuid.UUID, name string) string {
	return readUploadText(s.locator, id.String(), name, "", s.logger)
}

// readUploadText 读取上传文件文本，失败时把原因写成文本交给模型
func readUploadText(locator *document.Locator, ownerID, name, notFoundSuffix string, logger *zap.Logger) string {
	if strings.TrimSpace(name) == "" || locator == nil {
		return ""
	}
	text, err := locator.ReadText(ownerID, name)
	switch {
	case errors.Is(err, document.ErrFileNotFound):
		logger.Warn("上传文件不存在", zap.String("file", name), zap.String("ownerId", ownerID))
		return err.Error() + notFoundSuffix
	case err != nil:
		logger.Warn("提取文件文本失败", zap.String("file", name), zap.Error(err))
		return "[Error extracting text: " + err.Error() + "]"
	}
	return text
}

// SortAssignmentFiles 按文件名判断题目文件与答案文件
func SortAssignmentFiles(a *model.Assignment) (questions, answers string) {
	questions = strings.TrimSpace(a.QuestionsFile)
	name := strings.TrimSpace(a.AnswerFile)
	if name == "" {
		return questions, ""
	}
	// 无法判断的文件按学生答案处理
	if containsAnyOf(strings.ToLower(name), questionFileHints) && questions == "" {
		return name, ""
	}
	return questions, name
}

func containsAnyOf(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

type gradingPayload struct {
	Grade        string           `json:"grade"`
	Percentage   json.RawMessage  `json:"percentage"`
	Remarks      string           `json:"remarks"`
	Strengths    model.StringList `json:"strengths"`
	Improvements model.StringList `json:"improvements"`
}

// ParseGradingResponse 解析模型返回的 JSON，失败时使用默认结果
func ParseGradingResponse(raw string) *model.GradingResult {
	if body, ok := extractJSONObject(raw); ok {
		var p gradingPayload
		if err := json.Unmarshal([]byte(body), &p); err == nil {
			if pct, ok := parsePercent(p.Percentage); ok && strings.TrimSpace(p.Grade) != "" {
				return &model.GradingResult{
					Grade:        strings.TrimSpace(p.Grade),
					Percentage:   pct,
					Remarks:      p.Remarks,
					Strengths:    p.Strengths,
					Improvements: p.Improvements,
				}
			}
		}
	}
	return &model.GradingResult{
		Grade:        fallbackGrade,
		Percentage:   fallbackPercentage,
		Remarks:      aiAnalysisPrefix + raw,
		Strengths:    model.StringList{unparsedStrength},
		Improvements: model.StringList{unparsedImprovement},
	}
}

// FormatGradingRemarks 写入数据库的教师评语
func FormatGradingRemarks(r *model.GradingResult, at time.Time) string {
	remarks := r.Remarks
	if len(r.Strengths) > 0 {
		remarks += "\n\nStrengths: " + r.Strengths.Join()
	}
	if len(r.Improvements) > 0 {
		remarks += "\n\nAreas for improvement: " + r.Improvements.Join()
	}
	return remarks + "\n\n[AI Auto-Graded on " + at.Format(gradedStampLayout) + "]"
}

// extractJSONObject 取第一个 { 到最后一个 } 之间的文本
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// parsePercent 接受数字或 "85%" 形式的字符串
func parsePercent(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
