package handler

import (
	"net/http"
	"strings"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/params"
	"github.com/eduassist/eduassist-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GradingHandler AI 评分与资料评估接口
type GradingHandler struct {
	gradingService    *service.GradingService
	evaluationService *service.EvaluationService
	extractor         *params.Extractor
	logger            *zap.Logger
}

// NewGradingHandler 创建评分处理器，extractor 应使用宽松模式
func NewGradingHandler(gradingService *service.GradingService, evaluationService *service.EvaluationService, extractor *params.Extractor, logger *zap.Logger) *GradingHandler {
	return &GradingHandler{
		gradingService:    gradingService,
		evaluationService: evaluationService,
		extractor:         extractor,
		logger:            logger,
	}
}

func isPreview(p params.Params) bool {
	return strings.EqualFold(p.Get("mode"), "preview") || p.Bool("preview")
}

// Grade 单个作业评分
func (h *GradingHandler) Grade(c *gin.Context) {
	p, err := h.extractor.FromRequest(c.Request)
	if err != nil {
		respondServiceError(c, err, CodeGradingError)
		return
	}

	rawID := strings.TrimSpace(p.Get("assignmentId"))
	if rawID == "" {
		respondError(c, http.StatusBadRequest, CodeMissingAssignmentID, "assignmentId parameter is required")
		return
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(c, http.StatusNotFound, CodeAssignmentNotFound, "Assignment not found: "+rawID)
		return
	}

	result, err := h.gradingService.Grade(c.Request.Context(), id, isPreview(p))
	if err != nil {
		h.logger.Error("作业评分失败", zap.String("assignmentId", rawID), zap.Error(err))
		respondServiceError(c, err, CodeGradingError)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Assignment graded successfully",
		"result":    result,
		"timestamp": model.NowMillis(),
	})
}

// GradeBatch 批量评分
func (h *GradingHandler) GradeBatch(c *gin.Context) {
	p, err := h.extractor.FromRequest(c.Request)
	if err != nil {
		respondServiceError(c, err, CodeGradingError)
		return
	}

	result, err := h.gradingService.GradeBatch(c.Request.Context(),
		p.Get("course"), p.Get("status"), p.Int("limit", 0), isPreview(p))
	if err != nil {
		h.logger.Error("批量评分失败", zap.Error(err))
		respondServiceError(c, err, CodeGradingError)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"processedCount": result.ProcessedCount,
		"successCount":   result.SuccessCount,
		"errorCount":     result.ErrorCount,
		"results":        result.Results,
		"timestamp":      model.NowMillis(),
	})
}

// Evaluate 单份资料评估
func (h *GradingHandler) Evaluate(c *gin.Context) {
	p, err := h.extractor.FromRequest(c.Request)
	if err != nil {
		respondServiceError(c, err, CodeEvaluationError)
		return
	}

	result, err := h.evaluationService.Evaluate(c.Request.Context(), model.EvaluationRequest{
		MaterialID:  p.Get("materialId"),
		Course:      p.Get("course"),
		Description: p.Get("description"),
		Filename:    p.Get("filename"),
		FileContent: p.Get("fileContent"),
		PreUpload:   p.Bool("preUpload"),
		Preview:     isPreview(p),
	})
	if err != nil {
		h.logger.Error("资料评估失败", zap.String("materialId", p.Get("materialId")), zap.Error(err))
		respondServiceError(c, err, CodeEvaluationError)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"message":    "Material evaluated successfully",
		"evaluation": result,
		"timestamp":  model.NowMillis(),
	})
}

// EvaluateBatch 批量评估
func (h *GradingHandler) EvaluateBatch(c *gin.Context) {
	p, err := h.extractor.FromRequest(c.Request)
	if err != nil {
		respondServiceError(c, err, CodeEvaluationError)
		return
	}

	result, err := h.evaluationService.EvaluateBatch(c.Request.Context(),
		p.Get("course"), p.Int("limit", 0), isPreview(p))
	if err != nil {
		h.logger.Error("批量评估失败", zap.Error(err))
		respondServiceError(c, err, CodeEvaluationError)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                "success",
		"processedCount":        result.ProcessedCount,
		"recommendedCount":      result.RecommendedCount,
		"needsEnhancementCount": result.NeedsEnhancementCount,
		"errorCount":            result.ErrorCount,
		"results":               result.Results,
		"timestamp":             model.NowMillis(),
	})
}
