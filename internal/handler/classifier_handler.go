package handler

import (
	"net/http"
	"strings"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/params"
	"github.com/eduassist/eduassist-go/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClassifierHandler 意图分析与请求调试
type ClassifierHandler struct {
	chatService *service.ChatService
	extractor   *params.Extractor
	logger      *zap.Logger
}

// NewClassifierHandler 创建分析处理器
func NewClassifierHandler(chatService *service.ChatService, extractor *params.Extractor, logger *zap.Logger) *ClassifierHandler {
	return &ClassifierHandler{
		chatService: chatService,
		extractor:   extractor,
		logger:      logger,
	}
}

// Analyze 只分类和检索，不调用模型
func (h *ClassifierHandler) Analyze(c *gin.Context) {
	p, err := h.extractor.FromRequest(c.Request)
	if err != nil {
		respondServiceError(c, err, CodeMalformedRequest)
		return
	}

	message := p.Get("message")
	if strings.TrimSpace(message) == "" {
		message = p.Get(params.PromptKey)
	}
	if strings.TrimSpace(message) == "" {
		respondError(c, http.StatusBadRequest, CodeMissingParameters, "message parameter is required")
		return
	}

	classification, retrieved := h.chatService.Analyze(c.Request.Context(), message)
	h.logger.Info("意图分析",
		zap.String("contentType", string(classification.ContentType)),
		zap.String("queryType", string(classification.QueryType)),
		zap.Int("records", retrieved.Count))

	c.JSON(http.StatusOK, model.AnalyzeResponse{
		Status:            "success",
		Message:           message,
		Analysis:          classification,
		NeedsDatabaseData: classification.NeedsDatabase(),
		DatabaseContext:   retrieved.Text,
		Timestamp:         model.NowMillis(),
	})
}

// Debug 回显解析出的参数，排查客户端请求格式问题
func (h *ClassifierHandler) Debug(c *gin.Context) {
	p, err := h.extractor.FromRequest(c.Request)
	if err != nil {
		respondServiceError(c, err, CodeMalformedRequest)
		return
	}

	issues := map[string]string{}
	if len(p) == 0 {
		issues["empty_params"] = "No parameters were parsed from the request"
	}
	if _, ok := p[params.PromptKey]; !ok {
		issues["missing_userPrompt"] = "userPrompt parameter not found (also checked for 'message' and 'text')"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "debug_success",
		"message": "Debug information collected",
		"data": gin.H{
			"method":           c.Request.Method,
			"uri":              c.Request.URL.RequestURI(),
			"contentType":      c.GetHeader("Content-Type"),
			"parsedParameters": p,
			"parameterCount":   len(p),
			"potentialIssues":  issues,
			"timestamp":        model.NowMillis(),
		},
		"timestamp": model.NowMillis(),
	})
}
