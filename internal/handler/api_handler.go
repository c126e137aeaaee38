package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	historyDefaultLimit = 50
	historyMaxLimit     = 500
)

// DataStore 数据查询接口所需的存储
type DataStore interface {
	service.LearningStore
	Ping(ctx context.Context) error
	Statistics(ctx context.Context) (*model.CourseStatistics, error)
	ConversationsBySession(ctx context.Context, sessionID string, limit int) ([]model.Conversation, error)
}

// KeyReporter 模型密钥状态
type KeyReporter interface {
	Model() string
	KeyStatus() string
}

// APIHandler 健康检查与数据查询接口
type APIHandler struct {
	store          DataStore
	keys           KeyReporter
	sessionService *service.SessionService
	serviceName    string
	port           int
	logger         *zap.Logger
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(store DataStore, keys KeyReporter, sessionService *service.SessionService, serviceName string, port int, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		store:          store,
		keys:           keys,
		sessionService: sessionService,
		serviceName:    serviceName,
		port:           port,
		logger:         logger,
	}
}

// Endpoints 对外暴露的接口列表
var Endpoints = []string{
	"/chat", "/health", "/analyze", "/debug",
	"/db/test", "/db/materials", "/db/assignments", "/db/statistics", "/db/chat-history",
	"/grade", "/grade/batch", "/evaluate", "/evaluate/batch", "/ws",
}

// Health 健康检查
func (h *APIHandler) Health(c *gin.Context) {
	dbConnected := h.store.Ping(c.Request.Context()) == nil
	online := 0
	if h.sessionService != nil {
		online = h.sessionService.OnlineCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"server":         model.ServerKind,
		"service":        h.serviceName,
		"model":          h.keys.Model(),
		"port":           h.port,
		"apiKeyStatus":   h.keys.KeyStatus(),
		"dbConnected":    dbConnected,
		"onlineSessions": online,
		"endpoints":      Endpoints,
		"timestamp":      model.NowMillis(),
	})
}

// DBTest 数据库连通性与记录数
func (h *APIHandler) DBTest(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("数据库连接失败", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeDatabaseError, "Database connection failed: "+err.Error())
		return
	}
	stats, err := h.store.Statistics(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeDatabaseError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "success",
		"message":          "Database connection successful",
		"materialsCount":   stats.TotalMaterials,
		"assignmentsCount": stats.TotalAssignments,
		"timestamp":        model.NowMillis(),
	})
}

// Materials 课程资料查询：search、course 或全部
func (h *APIHandler) Materials(c *gin.Context) {
	ctx := c.Request.Context()
	search := strings.TrimSpace(c.Query("search"))
	course := strings.TrimSpace(c.Query("course"))

	var (
		materials []model.Material
		queryType string
		err       error
	)
	switch {
	case search != "":
		queryType = "search"
		materials, err = h.store.SearchMaterials(ctx, search)
	case course != "":
		queryType = "course"
		materials, err = h.store.MaterialsByCourse(ctx, course, 0)
	default:
		queryType = "all"
		materials, err = h.store.ListMaterials(ctx)
	}
	if err != nil {
		h.logger.Error("查询课程资料失败", zap.String("queryType", queryType), zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeDatabaseError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"queryType": queryType,
		"count":     len(materials),
		"materials": materials,
		"summary":   service.MaterialsSummary(materials, search),
		"timestamp": model.NowMillis(),
	})
}

// Assignments 作业查询：upcoming、search、status、course 或全部
func (h *APIHandler) Assignments(c *gin.Context) {
	ctx := c.Request.Context()
	search := strings.TrimSpace(c.Query("search"))
	status := strings.TrimSpace(c.Query("status"))
	course := strings.TrimSpace(c.Query("course"))

	var (
		assignments []model.Assignment
		queryType   string
		err         error
	)
	switch {
	case c.Query("upcoming") == "true":
		queryType = "upcoming"
		assignments, err = h.store.UpcomingAssignments(ctx)
	case search != "":
		queryType = "search"
		assignments, err = h.store.SearchAssignments(ctx, search)
	case status != "":
		queryType = "status"
		assignments, err = h.store.AssignmentsByStatus(ctx, status)
	case course != "":
		queryType = "course"
		assignments, err = h.store.AssignmentsByCourse(ctx, course)
	default:
		queryType = "all"
		assignments, err = h.store.ListAssignments(ctx)
	}
	if err != nil {
		h.logger.Error("查询作业失败", zap.String("queryType", queryType), zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeDatabaseError, err.Error())
		return
	}

	summary := service.AssignmentsSummary(assignments, search)
	if queryType == "upcoming" {
		summary = service.UpcomingSummary(assignments)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"queryType":   queryType,
		"count":       len(assignments),
		"assignments": assignments,
		"summary":     summary,
		"timestamp":   model.NowMillis(),
	})
}

// Statistics 课程统计
func (h *APIHandler) Statistics(c *gin.Context) {
	stats, err := h.store.Statistics(c.Request.Context())
	if err != nil {
		h.logger.Error("统计查询失败", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeDatabaseError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"statistics": stats,
		"timestamp":  model.NowMillis(),
	})
}

// ChatHistory 某个会话已保存的聊天记录
func (h *APIHandler) ChatHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("sessionId"))
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, CodeMissingParameters, "sessionId parameter is required")
		return
	}
	limit := historyDefaultLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = min(n, historyMaxLimit)
	}

	history, err := h.store.ConversationsBySession(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("查询聊天记录失败", zap.String("sessionId", sessionID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeDatabaseError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"sessionId": sessionID,
		"count":     len(history),
		"history":   history,
		"timestamp": model.NowMillis(),
	})
}
