package handler

import (
	"net/http"

	"github.com/eduassist/eduassist-go/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler 聊天接口处理器
type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat 聊天接口，支持 GET 查询参数与 JSON、表单、multipart 请求体
func (h *ChatHandler) Chat(c *gin.Context) {
	result, err := h.chatService.HandleChat(c.Request.Context(), service.ChatInput{
		Method:      c.Request.Method,
		RawQuery:    c.Request.URL.RawQuery,
		ContentType: c.GetHeader("Content-Type"),
		Body:        c.Request.Body,
	})
	if err != nil {
		h.logger.Warn("聊天请求失败", zap.Error(err))
		respondServiceError(c, err, CodeAPIError)
		return
	}
	c.JSON(http.StatusOK, result)
}
