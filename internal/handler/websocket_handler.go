package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsReplyTimeout 单条 WebSocket 聊天消息的处理时限
const wsReplyTimeout = 2 * time.Minute

// WebSocketHandler WebSocket 聊天处理器
type WebSocketHandler struct {
	sessionService *service.SessionService
	chatService    *service.ChatService
	logger         *zap.Logger
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler(sessionService *service.SessionService, chatService *service.ChatService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		sessionService: sessionService,
		chatService:    chatService,
		logger:         logger,
	}
}

// HandleWebSocket WebSocket 连接入口，sessionId 为空时自动生成
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("sessionId"))
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// 升级为 WebSocket 连接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.New().String()
	h.sessionService.Register(sessionID, connID, conn, c.ClientIP())
	defer h.sessionService.RemoveByConnID(connID)

	h.logger.Info("WebSocket 连接建立", zap.String("sessionId", sessionID), zap.String("connId", connID))

	// 消息循环
	for {
		var msg model.ChatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket 读取错误", zap.Error(err))
			}
			break
		}
		h.handleMessage(sessionID, &msg)
	}

	h.logger.Info("WebSocket 连接断开", zap.String("sessionId", sessionID))
}

// handleMessage 处理客户端消息
func (h *WebSocketHandler) handleMessage(sessionID string, msg *model.ChatMessage) {
	switch msg.Type {
	case model.MessageChat:
		if msg.MessageID == "" {
			msg.MessageID = uuid.New().String()
		}
		h.ack(sessionID, msg.MessageID)
		// 异步生成回复，不阻塞读循环
		go h.reply(sessionID, *msg)

	case model.MessageHeartbeat:
		h.sessionService.UpdateHeartbeat(sessionID)
		h.logger.Debug("收到心跳", zap.String("sessionId", sessionID))
		h.ack(sessionID, msg.MessageID)

	default:
		h.logger.Warn("未知消息类型", zap.String("sessionId", sessionID), zap.String("type", msg.Type))
	}
}

func (h *WebSocketHandler) reply(sessionID string, msg model.ChatMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), wsReplyTimeout)
	defer cancel()

	result, err := h.chatService.Answer(ctx, service.ChatRequest{
		UserPrompt:  msg.Content,
		ChatHistory: msg.ChatHistory,
		SessionID:   sessionID,
		SaveToDB:    msg.SaveToDB,
	})

	out := model.ChatMessage{
		MessageID: msg.MessageID,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
	if err != nil {
		h.logger.Warn("WebSocket 聊天失败", zap.String("sessionId", sessionID), zap.Error(err))
		out.Type = model.MessageError
		out.Content = err.Error()
	} else {
		out.Type = model.MessageAIResponse
		out.Content = result.Response
		out.Result = result
	}
	h.send(sessionID, out)
}

func (h *WebSocketHandler) ack(sessionID, messageID string) {
	h.send(sessionID, model.ChatMessage{
		MessageID: messageID,
		Type:      model.MessageAck,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
}

// send 会话已下线或写入失败时只记录日志
func (h *WebSocketHandler) send(sessionID string, msg model.ChatMessage) {
	if err := h.sessionService.Send(sessionID, msg); err != nil {
		h.logger.Debug("WebSocket 消息发送失败",
			zap.String("sessionId", sessionID),
			zap.String("type", msg.Type),
			zap.Error(err))
	}
}
