package model

import "time"

// WebSocket 消息类型
const (
	MessageChat       = "CHAT"
	MessageHeartbeat  = "HEARTBEAT"
	MessageAIResponse = "AI_RESPONSE"
	MessageAck        = "ACK"
	MessageError      = "ERROR"
)

// ChatMessage WebSocket 聊天消息
type ChatMessage struct {
	MessageID   string      `json:"messageId"`
	Type        string      `json:"type"` // CHAT, HEARTBEAT, AI_RESPONSE, ACK, ERROR
	Content     string      `json:"content"`
	ChatHistory string      `json:"chatHistory,omitempty"`
	SaveToDB    bool        `json:"saveToDb,omitempty"`
	SessionID   string      `json:"sessionId,omitempty"`
	Result      *ChatResult `json:"result,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// AnalyzeResponse /analyze 接口响应
type AnalyzeResponse struct {
	Status            string         `json:"status"`
	Message           string         `json:"message"`
	Analysis          Classification `json:"analysis"`
	NeedsDatabaseData bool           `json:"needsDatabaseData"`
	DatabaseContext   string         `json:"databaseContext"`
	Timestamp         int64          `json:"timestamp"`
}
