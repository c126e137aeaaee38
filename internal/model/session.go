package model

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ChatSession WebSocket 聊天会话
type ChatSession struct {
	SessionID     string
	ConnID        string
	Conn          *websocket.Conn
	ClientIP      string
	LastHeartbeat time.Time
	MissedBeats   int
	mu            sync.RWMutex // 保护会话字段
}

// UpdateHeartbeat 更新心跳时间
func (s *ChatSession) UpdateHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastHeartbeat = time.Now()
	s.MissedBeats = 0
}

// SinceHeartbeat 距上次心跳的时长
func (s *ChatSession) SinceHeartbeat(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.LastHeartbeat)
}

// IncrementMissedBeats 增加丢失心跳次数并返回当前值
func (s *ChatSession) IncrementMissedBeats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MissedBeats++
	return s.MissedBeats
}

// ShouldBeCleaned 判断是否应该清理
func (s *ChatSession) ShouldBeCleaned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MissedBeats >= 3
}

// WriteMessage 向 WebSocket 写入消息（线程安全）
func (s *ChatSession) WriteMessage(message interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteJSON(message)
}
