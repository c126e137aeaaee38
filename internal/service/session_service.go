package service

import (
	"errors"
	"sync"
	"time"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrSessionOffline 会话不在线
var ErrSessionOffline = errors.New("会话不在线")

const (
	heartbeatCheckInterval = 30 * time.Second
	heartbeatTimeout       = 60 * time.Second
)

// SessionService WebSocket 聊天会话管理
type SessionService struct {
	sessions map[string]*model.ChatSession // sessionId -> session
	connToID map[string]string             // connId -> sessionId
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// NewSessionService 创建会话管理服务并启动心跳检测
func NewSessionService(logger *zap.Logger) *SessionService {
	s := &SessionService{
		sessions: make(map[string]*model.ChatSession),
		connToID: make(map[string]string),
		stop:     make(chan struct{}),
		logger:   logger,
	}
	go s.heartbeatChecker(heartbeatCheckInterval)
	return s
}

// Register 注册会话，同一 sessionId 的旧连接会被关闭
func (s *SessionService) Register(sessionID, connID string, conn *websocket.Conn, clientIP string) *model.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[sessionID]; ok {
		s.logger.Info("会话重新连接，关闭旧连接",
			zap.String("sessionId", sessionID),
			zap.String("oldConnId", existing.ConnID))
		if existing.Conn != nil {
			existing.Conn.Close()
		}
		delete(s.connToID, existing.ConnID)
	}

	session := &model.ChatSession{
		SessionID:     sessionID,
		ConnID:        connID,
		Conn:          conn,
		ClientIP:      clientIP,
		LastHeartbeat: time.Now(),
	}
	s.sessions[sessionID] = session
	s.connToID[connID] = sessionID

	s.logger.Info("会话注册成功",
		zap.String("sessionId", sessionID),
		zap.String("connId", connID),
		zap.String("clientIp", clientIP))
	return session
}

// Send 向会话发送消息，写入失败时移除会话
func (s *SessionService) Send(sessionID string, message interface{}) error {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		s.logger.Warn("会话不在线，消息发送失败", zap.String("sessionId", sessionID))
		return ErrSessionOffline
	}

	if err := session.WriteMessage(message); err != nil {
		s.logger.Error("消息发送失败", zap.String("sessionId", sessionID), zap.Error(err))
		go s.RemoveByConnID(session.ConnID)
		return err
	}
	return nil
}

// UpdateHeartbeat 更新心跳时间
func (s *SessionService) UpdateHeartbeat(sessionID string) bool {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	session.UpdateHeartbeat()
	return true
}

// RemoveByConnID 连接断开时移除会话，新连接已接管的会话不受影响
func (s *SessionService) RemoveByConnID(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.connToID[connID]
	if !ok {
		return
	}
	delete(s.connToID, connID)
	if session, ok := s.sessions[sessionID]; ok && session.ConnID == connID {
		delete(s.sessions, sessionID)
		s.logger.Info("会话已移除", zap.String("sessionId", sessionID), zap.String("connId", connID))
	}
}

// OnlineCount 在线会话数
func (s *SessionService) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close 停止心跳检测并关闭所有连接
func (s *SessionService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.Conn != nil {
			session.Conn.Close()
		}
		delete(s.sessions, id)
	}
	s.connToID = make(map[string]string)
}

func (s *SessionService) heartbeatChecker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep 清理连续丢失心跳的会话
func (s *SessionService) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if session.SinceHeartbeat(now) <= heartbeatTimeout {
			continue
		}
		missed := session.IncrementMissedBeats()
		if session.ShouldBeCleaned() {
			s.logger.Info("清理无效会话", zap.String("sessionId", id), zap.Int("missedBeats", missed))
			if session.Conn != nil {
				session.Conn.Close()
			}
			delete(s.sessions, id)
			delete(s.connToID, session.ConnID)
		} else {
			s.logger.Warn("会话心跳丢失", zap.String("sessionId", id), zap.Int("missedBeats", missed))
		}
	}
}
