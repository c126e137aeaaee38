package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/eduassist/eduassist-go/internal/handler"
	"github.com/eduassist/eduassist-go/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrAlreadyRunning 服务已启动
var ErrAlreadyRunning = errors.New("server already running")

// Server 内嵌 HTTP 服务
type Server struct {
	port    int
	engine  *gin.Engine
	httpSrv *http.Server
	addr    string
	running bool
	done    chan struct{}
	mu      sync.Mutex
	logger  *zap.Logger
}

// New 创建服务并注册路由
func New(port int, handlers handler.Handlers, logger *zap.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger), middleware.CORS())
	handler.RegisterRoutes(engine, handlers)

	return &Server{
		port:   port,
		engine: engine,
		logger: logger,
	}
}

// Handler 路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 监听端口并在后台提供服务
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("监听端口 %d 失败: %w", s.port, err)
	}

	s.httpSrv = &http.Server{Handler: s.engine}
	s.addr = ln.Addr().String()
	s.running = true
	s.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP 服务异常退出", zap.Error(err))
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}(s.httpSrv, s.done)

	s.logger.Info("HTTP 服务启动成功", zap.String("addr", s.addr))
	return nil
}

// Shutdown 优雅关闭，未启动时直接返回
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.httpSrv, s.done
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	err := srv.Shutdown(ctx)
	select {
	case <-done:
	case <-ctx.Done():
	}

	s.mu.Lock()
	s.running = false
	s.httpSrv = nil
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("关闭 HTTP 服务失败: %w", err)
	}
	s.logger.Info("HTTP 服务已关闭")
	return nil
}

// Running 是否正在提供服务
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Addr 实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
