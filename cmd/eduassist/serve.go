package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/eduassist/eduassist-go/internal/client"
	"github.com/eduassist/eduassist-go/internal/config"
	"github.com/eduassist/eduassist-go/internal/document"
	"github.com/eduassist/eduassist-go/internal/handler"
	"github.com/eduassist/eduassist-go/internal/params"
	"github.com/eduassist/eduassist-go/internal/repository"
	"github.com/eduassist/eduassist-go/internal/server"
	"github.com/eduassist/eduassist-go/internal/service"
	"github.com/eduassist/eduassist-go/pkg/database"
	"github.com/eduassist/eduassist-go/pkg/logger"
	redisClient "github.com/eduassist/eduassist-go/pkg/redis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP / WebSocket 服务",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// app 组装好的服务及其需要释放的资源
type app struct {
	server   *server.Server
	sessions *service.SessionService
	cleanup  []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

// runServe 出错时返回错误，保证延迟的清理都能执行
func runServe() error {
	// 加载配置
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("eduassist 服务启动中...", zap.String("model", cfg.Gemini.Model))

	a, err := buildApp(cfg, zapLogger)
	if err != nil {
		zapLogger.Error("初始化服务失败", zap.Error(err))
		return err
	}
	defer a.close()

	if err := a.server.Start(); err != nil {
		zapLogger.Error("启动服务失败", zap.Error(err))
		return err
	}

	// 等待退出信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	zapLogger.Info("收到退出信号，正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("关闭服务超时", zap.Error(err))
		return err
	}
	return nil
}

// buildApp 按配置组装全部组件
func buildApp(cfg *config.Config, zapLogger *zap.Logger) (*app, error) {
	a := &app{}

	// 1. 数据库
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.cleanup = append(a.cleanup, func() { _ = sqlDB.Close() })
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			a.close()
			return nil, err
		}
	}
	store := repository.NewStore(db, zapLogger)

	// 2. 会话记忆（可选）
	var memory service.ConversationMemory
	if cfg.Redis.Enabled {
		rdb, err := redisClient.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("初始化 Redis 失败: %w", err)
		}
		a.cleanup = append(a.cleanup, func() { _ = rdb.Close() })
		memory = service.NewHistoryService(rdb, cfg.Redis.HistoryTTL, cfg.Redis.HistoryTurns, zapLogger)
	}

	// 3. 模型客户端
	gemini := client.NewGeminiClient(cfg.Gemini, zapLogger)
	if !gemini.HasAPIKey() {
		zapLogger.Warn("未配置 Gemini API Key，聊天与批改接口将返回 NO_API_KEY")
	}

	// 4. 业务服务
	extractor := params.NewExtractor(zapLogger)
	contexts := service.NewContextService(store, zapLogger)
	chatService := service.NewChatService(extractor, contexts, gemini, store, memory, service.ChatConfig{
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		Port:            cfg.Server.Port,
	}, zapLogger)

	roots := append([]string{cfg.Uploads.Root}, cfg.Uploads.ExtraRoots...)
	gradingService := service.NewGradingService(store, gemini,
		document.NewLocator(document.KindAssignments, roots...),
		service.GradingLimits(cfg.Batch), cfg.Batch.Interval, zapLogger)
	evaluationService := service.NewEvaluationService(store, gemini,
		document.NewLocator(document.KindMaterials, roots...),
		service.EvaluationLimits(cfg.Batch), cfg.Batch.Interval, zapLogger)

	a.sessions = service.NewSessionService(zapLogger)
	a.cleanup = append(a.cleanup, a.sessions.Close)

	// 5. 路由
	handlers := handler.Handlers{
		Chat:       handler.NewChatHandler(chatService, zapLogger),
		Classifier: handler.NewClassifierHandler(chatService, extractor, zapLogger),
		API:        handler.NewAPIHandler(store, gemini, a.sessions, cfg.Server.Name, cfg.Server.Port, zapLogger),
		Grading: handler.NewGradingHandler(gradingService, evaluationService,
			params.NewTolerantExtractor(zapLogger), zapLogger),
		WebSocket: handler.NewWebSocketHandler(a.sessions, chatService, zapLogger),
	}
	a.server = server.New(cfg.Server.Port, handlers, zapLogger)
	return a, nil
}
