package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eduassist/eduassist-go/internal/analyzer"
	"github.com/eduassist/eduassist-go/internal/client"
	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/params"
	"go.uber.org/zap"
)

// ErrMissingPrompt 缺少用户问题
var ErrMissingPrompt = errors.New("userPrompt parameter is required")

// ChatConfig 聊天生成参数
type ChatConfig struct {
	Temperature     float64
	MaxOutputTokens int
	Port            int
}

// ChatInput 原始 HTTP 请求
type ChatInput struct {
	Method      string
	RawQuery    string
	ContentType string
	Body        io.Reader
}

// ChatRequest 解析后的聊天请求
type ChatRequest struct {
	UserPrompt  string
	ChatHistory string
	SessionID   string
	SaveToDB    bool
}

// ChatRequestFromParams 从请求参数构造聊天请求
func ChatRequestFromParams(p params.Params) ChatRequest {
	return ChatRequest{
		UserPrompt:  p.Get(params.PromptKey),
		ChatHistory: p.Get("chatHistory"),
		SessionID:   strings.TrimSpace(p.Get("sessionId")),
		SaveToDB:    p.Bool("saveToDb"),
	}
}

// ChatService 聊天服务：分类 → 检索 → 组装提示词 → 生成 → 打包
type ChatService struct {
	extractor     *params.Extractor
	contexts      *ContextService
	generator     Generator
	conversations ConversationStore
	memory        ConversationMemory
	classifier    func(string) model.Classification
	cfg           ChatConfig
	logger        *zap.Logger
}

// NewChatService 创建聊天服务，conversations 与 memory 可以为 nil
func NewChatService(
	extractor *params.Extractor,
	contexts *ContextService,
	generator Generator,
	conversations ConversationStore,
	memory ConversationMemory,
	cfg ChatConfig,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		extractor:     extractor,
		contexts:      contexts,
		generator:     generator,
		conversations: conversations,
		memory:        memory,
		classifier:    analyzer.Classify,
		cfg:           cfg,
		logger:        logger,
	}
}

// HandleChat 处理一次原始聊天请求
func (s *ChatService) HandleChat(ctx context.Context, in ChatInput) (*model.ChatResult, error) {
	p, err := s.extractor.Extract(in.Method, in.ContentType, in.RawQuery, in.Body)
	if err != nil {
		return nil, err
	}
	return s.Answer(ctx, ChatRequestFromParams(p))
}

// Answer 处理解析后的聊天请求
func (s *ChatService) Answer(ctx context.Context, req ChatRequest) (*model.ChatResult, error) {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return nil, ErrMissingPrompt
	}
	if !s.generator.HasAPIKey() {
		return nil, client.ErrNoAPIKey
	}

	s.logger.Info("处理聊天请求",
		zap.String("sessionId", req.SessionID),
		zap.Int("promptLength", len(req.UserPrompt)),
		zap.Int("historyLength", len(req.ChatHistory)),
		zap.Bool("saveToDb", req.SaveToDB))

	// 1. 意图分类
	c := s.classify(req.UserPrompt)

	// 2. 检索数据库上下文
	var retrieved model.RetrievedContext
	if c.NeedsDatabase() {
		retrieved = s.contexts.Retrieve(ctx, c)
	}

	// 3. 历史对话，请求未携带时从会话记忆补充
	history := req.ChatHistory
	if strings.TrimSpace(history) == "" && req.SessionID != "" && s.memory != nil {
		recent, err := s.memory.Recent(ctx, req.SessionID)
		if err != nil {
			s.logger.Warn("读取会话记忆失败", zap.String("sessionId", req.SessionID), zap.Error(err))
		}
		history = recent
	}

	// 4. 组装提示词并调用模型
	prompt := BuildChatPrompt(req.UserPrompt, history, retrieved.Text, c)
	answer, err := s.generator.Generate(ctx, prompt, client.GenerationConfig{
		Temperature:     s.cfg.Temperature,
		MaxOutputTokens: s.cfg.MaxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("生成回复失败: %w", err)
	}

	// 5. 保存聊天记录
	saved := s.save(ctx, req, answer)
	if s.memory != nil && req.SessionID != "" {
		if err := s.memory.Append(ctx, req.SessionID, req.UserPrompt, answer); err != nil {
			s.logger.Warn("写入会话记忆失败", zap.String("sessionId", req.SessionID), zap.Error(err))
		}
	}

	s.logger.Info("聊天请求完成",
		zap.String("sessionId", req.SessionID),
		zap.String("contentType", string(c.ContentType)),
		zap.String("queryType", string(c.QueryType)),
		zap.Bool("databaseEnhanced", c.NeedsDatabase()),
		zap.Bool("saved", saved))

	// 6. 打包响应
	return PackageResult(answer, req.SessionID, s.generator.Model(), s.cfg.Port, c, c.NeedsDatabase(), saved), nil
}

// Analyze 只做分类与检索，不调用模型
func (s *ChatService) Analyze(ctx context.Context, message string) (model.Classification, model.RetrievedContext) {
	c := s.classify(message)
	var retrieved model.RetrievedContext
	if c.NeedsDatabase() {
		retrieved = s.contexts.Retrieve(ctx, c)
	}
	return c, retrieved
}

// classify 分类异常时退化为 GENERAL
func (s *ChatService) classify(message string) (c model.Classification) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("意图分类异常，使用默认分类", zap.Any("panic", r))
			c = model.GeneralClassification()
		}
	}()
	return s.classifier(message)
}

func (s *ChatService) save(ctx context.Context, req ChatRequest, answer string) bool {
	if !req.SaveToDB || req.SessionID == "" || s.conversations == nil {
		return false
	}
	err := s.conversations.SaveConversation(ctx, &model.Conversation{
		SessionID:  req.SessionID,
		UserPrompt: req.UserPrompt,
		AIResponse: answer,
		Model:      s.generator.Model(),
	})
	if err != nil {
		s.logger.Error("保存聊天记录失败", zap.String("sessionId", req.SessionID), zap.Error(err))
		return false
	}
	return true
}

// PackageResult 构造聊天响应，缺省值使用占位而不是省略字段
func PackageResult(answer, sessionID, modelName string, port int, c model.Classification, usedDatabase, saved bool) *model.ChatResult {
	if sessionID == "" {
		sessionID = model.NullSessionID
	}
	return &model.ChatResult{
		Status:              "success",
		Response:            answer,
		SessionID:           sessionID,
		Timestamp:           model.NowMillis(),
		Model:               modelName,
		Server:              model.ServerKind,
		Port:                port,
		SavedToDatabase:     saved,
		DatabaseEnhanced:    usedDatabase,
		DetectedContentType: c.ContentType,
		DetectedQueryType:   c.QueryType,
		SearchTerms:         c.SearchTerms,
	}
}
