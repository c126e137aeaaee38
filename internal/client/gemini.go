package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eduassist/eduassist-go/internal/config"
	"go.uber.org/zap"
)

// ErrNoAPIKey 未配置 API 密钥
var ErrNoAPIKey = errors.New("Gemini API key not configured")

// GenerationError 上游返回非成功状态
type GenerationError struct {
	StatusCode int
	Body       string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("API call failed (HTTP %d): %s", e.StatusCode, e.Body)
}

// GenerationConfig 生成参数
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GeminiClient Gemini 客户端
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiClient 创建 Gemini 客户端
func NewGeminiClient(cfg config.GeminiConfig, logger *zap.Logger) *GeminiClient {
	key := strings.TrimSpace(cfg.APIKey)
	if !cfg.HasAPIKey() {
		key = ""
	}
	return &GeminiClient{
		apiKey:     key,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Part 内容片段
type Part struct {
	Text string `json:"text"`
}

// Content 内容
type Content struct {
	Parts []Part `json:"parts"`
}

// GenerateRequest generateContent 请求
type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// GenerateResponse generateContent 响应
type GenerateResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// Model 当前模型名
func (c *GeminiClient) Model() string {
	return c.model
}

// HasAPIKey 是否已配置密钥
func (c *GeminiClient) HasAPIKey() bool {
	return c.apiKey != ""
}

// KeyStatus 脱敏后的密钥状态
func (c *GeminiClient) KeyStatus() string {
	switch {
	case c.apiKey == "":
		return "not_configured"
	case len(c.apiKey) < 20:
		return "invalid_length"
	default:
		return fmt.Sprintf("configured (%s...%s)", c.apiKey[:8], c.apiKey[len(c.apiKey)-4:])
	}
}

// Generate 调用 generateContent 接口
func (c *GeminiClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	reqBody := GenerateRequest{
		Contents:         []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: cfg,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Gemini 返回错误",
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", time.Since(start)))
		return "", &GenerationError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("响应中没有候选内容")
	}

	c.logger.Debug("Gemini 调用完成",
		zap.String("model", c.model),
		zap.Int("promptLength", len(prompt)),
		zap.Duration("latency", time.Since(start)))

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// GenerateWithRetry 线性退避重试，第 n 次失败后等待 n 秒
func (c *GeminiClient) GenerateWithRetry(ctx context.Context, prompt string, cfg GenerationConfig, attempts int) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := c.Generate(ctx, prompt, cfg)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, ErrNoAPIKey) || attempt == attempts {
			break
		}

		c.logger.Warn("Gemini 调用失败，准备重试",
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return "", fmt.Errorf("重试 %d 次后仍失败: %w", attempts, lastErr)
}

// TestConnection 测试 API 连通性
func (c *GeminiClient) TestConnection(ctx context.Context) (string, error) {
	return c.Generate(ctx, "Hello, please respond with 'API connection successful'",
		GenerationConfig{Temperature: 0.1, MaxOutputTokens: 50})
}
