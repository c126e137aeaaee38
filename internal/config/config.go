package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlaceholderAPIKey 示例配置中的占位密钥，视为未配置
const PlaceholderAPIKey = "YOUR_API_KEY_HERE"

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Batch    BatchConfig    `yaml:"batch"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port          int           `yaml:"port"`
	Name          string        `yaml:"name"`
	ShutdownGrace time.Duration `yaml:"shutdownGrace"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // postgres, sqlite
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
	AutoMigrate  bool   `yaml:"autoMigrate"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	HistoryTTL   time.Duration `yaml:"historyTTL"`
	HistoryTurns int           `yaml:"historyTurns"`
}

// GeminiConfig Gemini 模型配置
type GeminiConfig struct {
	APIKey          string        `yaml:"apiKey"`
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"baseUrl"`
	Timeout         time.Duration `yaml:"timeout"`
	Temperature     float64       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"maxOutputTokens"`
}

// UploadsConfig 上传文件目录配置
type UploadsConfig struct {
	Root       string   `yaml:"root"`
	ExtraRoots []string `yaml:"extraRoots"`
}

// BatchConfig 批处理配置
type BatchConfig struct {
	Interval         time.Duration `yaml:"interval"`
	GradeLimit       int           `yaml:"gradeLimit"`
	GradeMaxLimit    int           `yaml:"gradeMaxLimit"`
	EvaluateLimit    int           `yaml:"evaluateLimit"`
	EvaluateMaxLimit int           `yaml:"evaluateMaxLimit"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadConfig 加载配置文件
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回仅包含默认值的配置
func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

// applyEnv 环境变量覆盖
func (c *Config) applyEnv() {
	if !c.Gemini.HasAPIKey() {
		if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
			c.Gemini.APIKey = key
		}
	}
	if dsn := os.Getenv("EDUASSIST_DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if port, err := strconv.Atoi(os.Getenv("EDUASSIST_PORT")); err == nil && port > 0 {
		c.Server.Port = port
	}
}

// applyDefaults 填充默认值
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8081
	}
	if c.Server.Name == "" {
		c.Server.Name = "eduassist"
	}
	if c.Server.ShutdownGrace == 0 {
		c.Server.ShutdownGrace = 2 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "eduassist.db"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.HistoryTTL == 0 {
		c.Redis.HistoryTTL = 24 * time.Hour
	}
	if c.Redis.HistoryTurns == 0 {
		c.Redis.HistoryTurns = 5
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1"
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = 60 * time.Second
	}
	if c.Gemini.Temperature == 0 {
		c.Gemini.Temperature = 0.7
	}
	if c.Gemini.MaxOutputTokens == 0 {
		c.Gemini.MaxOutputTokens = 1500
	}
	if c.Uploads.Root == "" {
		c.Uploads.Root = "uploads"
	}
	if c.Batch.Interval == 0 {
		c.Batch.Interval = time.Second
	}
	if c.Batch.GradeLimit == 0 {
		c.Batch.GradeLimit = 10
	}
	if c.Batch.GradeMaxLimit == 0 {
		c.Batch.GradeMaxLimit = 50
	}
	if c.Batch.EvaluateLimit == 0 {
		c.Batch.EvaluateLimit = 5
	}
	if c.Batch.EvaluateMaxLimit == 0 {
		c.Batch.EvaluateMaxLimit = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// HasAPIKey 是否配置了有效的 API 密钥（占位符不算）
func (g GeminiConfig) HasAPIKey() bool {
	key := strings.TrimSpace(g.APIKey)
	return key != "" && key != PlaceholderAPIKey
}
