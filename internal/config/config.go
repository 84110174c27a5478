package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Eliza  ElizaConfig
	AI     AIConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	eliza, err := loadElizaConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Eliza: eliza, AI: ai}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ElizaConfig 描述对话端点与连接参数。
type ElizaConfig struct {
	Path         string
	ScriptID     string
	RulesFile    string
	SendQueue    int
	WriteTimeout time.Duration
	PingInterval time.Duration
	IdleTimeout  time.Duration
	ReadLimit    int64
}

func loadElizaConfig() (ElizaConfig, error) {
	path := getEnvOrDefault("ELIZA_PATH", "/eliza")
	if !strings.HasPrefix(path, "/") {
		return ElizaConfig{}, fmt.Errorf("invalid ELIZA_PATH value %q: must start with /", path)
	}

	sendQueue, err := parseIntEnv("ELIZA_SEND_QUEUE", 16)
	if err != nil {
		return ElizaConfig{}, err
	}
	if sendQueue < 1 {
		sendQueue = 1
	}

	writeTimeout, err := parseSecondsEnv("ELIZA_WRITE_TIMEOUT", 10)
	if err != nil {
		return ElizaConfig{}, err
	}

	pingInterval, err := parseSecondsEnv("ELIZA_PING_INTERVAL", 54)
	if err != nil {
		return ElizaConfig{}, err
	}

	idleTimeout, err := parseSecondsEnv("ELIZA_IDLE_TIMEOUT", 60)
	if err != nil {
		return ElizaConfig{}, err
	}
	if pingInterval >= idleTimeout {
		return ElizaConfig{}, fmt.Errorf("ELIZA_PING_INTERVAL (%s) must be shorter than ELIZA_IDLE_TIMEOUT (%s)", pingInterval, idleTimeout)
	}

	readLimit, err := parseIntEnv("ELIZA_READ_LIMIT", 4096)
	if err != nil {
		return ElizaConfig{}, err
	}

	return ElizaConfig{
		Path:         path,
		ScriptID:     getEnvOrDefault("ELIZA_SCRIPT", "doctor"),
		RulesFile:    strings.TrimSpace(os.Getenv("ELIZA_RULES_FILE")),
		SendQueue:    sendQueue,
		WriteTimeout: writeTimeout,
		PingInterval: pingInterval,
		IdleTimeout:  idleTimeout,
		ReadLimit:    int64(readLimit),
	}, nil
}

// AIConfig 描述兜底回复所用大模型的配置。
type AIConfig struct {
	FallbackEnabled bool
	APIKey          string
	AccessKey       string
	SecretKey       string
	Model           string
	BaseURL         string
	Region          string
	Temperature     *float64
	TopP            *float64
	MaxTokens       *int
	Timeout         time.Duration
}

// Enabled 表示是否开启大模型兜底且提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.FallbackEnabled && c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	enabled, err := parseBoolEnv("ELIZA_AI_FALLBACK", false)
	if err != nil {
		return AIConfig{}, err
	}

	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseSecondsEnv("ARK_TIMEOUT", 8)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		FallbackEnabled: enabled,
		APIKey:          strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:       strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:       strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:           strings.TrimSpace(os.Getenv("Model")),
		BaseURL:         getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:          getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:     temperature,
		TopP:            topP,
		MaxTokens:       maxTokens,
		Timeout:         timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

// parseSecondsEnv 解析以秒为单位的正整数时长。
func parseSecondsEnv(key string, defaultSeconds int) (time.Duration, error) {
	seconds, err := parseIntEnv(key, defaultSeconds)
	if err != nil {
		return 0, err
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("invalid %s value %d: must be positive", key, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
