// =============================================================================
// 📦 capflow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithValidator(func(c *config.Config) error { return c.Validate() }).
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量 → 验证器
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 capflow 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Models 模型服务商配置
	Models ModelsConfig `yaml:"models" env:"MODELS"`

	// Tools 工具配置（媒体理解能力）
	Tools ToolsConfig `yaml:"tools" env:"TOOLS"`

	// Redis 最近决策缓存
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Database 决策审计日志
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 允许访问的 API Key，为空时不启用认证
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
	// 是否允许通过 query 参数传递 API Key
	AllowQueryAPIKey bool `yaml:"allow_query_api_key" env:"ALLOW_QUERY_API_KEY"`
	// 每个 IP 的限流速率（请求/秒）
	RateLimitRPS int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发容量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 允许的跨域来源
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// 请求体上限（字节）
	MaxRequestBytes int64 `yaml:"max_request_bytes" env:"MAX_REQUEST_BYTES"`
	// 单个决策存储（Redis / 数据库）写入超时
	DecisionSinkTimeout time.Duration `yaml:"decision_sink_timeout" env:"DECISION_SINK_TIMEOUT"`
}

// ModelsConfig 模型服务商配置
type ModelsConfig struct {
	// Providers 以 Provider ID 为键，注册顺序见 ProviderIDs
	Providers map[string]ProviderConfig `yaml:"providers"`

	// providerOrder 记录 YAML 中的键顺序
	providerOrder []string
}

// ProviderConfig 单个服务商配置
type ProviderConfig struct {
	// Type 服务商类型（openai / deepgram / gemini），为空时取 Provider ID
	Type string `yaml:"type"`
	// APIKey 凭证
	APIKey string `yaml:"api_key"`
	// APIKeyEnv 从该环境变量读取凭证
	APIKeyEnv string `yaml:"api_key_env"`
	// BaseURL 自定义端点
	BaseURL string `yaml:"base_url"`
	// Timeout 单次 HTTP 请求超时
	Timeout time.Duration `yaml:"timeout"`
	// Capabilities 限定启用的能力，为空时使用该类型支持的全部能力
	Capabilities []string `yaml:"capabilities"`
	// Disabled 跳过该服务商
	Disabled bool `yaml:"disabled"`
}

// ToolsConfig 工具配置
type ToolsConfig struct {
	Media MediaToolsConfig `yaml:"media" env:"MEDIA"`
}

// MediaToolsConfig 媒体理解全局配置，各能力的同名字段优先
type MediaToolsConfig struct {
	// Enabled 三态开关：未设置为 auto
	Enabled *bool `yaml:"enabled" env:"ENABLED"`
	// Models 共享模型列表，可用 capabilities 限定适用能力
	Models []MediaModelConfig `yaml:"models"`
	// Concurrency 单次运行内并发处理的附件数
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// Timeout 单次 Provider 调用超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// MaxBytes 单个附件大小上限
	MaxBytes int64 `yaml:"max_bytes" env:"MAX_BYTES"`

	Audio     MediaCapabilityConfig `yaml:"audio" env:"AUDIO"`
	Vision    MediaCapabilityConfig `yaml:"vision" env:"VISION"`
	Embedding MediaCapabilityConfig `yaml:"embedding" env:"EMBEDDING"`
}

// MediaCapabilityConfig 单个能力的配置
type MediaCapabilityConfig struct {
	Enabled     *bool              `yaml:"enabled" env:"ENABLED"`
	Models      []MediaModelConfig `yaml:"models"`
	Prompt      string             `yaml:"prompt" env:"PROMPT"`
	Language    string             `yaml:"language" env:"LANGUAGE"`
	MaxTokens   int                `yaml:"max_tokens" env:"MAX_TOKENS"`
	Dimensions  int                `yaml:"dimensions" env:"DIMENSIONS"`
	Concurrency int                `yaml:"concurrency" env:"CONCURRENCY"`
	Timeout     time.Duration      `yaml:"timeout" env:"TIMEOUT"`
	MaxBytes    int64              `yaml:"max_bytes" env:"MAX_BYTES"`
}

// MediaModelConfig 显式 (provider, model) 条目
type MediaModelConfig struct {
	Provider     string   `yaml:"provider" json:"provider"`
	Model        string   `yaml:"model" json:"model,omitempty"`
	Capabilities []string `yaml:"capabilities" json:"capabilities,omitempty"`
}

// ForCapability 返回指定能力的配置段，未知能力返回零值
func (m MediaToolsConfig) ForCapability(name string) MediaCapabilityConfig {
	switch name {
	case "audio":
		return m.Audio
	case "vision":
		return m.Vision
	case "embedding":
		return m.Embedding
	default:
		return MediaCapabilityConfig{}
	}
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用最近决策缓存
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 是否使用 TLS 连接
	TLS bool `yaml:"tls" env:"TLS"`
	// 决策保留时间
	DecisionTTL time.Duration `yaml:"decision_ttl" env:"DECISION_TTL"`
	// 最近决策列表长度
	RecentLimit int `yaml:"recent_limit" env:"RECENT_LIMIT"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 是否启用决策审计日志
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 驱动（postgres / sqlite）
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名（sqlite 时为文件路径）
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 最大打开连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接数
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	// 启动时由 GORM 自动建表，关闭后需先执行 capflow migrate up
	AutoMigrate bool `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "CAPFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Ptr:
		// 三态开关：*bool
		if field.Type().Elem().Kind() == reflect.Bool {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			field.Set(reflect.ValueOf(&b))
		}

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
