// Package config 提供了统一的配置加载与管理能力.
// 配置文件为 TOML 格式，可通过 APP_ 前缀的环境变量覆盖，文件变更时自动热加载。
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/rectcount/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    toml:"server"`
	Log       LogConfig       `mapstructure:"log"       toml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   toml:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"   toml:"tracing"`
	Index     IndexConfig     `mapstructure:"index"     toml:"index"`
	Cache     CacheConfig     `mapstructure:"cache"     toml:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" toml:"ratelimit"`
	Minio     MinioConfig     `mapstructure:"minio"     toml:"minio"`
	Version   string          `mapstructure:"version"   toml:"version"`
}

// ServerConfig 定义服务器运行时的基础网络与环境参数.
type ServerConfig struct {
	Name        string `mapstructure:"name"        toml:"name"        validate:"required"`
	Environment string `mapstructure:"environment" toml:"environment" validate:"omitempty,oneof=dev test prod"`
	HTTP        struct {
		Addr            string        `mapstructure:"addr"             toml:"addr"`
		Port            int           `mapstructure:"port"             toml:"port"             validate:"required,min=1,max=65535"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"     toml:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"    toml:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" toml:"shutdown_timeout"`
	} `mapstructure:"http" toml:"http"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"` // 日志级别。
	File       string `mapstructure:"file"        toml:"file"`                                                         // 日志文件路径，为空输出到 stdout。
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`                                                     // 单个文件最大大小 (MB)。
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`                                                  // 最大备份数。
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`                                                      // 最大保留天数。
	Compress   bool   `mapstructure:"compress"    toml:"compress"`                                                     // 是否压缩旧日志。
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Port    string `mapstructure:"port"    toml:"port"`
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// TracingConfig 分布式链路追踪 (OpenTelemetry) 配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"min=0,max=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// IndexConfig 定义计数索引的构建参数.
type IndexConfig struct {
	Strategy     string `mapstructure:"strategy"      toml:"strategy"      validate:"omitempty,oneof=persistent table linear"`
	Source       string `mapstructure:"source"        toml:"source"        validate:"required"` // 本地路径，或 minio://<object>。
	Format       string `mapstructure:"format"        toml:"format"        validate:"omitempty,oneof=json csv yaml"`
	BatchWorkers int    `mapstructure:"batch_workers" toml:"batch_workers" validate:"min=0"`
	MaxBatch     int    `mapstructure:"max_batch"     toml:"max_batch"     validate:"min=0"`
}

// CacheConfig 查询结果本地缓存参数 (BigCache).
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"     toml:"enabled"`
	LifeWindow time.Duration `mapstructure:"life_window" toml:"life_window"`
	MaxMB      int           `mapstructure:"max_mb"      toml:"max_mb"      validate:"min=0"`
}

// RateLimitConfig 定义令牌桶限流参数.
type RateLimitConfig struct {
	Rate                 int  `mapstructure:"rate"                   toml:"rate"`
	Burst                int  `mapstructure:"burst"                  toml:"burst"`
	Enabled              bool `mapstructure:"enabled"                toml:"enabled"`
	MaxConcurrentBatches int  `mapstructure:"max_concurrent_batches" toml:"max_concurrent_batches" validate:"min=0"` // 0 表示不限制。
}

// MinioConfig 定义 S3 兼容对象存储 MinIO 的连接参数.
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"          toml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"     toml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" toml:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"       toml:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"           toml:"use_ssl"`
}

var (
	vInstance = viper.New()
	hooksMu   sync.Mutex
	onReload  []func(*Config)
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	onReload = append(onReload, hook)
}

// SetDefaults 写入未在文件中出现的默认值.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "rectcount")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", 5*time.Second)
	v.SetDefault("server.http.write_timeout", 10*time.Second)
	v.SetDefault("server.http.shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("tracing.sampler_ratio", 1.0)
	v.SetDefault("index.strategy", "persistent")
	v.SetDefault("index.max_batch", 10000)
	v.SetDefault("cache.life_window", 10*time.Minute)
	v.SetDefault("cache.max_mb", 64)
	v.SetDefault("ratelimit.rate", 1000)
	v.SetDefault("ratelimit.burst", 2000)
}

// Load 读取、校验配置，并开启文件监听.
func Load(path string, conf *Config) error {
	if err := read(vInstance, path, conf); err != nil {
		return err
	}

	validate := validator.New()
	vInstance.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name, "op", event.Op.String())
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		var updated Config
		if unmarshalErr := vInstance.Unmarshal(&updated); unmarshalErr != nil {
			slog.Error("reload config unmarshal failed", "error", unmarshalErr)
			return
		}
		if validateErr := validate.Struct(&updated); validateErr != nil {
			slog.Error("reload config validation failed", "error", validateErr)
			return
		}

		*conf = updated
		logging.SetLevel(updated.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")

		hooksMu.Lock()
		hooks := append([]func(*Config){}, onReload...)
		hooksMu.Unlock()
		for _, hook := range hooks {
			hook(&updated)
		}
	})
	vInstance.WatchConfig()

	return nil
}

// LoadFile 只读取并校验配置，不开启监听，适用于命令行与测试.
func LoadFile(path string, conf *Config) error {
	return read(viper.New(), path, conf)
}

func read(v *viper.Viper, path string, conf *Config) error {
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}

	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	if err := validator.New().Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if unmarshalErr := json.Unmarshal(data, &configMap); unmarshalErr != nil {
		slog.Error("failed to unmarshal config for masking", "error", unmarshalErr)
		return
	}

	mask(configMap)

	maskedJSON, marshalErr := json.MarshalIndent(configMap, "  ", "  ")
	if marshalErr != nil {
		slog.Error("failed to marshal masked config", "error", marshalErr)
		return
	}

	slog.Info("Current effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}
