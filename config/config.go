package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Trace    TraceConfig    `mapstructure:"trace"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // debug / release
	EnableSwagger   bool          `mapstructure:"enable_swagger"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitQPS    float64       `mapstructure:"rate_limit_qps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres / sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json / console
}

type AuthConfig struct {
	// 身份服务签发的 JWT 共享密钥；本服务只做验签取 subject
	JWTSecret string `mapstructure:"jwt_secret"`
}

type TraceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Load 读取 config.yaml 并叠加 RC_ 前缀环境变量；配置文件缺失时使用默认值。
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("RC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.enable_swagger", false)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit_qps", 50)
	v.SetDefault("server.rate_limit_burst", 100)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:rentalchat.db?_busy_timeout=5000")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")

	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.endpoint", "localhost:4318")
}
