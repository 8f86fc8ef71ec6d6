package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type App struct {
	Name string `mapstructure:"name" validate:"required"`
	Env  string `mapstructure:"env" validate:"oneof=dev prod test"`
}

type Server struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type DB struct {
	DSN          string `mapstructure:"dsn" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type Redis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	FetchTTLSecs int    `mapstructure:"fetch_ttl_secs"`
}

type RabbitMQ struct {
	URL         string `mapstructure:"url"`
	Exchange    string `mapstructure:"exchange"`
	MirrorQueue string `mapstructure:"mirror_queue"`
	Prefetch    int    `mapstructure:"prefetch"`
}

type SeaArt struct {
	BaseURL   string `mapstructure:"base_url" validate:"required,url"`
	UserAgent string `mapstructure:"user_agent"`
	PageSize  int    `mapstructure:"page_size" validate:"gt=0"`
}

type IPFS struct {
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
	Token    string `mapstructure:"token"`
}

type Otel struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type Config struct {
	App      App      `mapstructure:"app"`
	Server   Server   `mapstructure:"server"`
	DB       DB       `mapstructure:"db"`
	Redis    Redis    `mapstructure:"redis"`
	RabbitMQ RabbitMQ `mapstructure:"rabbitmq"`
	SeaArt   SeaArt   `mapstructure:"seaart"`
	IPFS     IPFS     `mapstructure:"ipfs"`
	Otel     Otel     `mapstructure:"otel"`
}

// Load reads config.yaml from the given directory (or the current one when
// empty) and applies ARTMIRROR_* environment overrides on top.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("ARTMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Env-only deployments carry no file at all.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "artmirror")
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.fetch_ttl_secs", 30)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "")
	v.SetDefault("rabbitmq.mirror_queue", "artmirror.mirror")
	v.SetDefault("rabbitmq.prefetch", 10)
	v.SetDefault("seaart.base_url", "https://www.seaart.ai")
	v.SetDefault("seaart.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36")
	v.SetDefault("seaart.page_size", 60)
	v.SetDefault("ipfs.endpoint", "https://api.nft.storage")
	v.SetDefault("ipfs.token", "")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "")
}
