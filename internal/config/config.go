package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Behyna/wa-inbox/pkg/database"
	"github.com/Behyna/wa-inbox/pkg/mq"
	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"github.com/spf13/viper"
)

const envPrefix = "WAINBOX"

type Config struct {
	API       API             `mapstructure:"api"`
	Database  database.Config `mapstructure:"database"`
	RabbitMQ  mq.Config       `mapstructure:"rabbitmq"`
	WhatsApp  whatsapp.Config `mapstructure:"whatsapp"`
	Analytics Analytics       `mapstructure:"analytics"`
	Webhook   Webhook         `mapstructure:"webhook"`
	ERP       ERP             `mapstructure:"erp"`
}

type API struct {
	Port        string `mapstructure:"port"`
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`
}

type Analytics struct {
	ResponseWindow    time.Duration `mapstructure:"response_window"`
	DashboardCacheTTL time.Duration `mapstructure:"dashboard_cache_ttl"`
}

type Webhook struct {
	Async        bool   `mapstructure:"async"`
	InboundQueue string `mapstructure:"inbound_queue"`
	StatusQueue  string `mapstructure:"status_queue"`
}

type ERP struct {
	APIKeys               []string `mapstructure:"api_keys"`
	DefaultBusinessNumber string   `mapstructure:"default_business_number"`
}

func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom reads config.yml from path. Every key can be overridden from the
// environment, e.g. WAINBOX_DATABASE_HOST.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(path)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.service_name", "wa-inbox")
	v.SetDefault("api.version", "1.0.0")

	v.SetDefault("database.driver", database.DriverMySQL)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.slow_threshold", time.Second)

	v.SetDefault("rabbitmq.prefetch", 10)

	v.SetDefault("whatsapp.base_url", "https://graph.facebook.com/v22.0")
	v.SetDefault("whatsapp.timeout", 10*time.Second)
	v.SetDefault("whatsapp.max_retry", 3)

	v.SetDefault("analytics.response_window", 24*time.Hour)
	v.SetDefault("analytics.dashboard_cache_ttl", 10*time.Second)

	v.SetDefault("webhook.inbound_queue", "wa.inbound")
	v.SetDefault("webhook.status_queue", "wa.status")
}
