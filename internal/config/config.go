package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// 有 .env 就加载，没有也不报错
	_ = godotenv.Load()
}

// Config 应用配置，全部来自环境变量
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Shopee   ShopeeConfig
	Sync     SyncConfig
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"SERVER_PORT" default:"8080"`
	Mode string `envconfig:"GIN_MODE" default:"debug"`
}

// DatabaseConfig Postgres 连接配置
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"shopee_sync"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASS" default:""`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// ShopeeConfig 开放平台配置
type ShopeeConfig struct {
	PartnerID   int64  `envconfig:"SHOPEE_PARTNER_ID" required:"true"`
	PartnerKey  string `envconfig:"SHOPEE_PARTNER_KEY" required:"true"`
	APIBase     string `envconfig:"SHOPEE_API_BASE" default:"https://partner.shopeemobile.com"`
	RedirectURL string `envconfig:"SHOPEE_REDIRECT_URL" default:"http://localhost:8080/api/auth/callback"`
}

// SyncConfig 同步任务配置
type SyncConfig struct {
	OrderConcurrency   int `envconfig:"SYNC_ORDER_CONCURRENCY" default:"10"`
	ProductConcurrency int `envconfig:"SYNC_PRODUCT_CONCURRENCY" default:"5"`
}

// Address HTTP 监听地址
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN Postgres 连接串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return &cfg, nil
}
