package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Google   GoogleConfig
	Mail     MailConfig
	Admin    AdminConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port    string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL         string
	Exchange    string
	AuditQueue  string `mapstructure:"audit_queue"`
	FailedQueue string `mapstructure:"failed_queue"`
}

// GoogleConfig carries the service-account identity used for both the
// Firestore REST queries and the Gmail API sends.
type GoogleConfig struct {
	ProjectID   string `mapstructure:"project_id"`
	ClientEmail string `mapstructure:"client_email"`
	PrivateKey  string `mapstructure:"private_key"`
	TokenURL    string `mapstructure:"token_url"`
	Scopes      []string
}

type MailConfig struct {
	FromAddress string        `mapstructure:"from_address"`
	FromName    string        `mapstructure:"from_name"`
	SendDelay   time.Duration `mapstructure:"send_delay"`
}

type AdminConfig struct {
	PanelURL string `mapstructure:"panel_url"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.timeout", "10s")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("rabbitmq.exchange", "notifications.direct")
	viper.SetDefault("rabbitmq.audit_queue", "notifications.audit")
	viper.SetDefault("rabbitmq.failed_queue", "notifications.failed")
	viper.SetDefault("google.token_url", "https://oauth2.googleapis.com/token")
	viper.SetDefault("google.scopes", []string{
		"https://www.googleapis.com/auth/gmail.send",
		"https://www.googleapis.com/auth/cloud-platform",
	})
	viper.SetDefault("mail.from_name", "بلاغ - نظام الإدارة")
	viper.SetDefault("mail.send_delay", "100ms")
	viper.SetDefault("admin.panel_url", "https://balagh-admin.vercel.app")
	viper.SetDefault("cors.allowed_origins", []string{
		"http://localhost:5173",
		"http://localhost:5174",
		"https://balagh-admin.vercel.app",
	})

	// Read from environment
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Secrets keep the env names the deployment already uses
	viper.BindEnv("google.project_id", "FIREBASE_PROJECT_ID")
	viper.BindEnv("google.client_email", "FIREBASE_CLIENT_EMAIL")
	viper.BindEnv("google.private_key", "FIREBASE_PRIVATE_KEY")
	viper.BindEnv("mail.from_address", "SUPPORT_EMAIL")
	viper.BindEnv("admin.panel_url", "ADMIN_PANEL_URL")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
