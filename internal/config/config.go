package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa toda a configuração da aplicação
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Login    LoginConfig
	WhatsApp WhatsAppConfig
	Admin    AdminConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig fica vazio quando o throttle de login deve ser local ao processo
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// LoginConfig controla o bloqueio após tentativas de login falhas
type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

type WhatsAppConfig struct {
	APIURL   string
	APIToken string
}

// AdminConfig é usado só para criar o primeiro administrador num banco vazio
type AdminConfig struct {
	Username string
	Password string
}

// Load lê .env (opcional), config.toml (opcional) e variáveis COOP_*.
// DATABASE_URL e PORT sem prefixo continuam valendo para deploys antigos.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração: %w", err)
		}
	}

	v.SetEnvPrefix("COOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	_ = v.BindEnv("database.url", "COOP_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("app.port", "COOP_APP_PORT", "PORT")
	_ = v.BindEnv("whatsapp.api_url", "COOP_WHATSAPP_API_URL", "WHATSAPP_API_URL")
	_ = v.BindEnv("whatsapp.api_token", "COOP_WHATSAPP_API_TOKEN", "WHATSAPP_API_TOKEN")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Login: LoginConfig{
			MaxAttempts: v.GetInt("login.max_attempts"),
			Window:      v.GetDuration("login.window"),
		},
		WhatsApp: WhatsAppConfig{
			APIURL:   v.GetString("whatsapp.api_url"),
			APIToken: v.GetString("whatsapp.api_token"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cooperativa")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.expiration", 8*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("login.max_attempts", 5)
	v.SetDefault("login.window", 15*time.Minute)

	v.SetDefault("admin.username", "admin")
}

// Validate confere os campos obrigatórios
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url (ou DATABASE_URL) é obrigatório")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret (COOP_JWT_SECRET) é obrigatório")
	}
	if c.IsProduction() && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt.secret deve ter ao menos 32 caracteres em produção")
	}
	if c.IsProduction() && c.Admin.Password != "" && len(c.Admin.Password) < 8 {
		return fmt.Errorf("admin.password deve ter ao menos 8 caracteres em produção")
	}
	if c.Login.MaxAttempts < 1 {
		c.Login.MaxAttempts = 1
	}
	if c.Login.Window <= 0 {
		c.Login.Window = 15 * time.Minute
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
