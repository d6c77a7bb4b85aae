package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rotacerta/cooperativa/internal"
	"github.com/rotacerta/cooperativa/internal/config"
	"github.com/rotacerta/cooperativa/internal/logger"
	"github.com/rotacerta/cooperativa/internal/migration"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuração inválida: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	// valores monetários saem como número no JSON
	decimal.MarshalJSONWithoutQuotes = true

	// migrações versionadas antes de abrir o pool da aplicação
	if cfg.Database.AutoMigrate {
		if err := migrar(cfg.Database.URL, log); err != nil {
			log.Fatal("falha nas migrações", zap.Error(err))
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level)),
	})
	if err != nil {
		log.Fatal("falha ao conectar no banco", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("falha ao obter conexão", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	defer sqlDB.Close()

	ctx := context.Background()
	if criado, err := internal.GarantirAdmin(ctx, db, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Fatal("falha ao criar administrador", zap.Error(err))
	} else if criado {
		log.Info("administrador inicial criado", zap.String("username", cfg.Admin.Username))
	}

	deps := internal.Deps{
		DB:      db,
		Log:     log,
		Auth:    internal.NewAuth(cfg.JWT.Secret, cfg.JWT.Expiration),
		Limiter: limiter(ctx, cfg, log),
	}
	if wa := internal.NewWhatsApp(cfg.WhatsApp.APIURL, cfg.WhatsApp.APIToken); wa.Configurado() {
		deps.Notifier = wa
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           internal.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("servidor iniciado", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("falha no servidor", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("encerramento forçado", zap.Error(err))
	}
}

func migrar(url string, log *zap.Logger) error {
	m, err := migration.Open(url, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// limiter usa Redis quando configurado; sem ele, ou se o Redis não responder,
// o bloqueio de login fica na memória do processo
func limiter(ctx context.Context, cfg *config.Config, log *zap.Logger) internal.LoginLimiter {
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := rdb.Ping(pingCtx).Err()
		if err == nil {
			log.Info("throttle de login no redis", zap.String("addr", cfg.Redis.Addr))
			return internal.NewRedisLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)
		}
		log.Warn("redis indisponível, throttle de login em memória", zap.Error(err))
		_ = rdb.Close()
	}
	return internal.NewMemoryLimiter(cfg.Login.MaxAttempts, cfg.Login.Window)
}
