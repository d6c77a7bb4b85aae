package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rotacerta/cooperativa/internal/config"
	"github.com/rotacerta/cooperativa/internal/logger"
	"github.com/rotacerta/cooperativa/internal/migration"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "nível de log (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("falha ao carregar configuração", zap.Error(err))
	}

	// legacy usa o gorm; os demais comandos usam o golang-migrate
	if command == "legacy" {
		db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
			Logger: logger.NewGormLogger(log, logger.GormLevel(logLevel)),
		})
		if err != nil {
			log.Fatal("falha ao conectar no banco", zap.Error(err))
		}
		criados, err := migration.UpgradeLegacySchema(db, log)
		if err != nil {
			log.Fatal("falha ao atualizar schema legado", zap.Error(err))
		}
		log.Info("schema legado conferido", zap.Strings("criados", criados))
		return
	}

	m, err := migration.Open(cfg.Database.URL, log)
	if err != nil {
		log.Fatal("falha ao criar migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("migração up falhou", zap.Error(err))
		}

	case "down":
		n := 1
		if len(args) > 1 {
			if args[1] == "all" {
				n = 0
			} else if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
				log.Fatal("quantidade inválida", zap.String("valor", args[1]))
			}
		}
		if err := m.Down(n); err != nil {
			log.Fatal("migração down falhou", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("falha ao ler versão", zap.Error(err))
		}
		log.Info("versão atual", zap.Uint("version", version), zap.Bool("dirty", dirty))

	case "force":
		if len(args) < 2 {
			log.Fatal("versão obrigatória. Uso: migrate force <versão>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("versão inválida", zap.String("valor", args[1]))
		}
		if err := m.Force(version); err != nil {
			log.Fatal("falha ao forçar versão", zap.Error(err))
		}

	default:
		log.Error("comando desconhecido", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Migrações do banco da cooperativa

Uso:
  migrate [flags] <comando> [argumentos]

Comandos:
  up                 aplica as migrações pendentes
  down [n|all]       desfaz n migrações (padrão 1) ou todas
  version            mostra a versão atual
  force <versão>     marca a versão sem executar (sai de estado dirty)
  legacy             adiciona colunas de status que faltarem num banco antigo

Flags:
  -log-level string  nível de log (padrão info)`)
}
