package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var arquivos embed.FS

// Migrator aplica as migrações versionadas embutidas no binário
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// Open abre uma conexão própria para migrar; Close a encerra junto
func Open(databaseURL string, logger *zap.Logger) (*Migrator, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir banco: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("falha ao conectar no banco: %w", err)
	}
	m, err := New(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// New cria o Migrator sobre uma conexão Postgres já aberta. O driver fica
// dono da conexão: Close também fecha db.
func New(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(arquivos, "sql")
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir migrações embutidas: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("falha ao criar driver postgres: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("falha ao criar instância de migração: %w", err)
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// Up aplica todas as migrações pendentes
func (m *Migrator) Up() error {
	m.logger.Info("aplicando migrações")

	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("nenhuma migração pendente")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migração up falhou: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("migrações aplicadas", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Down desfaz n migrações; n <= 0 desfaz todas
func (m *Migrator) Down(n int) error {
	m.logger.Info("desfazendo migrações", zap.Int("steps", n))

	var err error
	if n > 0 {
		err = m.migrate.Steps(-n)
	} else {
		err = m.migrate.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("nenhuma migração para desfazer")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migração down falhou: %w", err)
	}
	return nil
}

// Version devolve a versão atual; 0 quando nada foi aplicado
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("falha ao ler versão: %w", err)
	}
	return version, dirty, nil
}

// Force marca a versão sem executar nada, para sair de estado dirty
func (m *Migrator) Force(version int) error {
	m.logger.Warn("forçando versão de migração", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("falha ao forçar versão %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("falha ao fechar fonte: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("falha ao fechar banco: %w", dbErr)
	}
	return nil
}
