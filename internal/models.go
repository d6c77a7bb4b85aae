package internal

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status de pagamento de fretes e débitos
type StatusPagamento string

const (
	StatusPendente StatusPagamento = "pendente"
	StatusPago     StatusPagamento = "pago"
)

// Normalizado trata status vazio (linhas antigas, coluna NULL) como pendente
func (s StatusPagamento) Normalizado() StatusPagamento {
	if s == "" {
		return StatusPendente
	}
	return s
}

const (
	RoleAdmin   = "admin"
	RoleUsuario = "usuario"
)

// Cooperado é o motorista associado
type Cooperado struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Nome           string    `gorm:"size:150;not null" json:"nome"`
	CPF            string    `gorm:"column:cpf;size:14;not null" json:"cpf"`
	Placa          string    `gorm:"size:10" json:"placa"`
	Telefone       string    `gorm:"size:20" json:"telefone,omitempty"`
	DadosBancarios *string   `gorm:"type:text" json:"dados_bancarios"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Empresa contratante dos fretes
type Empresa struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nome      string    `gorm:"size:150;not null" json:"nome"`
	CNPJ      string    `gorm:"column:cnpj;size:18;not null" json:"cnpj"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Frete struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CooperadoID   uint            `gorm:"not null;index" json:"cooperado_id"`
	Cooperado     *Cooperado      `json:"cooperado,omitempty"`
	EmpresaID     uint            `gorm:"not null;index" json:"empresa_id"`
	Empresa       *Empresa        `json:"empresa,omitempty"`
	Carga         string          `gorm:"size:255" json:"carga"`
	Km            decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"km"`
	Valor         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"valor"`
	Chapada       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"chapada"`
	Data          time.Time       `gorm:"type:date;not null;index" json:"data"`
	Status        StatusPagamento `gorm:"size:20;default:pendente;index" json:"status"`
	DataPagamento *time.Time      `gorm:"type:date" json:"data_pagamento"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Debito é um desconto lançado contra o cooperado
type Debito struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CooperadoID     uint            `gorm:"not null;index" json:"cooperado_id"`
	Cooperado       *Cooperado      `json:"cooperado,omitempty"`
	EmpresaID       *uint           `gorm:"index" json:"empresa_id"`
	Empresa         *Empresa        `json:"empresa,omitempty"`
	Descricao       string          `gorm:"size:255;not null" json:"descricao"`
	Valor           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"valor"`
	Data            time.Time       `gorm:"type:date;not null;index" json:"data"`
	Status          StatusPagamento `gorm:"size:20;not null;default:pendente;index" json:"status"`
	DataBaixa       *time.Time      `gorm:"type:date" json:"data_baixa"`
	ObservacaoBaixa *string         `gorm:"type:text" json:"observacao_baixa"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Usuario do sistema
type Usuario struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Nome         string    `gorm:"size:150;not null" json:"nome"`
	Role         string    `gorm:"size:20;not null" json:"role"`
	Ativo        bool      `gorm:"not null" json:"ativo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Eventos registrados em LogAcesso
const (
	EventoLoginOK        = "login_ok"
	EventoLoginFalha     = "login_falha"
	EventoLoginBloqueado = "login_bloqueado"
)

// LogAcesso registra tentativas de login
type LogAcesso struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UsuarioID *uint     `gorm:"index" json:"usuario_id"`
	Username  string    `gorm:"size:50" json:"username"`
	IP        string    `gorm:"column:ip;size:64" json:"ip"`
	Evento    string    `gorm:"size:30;not null" json:"evento"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (LogAcesso) TableName() string { return "logs_acesso" }

// AutoMigrate cria as tabelas a partir dos modelos. Em produção o schema vem
// das migrações versionadas; aqui é usado por testes e ambientes locais.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Cooperado{}, &Empresa{}, &Frete{}, &Debito{}, &Usuario{}, &LogAcesso{})
}
