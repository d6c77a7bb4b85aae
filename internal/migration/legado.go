package migration

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rotacerta/cooperativa/internal"
)

type colunaLegado struct {
	modelo any
	tabela string
	campo  string
	coluna string
}

type indiceLegado struct {
	modelo any
	tabela string
	nome   string
}

// colunas de status de pagamento que bancos anteriores à baixa não têm
var colunasLegado = []colunaLegado{
	{&internal.Frete{}, "fretes", "Status", "status"},
	{&internal.Frete{}, "fretes", "DataPagamento", "data_pagamento"},
	{&internal.Debito{}, "debitos", "Status", "status"},
	{&internal.Debito{}, "debitos", "DataBaixa", "data_baixa"},
	{&internal.Debito{}, "debitos", "ObservacaoBaixa", "observacao_baixa"},
	{&internal.Cooperado{}, "cooperados", "Telefone", "telefone"},
}

var indicesLegado = []indiceLegado{
	{&internal.Frete{}, "fretes", "idx_fretes_status"},
	{&internal.Debito{}, "debitos", "idx_debitos_status"},
}

// UpgradeLegacySchema adiciona, sem perder dados, as colunas e índices de
// status que faltarem. Pode rodar quantas vezes quiser; devolve o que criou.
// Uma checagem que falhe conta como "falta" e a criação decide.
func UpgradeLegacySchema(db *gorm.DB, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	mig := db.Migrator()
	existe := tabelasExistentes(mig, log)
	var criados []string

	for _, c := range colunasLegado {
		if !existe(c.tabela) || mig.HasColumn(c.modelo, c.campo) {
			continue
		}
		if err := mig.AddColumn(c.modelo, c.campo); err != nil {
			return criados, fmt.Errorf("adicionar coluna %s.%s: %w", c.tabela, c.coluna, err)
		}
		criados = append(criados, c.tabela+"."+c.coluna)
		log.Info("coluna adicionada", zap.String("tabela", c.tabela), zap.String("coluna", c.coluna))
	}

	for _, i := range indicesLegado {
		if !existe(i.tabela) || mig.HasIndex(i.modelo, i.nome) {
			continue
		}
		if err := mig.CreateIndex(i.modelo, i.nome); err != nil {
			return criados, fmt.Errorf("criar índice %s: %w", i.nome, err)
		}
		criados = append(criados, i.nome)
		log.Info("índice criado", zap.String("tabela", i.tabela), zap.String("indice", i.nome))
	}

	if len(criados) == 0 {
		log.Debug("schema já atualizado")
	}
	return criados, nil
}

// tabelasExistentes lista as tabelas uma vez. HasTable devolve false tanto
// para tabela ausente quanto para erro; se a listagem falhar, todas contam
// como presentes e a criação decide.
func tabelasExistentes(mig gorm.Migrator, log *zap.Logger) func(string) bool {
	tabelas, err := mig.GetTables()
	if err != nil {
		log.Warn("não foi possível listar as tabelas", zap.Error(err))
		return func(string) bool { return true }
	}
	presentes := make(map[string]bool, len(tabelas))
	for _, t := range tabelas {
		presentes[t] = true
	}
	return func(tabela string) bool { return presentes[tabela] }
}
