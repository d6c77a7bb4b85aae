package internal

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PagarFreteID dá baixa em um frete
func PagarFreteID(ctx context.Context, db *gorm.DB, id uint, data time.Time) (*Frete, error) {
	return alterarStatusFrete(ctx, db, id, func(f *Frete) error { return PagarFrete(f, data) })
}

// DesfazerPagamentoFreteID volta um frete pago para pendente
func DesfazerPagamentoFreteID(ctx context.Context, db *gorm.DB, id uint) (*Frete, error) {
	return alterarStatusFrete(ctx, db, id, DesfazerPagamentoFrete)
}

func alterarStatusFrete(ctx context.Context, db *gorm.DB, id uint, transicao func(*Frete) error) (*Frete, error) {
	var out *Frete
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := travarFrete(tx, id)
		if err != nil {
			return err
		}
		if err := transicao(f); err != nil {
			return err
		}
		err = tx.Model(f).Updates(map[string]any{
			"status":         f.Status,
			"data_pagamento": f.DataPagamento,
		}).Error
		if err != nil {
			return err
		}
		out = f
		return nil
	})
	return out, err
}

func PagarDebitoID(ctx context.Context, db *gorm.DB, id uint, data time.Time, observacao string) (*Debito, error) {
	return alterarStatusDebito(ctx, db, id, func(d *Debito) error { return PagarDebito(d, data, observacao) })
}

func DesfazerBaixaDebitoID(ctx context.Context, db *gorm.DB, id uint) (*Debito, error) {
	return alterarStatusDebito(ctx, db, id, DesfazerBaixaDebito)
}

func alterarStatusDebito(ctx context.Context, db *gorm.DB, id uint, transicao func(*Debito) error) (*Debito, error) {
	var out *Debito
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := travarDebito(tx, id)
		if err != nil {
			return err
		}
		if err := transicao(d); err != nil {
			return err
		}
		err = tx.Model(d).Updates(map[string]any{
			"status":           d.Status,
			"data_baixa":       d.DataBaixa,
			"observacao_baixa": d.ObservacaoBaixa,
		}).Error
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

// PagarFretesLote paga os fretes pendentes entre os ids; os demais são
// ignorados. Retorna quantos mudaram de status.
func PagarFretesLote(ctx context.Context, db *gorm.DB, ids []uint, data time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrListaVazia
	}
	var n int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, _, err = pagarFretes(tx, FiltroLancamentos{IDs: ids}, data)
		return err
	})
	return n, err
}

// lancamentoTravado é o par id/cooperado lido sob FOR UPDATE
type lancamentoTravado struct {
	ID          uint
	CooperadoID uint
}

func idsECooperados(linhas []lancamentoTravado) ([]uint, []uint) {
	ids := make([]uint, 0, len(linhas))
	var cooperados []uint
	vistos := make(map[uint]bool)
	for _, l := range linhas {
		ids = append(ids, l.ID)
		if !vistos[l.CooperadoID] {
			vistos[l.CooperadoID] = true
			cooperados = append(cooperados, l.CooperadoID)
		}
	}
	return ids, cooperados
}

// pagarFretes trava os fretes pendentes do filtro e os marca como pagos.
// Retorna quantos mudaram e de quais cooperados eram.
func pagarFretes(tx *gorm.DB, filtro FiltroLancamentos, data time.Time) (int64, []uint, error) {
	pendente := StatusPendente
	filtro.Status = &pendente
	var linhas []lancamentoTravado
	err := filtro.aplicar(tx.Model(&Frete{}), "fretes").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("fretes.id, fretes.cooperado_id").
		Find(&linhas).Error
	if err != nil || len(linhas) == 0 {
		return 0, nil, err
	}
	ids, cooperados := idsECooperados(linhas)
	res := tx.Model(&Frete{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": StatusPago, "data_pagamento": Dia(data)})
	return res.RowsAffected, cooperados, res.Error
}

func pagarDebitos(tx *gorm.DB, filtro FiltroLancamentos, data time.Time) (int64, []uint, error) {
	pendente := StatusPendente
	filtro.Status = &pendente
	var linhas []lancamentoTravado
	err := filtro.aplicar(tx.Model(&Debito{}), "debitos").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("debitos.id, debitos.cooperado_id").
		Find(&linhas).Error
	if err != nil || len(linhas) == 0 {
		return 0, nil, err
	}
	ids, cooperados := idsECooperados(linhas)
	res := tx.Model(&Debito{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": StatusPago, "data_baixa": Dia(data)})
	return res.RowsAffected, cooperados, res.Error
}

// ResultadoProcessamento conta o que foi baixado pela folha.
// CooperadosPagos tem quem teve frete baixado nesta execução.
type ResultadoProcessamento struct {
	FretesPagos     int64  `json:"fretes_atualizados"`
	DebitosPagos    int64  `json:"debitos_atualizados"`
	CooperadosPagos []uint `json:"-"`
}

// ProcessarPagamentosFolha baixa, com a data de hoje, os fretes e débitos
// pendentes da empresa no período para os cooperados informados. Rodar de
// novo não altera nada.
func ProcessarPagamentosFolha(ctx context.Context, db *gorm.DB, empresaID uint, p Periodo, cooperadoIDs []uint) (ResultadoProcessamento, error) {
	var res ResultadoProcessamento
	if len(cooperadoIDs) == 0 {
		return res, ErrListaVazia
	}
	filtro := FiltroLancamentos{EmpresaID: &empresaID, CooperadoIDs: cooperadoIDs}.comPeriodo(p)
	hoje := Hoje()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res.FretesPagos, res.CooperadosPagos, err = pagarFretes(tx, filtro, hoje)
		if err != nil {
			return err
		}
		res.DebitosPagos, _, err = pagarDebitos(tx, filtro, hoje)
		return err
	})
	return res, err
}

// AlterarDataDebitosLote move débitos pendentes para a nova data. Débitos
// pagos ficam como estão.
func AlterarDataDebitosLote(ctx context.Context, db *gorm.DB, ids []uint, novaData time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrListaVazia
	}
	var n int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var travados []uint
		err := tx.Model(&Debito{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND status = ?", ids, StatusPendente).
			Pluck("id", &travados).Error
		if err != nil || len(travados) == 0 {
			return err
		}
		res := tx.Model(&Debito{}).Where("id IN ?", travados).Update("data", Dia(novaData))
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// DebitosPendentesAnteriores lista débitos pendentes com data anterior ao
// início do período, candidatos a serem trazidos para o acerto
func DebitosPendentesAnteriores(ctx context.Context, db *gorm.DB, cooperadoID uint, empresaID *uint, inicio time.Time) ([]Debito, error) {
	var debitos []Debito
	q := db.WithContext(ctx).
		Where("cooperado_id = ? AND status = ? AND data < ?", cooperadoID, StatusPendente, Dia(inicio))
	if empresaID != nil {
		q = q.Where("empresa_id = ?", *empresaID)
	}
	err := q.Preload("Empresa").Order("data, id").Find(&debitos).Error
	return debitos, err
}
