package internal

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pendenteFrete inclui linhas antigas sem status
const pendenteFrete = "(fretes.status = ? OR fretes.status IS NULL OR fretes.status = '')"

// FiltroLancamentos filtra fretes e débitos. Campos nil não filtram.
type FiltroLancamentos struct {
	IDs          []uint
	CooperadoID  *uint
	CooperadoIDs []uint
	EmpresaID    *uint
	Status       *StatusPagamento
	Inicio       *time.Time
	Fim          *time.Time
}

func (f FiltroLancamentos) comPeriodo(p Periodo) FiltroLancamentos {
	f.Inicio, f.Fim = &p.Inicio, &p.Fim
	return f
}

func (f FiltroLancamentos) aplicar(q *gorm.DB, tabela string) *gorm.DB {
	if len(f.IDs) > 0 {
		q = q.Where(tabela+".id IN ?", f.IDs)
	}
	if f.CooperadoID != nil {
		q = q.Where(tabela+".cooperado_id = ?", *f.CooperadoID)
	}
	if len(f.CooperadoIDs) > 0 {
		q = q.Where(tabela+".cooperado_id IN ?", f.CooperadoIDs)
	}
	// empresa_id = ? já exclui débitos sem empresa
	if f.EmpresaID != nil {
		q = q.Where(tabela+".empresa_id = ?", *f.EmpresaID)
	}
	if f.Inicio != nil {
		q = q.Where(tabela+".data >= ?", Dia(*f.Inicio))
	}
	if f.Fim != nil {
		q = q.Where(tabela+".data <= ?", Dia(*f.Fim))
	}
	if f.Status != nil {
		if *f.Status == StatusPendente && tabela == "fretes" {
			q = q.Where(pendenteFrete, StatusPendente)
		} else {
			q = q.Where(tabela+".status = ?", *f.Status)
		}
	}
	return q
}

// BuscarFretes retorna fretes com cooperado e empresa carregados, por data
func BuscarFretes(ctx context.Context, db *gorm.DB, f FiltroLancamentos) ([]Frete, error) {
	var fretes []Frete
	q := f.aplicar(db.WithContext(ctx).Model(&Frete{}), "fretes")
	err := q.Preload("Cooperado").Preload("Empresa").
		Order("fretes.data, fretes.id").
		Find(&fretes).Error
	return fretes, err
}

func BuscarDebitos(ctx context.Context, db *gorm.DB, f FiltroLancamentos) ([]Debito, error) {
	var debitos []Debito
	q := f.aplicar(db.WithContext(ctx).Model(&Debito{}), "debitos")
	err := q.Preload("Cooperado").Preload("Empresa").
		Order("debitos.data, debitos.id").
		Find(&debitos).Error
	return debitos, err
}

func buscarCooperado(ctx context.Context, db *gorm.DB, id uint) (*Cooperado, error) {
	var c Cooperado
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func buscarEmpresa(ctx context.Context, db *gorm.DB, id uint) (*Empresa, error) {
	var e Empresa
	if err := db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// travarFrete lê o frete com FOR UPDATE; no sqlite a cláusula é ignorada
func travarFrete(tx *gorm.DB, id uint) (*Frete, error) {
	var f Frete
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&f, id).Error
	if err != nil {
		return nil, err
	}
	// Save grava todas as colunas; NULL não pode virar ''
	f.Status = f.Status.Normalizado()
	return &f, nil
}

func travarDebito(tx *gorm.DB, id uint) (*Debito, error) {
	var d Debito
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, id).Error
	if err != nil {
		return nil, err
	}
	d.Status = d.Status.Normalizado()
	return &d, nil
}

// ExcluirCooperado recusa a exclusão quando há lançamentos vinculados
func ExcluirCooperado(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := buscarCooperado(ctx, tx, id); err != nil {
			return err
		}
		if err := semLancamentos(tx, "cooperado_id", id); err != nil {
			return err
		}
		return tx.Delete(&Cooperado{}, id).Error
	})
}

func ExcluirEmpresa(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := buscarEmpresa(ctx, tx, id); err != nil {
			return err
		}
		if err := semLancamentos(tx, "empresa_id", id); err != nil {
			return err
		}
		return tx.Delete(&Empresa{}, id).Error
	})
}

func semLancamentos(tx *gorm.DB, coluna string, id uint) error {
	var n int64
	if err := tx.Model(&Frete{}).Where(coluna+" = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrPossuiLancamentos
	}
	if err := tx.Model(&Debito{}).Where(coluna+" = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrPossuiLancamentos
	}
	return nil
}

// AtualizarFrete aplica a edição dentro de transação, recusando frete pago
func AtualizarFrete(ctx context.Context, db *gorm.DB, id uint, editar func(*Frete)) (*Frete, error) {
	var out *Frete
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := travarFrete(tx, id)
		if err != nil {
			return err
		}
		if err := PodeAlterarFrete(f); err != nil {
			return err
		}
		editar(f)
		if err := tx.Omit(clause.Associations).Save(f).Error; err != nil {
			return err
		}
		out = f
		return nil
	})
	return out, err
}

func ExcluirFrete(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := travarFrete(tx, id)
		if err != nil {
			return err
		}
		if err := PodeAlterarFrete(f); err != nil {
			return err
		}
		return tx.Delete(&Frete{}, id).Error
	})
}

func AtualizarDebito(ctx context.Context, db *gorm.DB, id uint, editar func(*Debito)) (*Debito, error) {
	var out *Debito
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := travarDebito(tx, id)
		if err != nil {
			return err
		}
		if err := PodeAlterarDebito(d); err != nil {
			return err
		}
		editar(d)
		if err := tx.Omit(clause.Associations).Save(d).Error; err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

func ExcluirDebito(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := travarDebito(tx, id)
		if err != nil {
			return err
		}
		if err := PodeAlterarDebito(d); err != nil {
			return err
		}
		return tx.Delete(&Debito{}, id).Error
	})
}
