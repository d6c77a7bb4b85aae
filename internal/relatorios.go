package internal

import (
	"context"

	"gorm.io/gorm"
)

// GerarRelatorioCooperado busca os lançamentos do cooperado no período
// (opcionalmente só de uma empresa) e calcula o acerto
func GerarRelatorioCooperado(ctx context.Context, db *gorm.DB, cooperadoID uint, empresaID *uint, p Periodo) (*RelatorioCooperado, error) {
	coop, err := buscarCooperado(ctx, db, cooperadoID)
	if err != nil {
		return nil, err
	}
	if empresaID != nil {
		if _, err := buscarEmpresa(ctx, db, *empresaID); err != nil {
			return nil, err
		}
	}

	filtro := FiltroLancamentos{CooperadoID: &cooperadoID, EmpresaID: empresaID}.comPeriodo(p)
	fretes, err := BuscarFretes(ctx, db, filtro)
	if err != nil {
		return nil, err
	}
	debitos, err := BuscarDebitos(ctx, db, filtro)
	if err != nil {
		return nil, err
	}
	rel := MontarRelatorioCooperado(*coop, empresaID, p, fretes, debitos)
	return &rel, nil
}

// GerarRelatorioEmpresa calcula o acerto de todos os cooperados com frete na empresa
func GerarRelatorioEmpresa(ctx context.Context, db *gorm.DB, empresaID uint, p Periodo) (*RelatorioEmpresa, error) {
	emp, err := buscarEmpresa(ctx, db, empresaID)
	if err != nil {
		return nil, err
	}
	filtro := FiltroLancamentos{EmpresaID: &empresaID}.comPeriodo(p)
	fretes, err := BuscarFretes(ctx, db, filtro)
	if err != nil {
		return nil, err
	}
	debitos, err := BuscarDebitos(ctx, db, filtro)
	if err != nil {
		return nil, err
	}
	rel := MontarRelatorioEmpresa(*emp, p, fretes, debitos)
	return &rel, nil
}

func GerarFolhaPagamento(ctx context.Context, db *gorm.DB, empresaID uint, p Periodo) (*FolhaPagamento, error) {
	rel, err := GerarRelatorioEmpresa(ctx, db, empresaID, p)
	if err != nil {
		return nil, err
	}
	folha := MontarFolha(*rel)
	return &folha, nil
}

func GerarRanking(ctx context.Context, db *gorm.DB, empresaID *uint, p Periodo) ([]LinhaRanking, error) {
	fretes, err := BuscarFretes(ctx, db, FiltroLancamentos{EmpresaID: empresaID}.comPeriodo(p))
	if err != nil {
		return nil, err
	}
	return MontarRanking(fretes), nil
}
