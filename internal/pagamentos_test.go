package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagarFretesLote(t *testing.T) {
	db := novoBanco(t)
	ctx := context.Background()
	coop := criarCooperado(t, db, "Ana")
	emp := criarEmpresa(t, db, "Transportes ABC")
	f1 := criarFrete(t, db, coop, emp, "2024-01-10", "100", "0")
	f2 := criarFrete(t, db, coop, emp, "2024-01-11", "200", "0")
	f3 := criarFrete(t, db, coop, emp, "2024-01-12", "300", "0")
	_, err := PagarFreteID(ctx, db, f3.ID, dia("2024-01-20"))
	require.NoError(t, err)

	ids := []uint{f1.ID, f2.ID, f3.ID}
	n, err := PagarFretesLote(ctx, db, ids, dia("2024-02-01"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "frete já pago não conta")

	n, err = PagarFretesLote(ctx, db, ids, dia("2024-02-02"))
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "segunda chamada não altera nada")

	var pago Frete
	require.NoError(t, db.First(&pago, f3.ID).Error)
	assert.Equal(t, "2024-01-20", FormatData(*pago.DataPagamento), "data do pagamento anterior preservada")
	require.NoError(t, db.First(&pago, f1.ID).Error)
	assert.Equal(t, StatusPago, pago.Status)
	assert.Equal(t, "2024-02-01", FormatData(*pago.DataPagamento))

	_, err = PagarFretesLote(ctx, db, nil, dia("2024-02-01"))
	assert.ErrorIs(t, err, ErrListaVazia)
}

func TestPagarFretesLote_StatusNuloEhPendente(t *testing.T) {
	db := novoBanco(t)
	coop := criarCooperado(t, db, "Ana")
	emp := criarEmpresa(t, db, "Transportes ABC")
	f := criarFrete(t, db, coop, emp, "2024-01-10", "100", "0")
	require.NoError(t, db.Exec("UPDATE fretes SET status = NULL WHERE id = ?", f.ID).Error)

	pendente := StatusPendente
	fretes, err := BuscarFretes(context.Background(), db, FiltroLancamentos{Status: &pendente})
	require.NoError(t, err)
	require.Len(t, fretes, 1)

	n, err := PagarFretesLote(context.Background(), db, []uint{f.ID}, dia("2024-02-01"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPagarFreteID_Inexistente(t *testing.T) {
	db := novoBanco(t)
	_, err := PagarFreteID(context.Background(), db, 99, dia("2024-02-01"))
	assert.Error(t, err)
}

func TestDebito_BaixaEDesfazer(t *testing.T) {
	db := novoBanco(t)
	ctx := context.Background()
	coop := criarCooperado(t, db, "Ana")
	d := criarDebito(t, db, coop, nil, "2024-01-10", "50")

	pago, err := PagarDebitoID(ctx, db, d.ID, dia("2024-01-15"), "descontado na folha")
	require.NoError(t, err)
	assert.Equal(t, StatusPago, pago.Status)

	var salvo Debito
	require.NoError(t, db.First(&salvo, d.ID).Error)
	require.NotNil(t, salvo.ObservacaoBaixa)
	assert.Equal(t, "descontado na folha", *salvo.ObservacaoBaixa)
	assert.Equal(t, "2024-01-15", FormatData(*salvo.DataBaixa))

	_, err = PagarDebitoID(ctx, db, d.ID, dia("2024-01-16"), "")
	assert.ErrorIs(t, err, ErrJaPago)

	_, err = DesfazerBaixaDebitoID(ctx, db, d.ID)
	require.NoError(t, err)
	require.NoError(t, db.First(&salvo, d.ID).Error)
	assert.Equal(t, StatusPendente, salvo.Status)
	assert.Nil(t, salvo.DataBaixa)
	assert.Nil(t, salvo.ObservacaoBaixa)
}

func TestProcessarPagamentosFolha(t *testing.T) {
	db := novoBanco(t)
	ctx := context.Background()
	ana := criarCooperado(t, db, "Ana")
	bruno := criarCooperado(t, db, "Bruno")
	emp := criarEmpresa(t, db, "Transportes ABC")
	outra := criarEmpresa(t, db, "Outra")

	criarFrete(t, db, ana, emp, "2024-01-10", "1000", "100")
	criarFrete(t, db, bruno, emp, "2024-01-11", "500", "0")
	foraPeriodo := criarFrete(t, db, ana, emp, "2024-02-10", "700", "0")
	outraEmpresa := criarFrete(t, db, ana, outra, "2024-01-12", "800", "0")
	criarDebito(t, db, ana, emp, "2024-01-15", "50")
	semEmpresa := criarDebito(t, db, ana, nil, "2024-01-15", "30")

	p, err := NovoPeriodo(dia("2024-01-01"), dia("2024-01-31"))
	require.NoError(t, err)

	res, err := ProcessarPagamentosFolha(ctx, db, emp.ID, p, []uint{ana.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.FretesPagos)
	assert.EqualValues(t, 1, res.DebitosPagos)
	assert.Equal(t, []uint{ana.ID}, res.CooperadosPagos)

	var f Frete
	require.NoError(t, db.First(&f, foraPeriodo.ID).Error)
	assert.Equal(t, StatusPendente, f.Status)
	require.NoError(t, db.First(&f, outraEmpresa.ID).Error)
	assert.Equal(t, StatusPendente, f.Status)
	var d Debito
	require.NoError(t, db.First(&d, semEmpresa.ID).Error)
	assert.Equal(t, StatusPendente, d.Status)

	var pendentesBruno int64
	require.NoError(t, db.Model(&Frete{}).Where("cooperado_id = ? AND status = ?", bruno.ID, StatusPendente).Count(&pendentesBruno).Error)
	assert.EqualValues(t, 1, pendentesBruno)

	res, err = ProcessarPagamentosFolha(ctx, db, emp.ID, p, []uint{ana.ID})
	require.NoError(t, err)
	assert.Zero(t, res.FretesPagos)
	assert.Zero(t, res.DebitosPagos)
	assert.Empty(t, res.CooperadosPagos)

	res, err = ProcessarPagamentosFolha(ctx, db, emp.ID, p, []uint{ana.ID, bruno.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.FretesPagos)
	assert.Equal(t, []uint{bruno.ID}, res.CooperadosPagos, "Ana já estava paga")

	_, err = ProcessarPagamentosFolha(ctx, db, emp.ID, p, nil)
	assert.ErrorIs(t, err, ErrListaVazia)
}

func TestAlterarDataDebitosLote_EntraNoRelatorio(t *testing.T) {
	db := novoBanco(t)
	ctx := context.Background()
	coop := criarCooperado(t, db, "Ana")
	emp := criarEmpresa(t, db, "Transportes ABC")
	criarFrete(t, db, coop, emp, "2024-02-10", "1000", "0")
	antigo := criarDebito(t, db, coop, emp, "2024-01-05", "80")
	jaPago := criarDebito(t, db, coop, emp, "2024-01-06", "20")
	_, err := PagarDebitoID(ctx, db, jaPago.ID, dia("2024-01-07"), "")
	require.NoError(t, err)

	p, _ := NovoPeriodo(dia("2024-02-01"), dia("2024-02-29"))

	anteriores, err := DebitosPendentesAnteriores(ctx, db, coop.ID, &emp.ID, p.Inicio)
	require.NoError(t, err)
	require.Len(t, anteriores, 1)
	assert.Equal(t, antigo.ID, anteriores[0].ID)

	n, err := AlterarDataDebitosLote(ctx, db, []uint{antigo.ID, jaPago.ID}, p.Inicio)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "débito pago não muda de data")

	rel, err := GerarRelatorioCooperado(ctx, db, coop.ID, &emp.ID, p)
	require.NoError(t, err)
	require.Len(t, rel.Debitos, 1)
	assert.Equal(t, antigo.ID, rel.Debitos[0].ID)
	assert.True(t, dec("80").Equal(rel.Totais.TotalDebitos))

	var d Debito
	require.NoError(t, db.First(&d, jaPago.ID).Error)
	assert.Equal(t, "2024-01-06", FormatData(d.Data))
}

func TestRelatorioEmpresa_IgnoraDebitoSemEmpresa(t *testing.T) {
	db := novoBanco(t)
	ctx := context.Background()
	coop := criarCooperado(t, db, "Ana")
	emp := criarEmpresa(t, db, "Transportes ABC")
	criarFrete(t, db, coop, emp, "2024-01-10", "1000", "100")
	criarDebito(t, db, coop, emp, "2024-01-11", "40")
	criarDebito(t, db, coop, nil, "2024-01-12", "500")

	p, _ := NovoPeriodo(dia("2024-01-01"), dia("2024-01-31"))

	rel, err := GerarRelatorioEmpresa(ctx, db, emp.ID, p)
	require.NoError(t, err)
	require.Len(t, rel.Cooperados, 1)
	assert.True(t, dec("40").Equal(rel.Totais.TotalDebitos))
	assert.True(t, dec("944.5").Equal(rel.Totais.Liquido), rel.Totais.Liquido.String())

	// sem filtro de empresa o débito avulso entra
	relCoop, err := GerarRelatorioCooperado(ctx, db, coop.ID, nil, p)
	require.NoError(t, err)
	assert.True(t, dec("540").Equal(relCoop.Totais.TotalDebitos))
}

func TestGerarRanking(t *testing.T) {
	db := novoBanco(t)
	ctx := context.Background()
	ana := criarCooperado(t, db, "Ana")
	bruno := criarCooperado(t, db, "Bruno")
	emp := criarEmpresa(t, db, "Transportes ABC")
	criarFrete(t, db, ana, emp, "2024-01-10", "100", "0")
	criarFrete(t, db, bruno, emp, "2024-01-11", "900", "0")
	criarFrete(t, db, bruno, emp, "2024-03-11", "5000", "0")

	p, _ := NovoPeriodo(dia("2024-01-01"), dia("2024-01-31"))
	ranking, err := GerarRanking(ctx, db, nil, p)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, "Bruno", ranking[0].Nome)
	assert.True(t, dec("900").Equal(ranking[0].Bruto))
}
