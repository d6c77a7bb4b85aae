package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagarFrete(t *testing.T) {
	f := &Frete{Status: StatusPendente}

	require.NoError(t, PagarFrete(f, dia("2024-02-05")))
	assert.Equal(t, StatusPago, f.Status)
	require.NotNil(t, f.DataPagamento)
	assert.Equal(t, "2024-02-05", FormatData(*f.DataPagamento))

	assert.ErrorIs(t, PagarFrete(f, dia("2024-02-06")), ErrJaPago)
	assert.Equal(t, "2024-02-05", FormatData(*f.DataPagamento))
}

func TestPagarFrete_StatusVazioEhPendente(t *testing.T) {
	f := &Frete{}
	assert.ErrorIs(t, DesfazerPagamentoFrete(f), ErrNaoPago)
	require.NoError(t, PagarFrete(f, dia("2024-02-05")))
	assert.Equal(t, StatusPago, f.Status)
}

func TestFrete_IdaEVolta(t *testing.T) {
	f := &Frete{Status: StatusPendente}
	require.NoError(t, PagarFrete(f, dia("2024-02-05")))
	require.NoError(t, DesfazerPagamentoFrete(f))
	assert.Equal(t, StatusPendente, f.Status)
	assert.Nil(t, f.DataPagamento)

	require.NoError(t, PagarFrete(f, dia("2024-03-01")))
	assert.Equal(t, "2024-03-01", FormatData(*f.DataPagamento))
}

func TestPagarDebito(t *testing.T) {
	d := &Debito{Status: StatusPendente}

	require.NoError(t, PagarDebito(d, dia("2024-02-05"), ""))
	assert.Equal(t, StatusPago, d.Status)
	assert.Nil(t, d.ObservacaoBaixa, "observação vazia vira NULL")
	assert.ErrorIs(t, PagarDebito(d, dia("2024-02-05"), "x"), ErrJaPago)

	require.NoError(t, DesfazerBaixaDebito(d))
	assert.Equal(t, StatusPendente, d.Status)
	assert.Nil(t, d.DataBaixa)

	require.NoError(t, PagarDebito(d, dia("2024-02-10"), "pago em dinheiro"))
	require.NotNil(t, d.ObservacaoBaixa)
	assert.Equal(t, "pago em dinheiro", *d.ObservacaoBaixa)

	require.NoError(t, DesfazerBaixaDebito(d))
	assert.Nil(t, d.ObservacaoBaixa)
	assert.ErrorIs(t, DesfazerBaixaDebito(d), ErrNaoPago)
}

func TestPodeAlterar(t *testing.T) {
	assert.NoError(t, PodeAlterarFrete(&Frete{}))
	assert.NoError(t, PodeAlterarFrete(&Frete{Status: StatusPendente}))
	assert.ErrorIs(t, PodeAlterarFrete(&Frete{Status: StatusPago}), ErrFretePago)

	assert.NoError(t, PodeAlterarDebito(&Debito{Status: StatusPendente}))
	assert.ErrorIs(t, PodeAlterarDebito(&Debito{Status: StatusPago}), ErrDebitoPago)
}
