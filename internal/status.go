package internal

import "time"

// Transições de status de pagamento (baixa). Frete e Debito seguem as mesmas
// regras: pendente -> pago exige data; pago -> pendente limpa data e observação.

// PagarFrete marca o frete como pago na data informada
func PagarFrete(f *Frete, data time.Time) error {
	if f.Status.Normalizado() == StatusPago {
		return ErrJaPago
	}
	d := Dia(data)
	f.Status = StatusPago
	f.DataPagamento = &d
	return nil
}

// DesfazerPagamentoFrete volta o frete para pendente
func DesfazerPagamentoFrete(f *Frete) error {
	if f.Status.Normalizado() != StatusPago {
		return ErrNaoPago
	}
	f.Status = StatusPendente
	f.DataPagamento = nil
	return nil
}

// PagarDebito dá baixa no débito; observação vazia é gravada como NULL
func PagarDebito(d *Debito, data time.Time, observacao string) error {
	if d.Status.Normalizado() == StatusPago {
		return ErrJaPago
	}
	dia := Dia(data)
	d.Status = StatusPago
	d.DataBaixa = &dia
	d.ObservacaoBaixa = nil
	if observacao != "" {
		d.ObservacaoBaixa = &observacao
	}
	return nil
}

func DesfazerBaixaDebito(d *Debito) error {
	if d.Status.Normalizado() != StatusPago {
		return ErrNaoPago
	}
	d.Status = StatusPendente
	d.DataBaixa = nil
	d.ObservacaoBaixa = nil
	return nil
}

// PodeAlterarFrete bloqueia edição e exclusão de frete pago
func PodeAlterarFrete(f *Frete) error {
	if f.Status.Normalizado() == StatusPago {
		return ErrFretePago
	}
	return nil
}

func PodeAlterarDebito(d *Debito) error {
	if d.Status.Normalizado() == StatusPago {
		return ErrDebitoPago
	}
	return nil
}
