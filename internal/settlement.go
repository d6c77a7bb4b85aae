package internal

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Descontos obrigatórios sobre o bruto. Fixos, não configuráveis por relatório.
var (
	TaxaINSS           = decimal.RequireFromString("0.045")
	TaxaAdministrativa = decimal.RequireFromString("0.06")
)

// Periodo fechado [Inicio, Fim]
type Periodo struct {
	Inicio time.Time
	Fim    time.Time
}

func NovoPeriodo(inicio, fim time.Time) (Periodo, error) {
	p := Periodo{Inicio: Dia(inicio), Fim: Dia(fim)}
	if p.Fim.Before(p.Inicio) {
		return Periodo{}, ErrPeriodoInvalido
	}
	return p, nil
}

func (p Periodo) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"data_inicio": FormatData(p.Inicio),
		"data_fim":    FormatData(p.Fim),
	})
}

type CooperadoResumo struct {
	ID             uint    `json:"id"`
	Nome           string  `json:"nome"`
	CPF            string  `json:"cpf"`
	Placa          string  `json:"placa"`
	DadosBancarios *string `json:"dados_bancarios"`
}

func resumoCooperado(c *Cooperado) CooperadoResumo {
	if c == nil {
		return CooperadoResumo{}
	}
	return CooperadoResumo{ID: c.ID, Nome: c.Nome, CPF: c.CPF, Placa: c.Placa, DadosBancarios: c.DadosBancarios}
}

type EmpresaResumo struct {
	ID   uint   `json:"id"`
	Nome string `json:"nome"`
	CNPJ string `json:"cnpj"`
}

type LinhaFrete struct {
	ID          uint            `json:"id"`
	Data        string          `json:"data"`
	EmpresaID   uint            `json:"empresa_id"`
	EmpresaNome string          `json:"empresa_nome,omitempty"`
	Carga       string          `json:"carga"`
	Km          decimal.Decimal `json:"km"`
	Valor       decimal.Decimal `json:"valor"`
	Chapada     decimal.Decimal `json:"chapada"`
	Total       decimal.Decimal `json:"total"`
	Status      StatusPagamento `json:"status"`
}

type LinhaDebito struct {
	ID        uint            `json:"id"`
	Data      string          `json:"data"`
	EmpresaID *uint           `json:"empresa_id"`
	Descricao string          `json:"descricao"`
	Valor     decimal.Decimal `json:"valor"`
	Status    StatusPagamento `json:"status"`
}

// Totais de um acerto. Liquido = Bruto - TotalDescontos.
type Totais struct {
	QtdFretes              int             `json:"qtd_fretes"`
	QtdDebitos             int             `json:"qtd_debitos"`
	TotalValor             decimal.Decimal `json:"total_valor"`
	TotalChapada           decimal.Decimal `json:"total_chapada"`
	Bruto                  decimal.Decimal `json:"bruto"`
	DescontoINSS           decimal.Decimal `json:"desconto_inss"`
	DescontoAdministrativo decimal.Decimal `json:"desconto_administrativo"`
	TotalDebitos           decimal.Decimal `json:"total_debitos"`
	TotalDescontos         decimal.Decimal `json:"total_descontos"`
	Liquido                decimal.Decimal `json:"liquido"`
}

// CalcularTotais aplica as regras de acerto sobre os fretes e débitos já filtrados
func CalcularTotais(fretes []Frete, debitos []Debito) Totais {
	t := Totais{QtdFretes: len(fretes), QtdDebitos: len(debitos)}
	for _, f := range fretes {
		t.TotalValor = t.TotalValor.Add(f.Valor)
		t.TotalChapada = t.TotalChapada.Add(f.Chapada)
	}
	for _, d := range debitos {
		t.TotalDebitos = t.TotalDebitos.Add(d.Valor)
	}
	t.Bruto = t.TotalValor.Add(t.TotalChapada)
	t.DescontoINSS = t.Bruto.Mul(TaxaINSS)
	t.DescontoAdministrativo = t.Bruto.Mul(TaxaAdministrativa)
	t.TotalDescontos = t.DescontoINSS.Add(t.DescontoAdministrativo).Add(t.TotalDebitos)
	t.Liquido = t.Bruto.Sub(t.TotalDescontos)
	return t
}

// Somar acumula campo a campo
func (t Totais) Somar(o Totais) Totais {
	return Totais{
		QtdFretes:              t.QtdFretes + o.QtdFretes,
		QtdDebitos:             t.QtdDebitos + o.QtdDebitos,
		TotalValor:             t.TotalValor.Add(o.TotalValor),
		TotalChapada:           t.TotalChapada.Add(o.TotalChapada),
		Bruto:                  t.Bruto.Add(o.Bruto),
		DescontoINSS:           t.DescontoINSS.Add(o.DescontoINSS),
		DescontoAdministrativo: t.DescontoAdministrativo.Add(o.DescontoAdministrativo),
		TotalDebitos:           t.TotalDebitos.Add(o.TotalDebitos),
		TotalDescontos:         t.TotalDescontos.Add(o.TotalDescontos),
		Liquido:                t.Liquido.Add(o.Liquido),
	}
}

type RelatorioCooperado struct {
	Cooperado CooperadoResumo `json:"cooperado"`
	EmpresaID *uint           `json:"empresa_id,omitempty"`
	Periodo   Periodo         `json:"periodo"`
	Fretes    []LinhaFrete    `json:"fretes"`
	Debitos   []LinhaDebito   `json:"debitos"`
	Totais    Totais          `json:"totais"`
}

// MontarRelatorioCooperado gera o acerto de um cooperado. Sem fretes no
// período o relatório sai zerado, não omitido.
func MontarRelatorioCooperado(c Cooperado, empresaID *uint, p Periodo, fretes []Frete, debitos []Debito) RelatorioCooperado {
	rel := RelatorioCooperado{
		Cooperado: resumoCooperado(&c),
		EmpresaID: empresaID,
		Periodo:   p,
		Fretes:    make([]LinhaFrete, 0, len(fretes)),
		Debitos:   make([]LinhaDebito, 0, len(debitos)),
		Totais:    CalcularTotais(fretes, debitos),
	}
	for _, f := range fretes {
		rel.Fretes = append(rel.Fretes, linhaFrete(f))
	}
	for _, d := range debitos {
		rel.Debitos = append(rel.Debitos, linhaDebito(d))
	}
	return rel
}

func linhaFrete(f Frete) LinhaFrete {
	l := LinhaFrete{
		ID:        f.ID,
		Data:      FormatData(f.Data),
		EmpresaID: f.EmpresaID,
		Carga:     f.Carga,
		Km:        f.Km,
		Valor:     f.Valor,
		Chapada:   f.Chapada,
		Total:     f.Valor.Add(f.Chapada),
		Status:    f.Status.Normalizado(),
	}
	if f.Empresa != nil {
		l.EmpresaNome = f.Empresa.Nome
	}
	return l
}

func linhaDebito(d Debito) LinhaDebito {
	return LinhaDebito{
		ID:        d.ID,
		Data:      FormatData(d.Data),
		EmpresaID: d.EmpresaID,
		Descricao: d.Descricao,
		Valor:     d.Valor,
		Status:    d.Status.Normalizado(),
	}
}

type RelatorioEmpresa struct {
	Empresa    EmpresaResumo        `json:"empresa"`
	Periodo    Periodo              `json:"periodo"`
	Cooperados []RelatorioCooperado `json:"cooperados"`
	Totais     Totais               `json:"totais"`
}

// MontarRelatorioEmpresa agrupa por cooperado. Entram só cooperados com ao
// menos um frete na empresa no período; os débitos devem vir já filtrados
// pela empresa e os de quem não teve frete ficam de fora.
func MontarRelatorioEmpresa(e Empresa, p Periodo, fretes []Frete, debitos []Debito) RelatorioEmpresa {
	fretesPor := make(map[uint][]Frete)
	cooperados := make(map[uint]Cooperado)
	for _, f := range fretes {
		fretesPor[f.CooperadoID] = append(fretesPor[f.CooperadoID], f)
		if f.Cooperado != nil {
			cooperados[f.CooperadoID] = *f.Cooperado
		} else if _, ok := cooperados[f.CooperadoID]; !ok {
			cooperados[f.CooperadoID] = Cooperado{ID: f.CooperadoID}
		}
	}
	debitosPor := make(map[uint][]Debito)
	for _, d := range debitos {
		if _, ok := fretesPor[d.CooperadoID]; ok {
			debitosPor[d.CooperadoID] = append(debitosPor[d.CooperadoID], d)
		}
	}

	empresaID := e.ID
	rel := RelatorioEmpresa{
		Empresa:    EmpresaResumo{ID: e.ID, Nome: e.Nome, CNPJ: e.CNPJ},
		Periodo:    p,
		Cooperados: make([]RelatorioCooperado, 0, len(fretesPor)),
	}
	for id, fs := range fretesPor {
		rc := MontarRelatorioCooperado(cooperados[id], &empresaID, p, fs, debitosPor[id])
		rel.Cooperados = append(rel.Cooperados, rc)
		rel.Totais = rel.Totais.Somar(rc.Totais)
	}
	sort.Slice(rel.Cooperados, func(i, j int) bool {
		a, b := rel.Cooperados[i].Cooperado, rel.Cooperados[j].Cooperado
		if na, nb := strings.ToLower(a.Nome), strings.ToLower(b.Nome); na != nb {
			return na < nb
		}
		return a.ID < b.ID
	})
	return rel
}

// LinhaFolha é o que vai para a folha: líquido e dados bancários
type LinhaFolha struct {
	CooperadoID    uint            `json:"cooperado_id"`
	Nome           string          `json:"nome"`
	CPF            string          `json:"cpf"`
	Placa          string          `json:"placa"`
	DadosBancarios *string         `json:"dados_bancarios"`
	Bruto          decimal.Decimal `json:"bruto"`
	TotalDescontos decimal.Decimal `json:"total_descontos"`
	Liquido        decimal.Decimal `json:"liquido"`
}

type FolhaPagamento struct {
	Empresa      EmpresaResumo   `json:"empresa"`
	Periodo      Periodo         `json:"periodo"`
	Linhas       []LinhaFolha    `json:"linhas"`
	CooperadoIDs []uint          `json:"cooperado_ids"`
	TotalBruto   decimal.Decimal `json:"total_bruto"`
	TotalLiquido decimal.Decimal `json:"total_liquido"`
}

func MontarFolha(rel RelatorioEmpresa) FolhaPagamento {
	folha := FolhaPagamento{
		Empresa:      rel.Empresa,
		Periodo:      rel.Periodo,
		Linhas:       make([]LinhaFolha, 0, len(rel.Cooperados)),
		CooperadoIDs: make([]uint, 0, len(rel.Cooperados)),
		TotalBruto:   rel.Totais.Bruto,
		TotalLiquido: rel.Totais.Liquido,
	}
	for _, rc := range rel.Cooperados {
		folha.Linhas = append(folha.Linhas, LinhaFolha{
			CooperadoID:    rc.Cooperado.ID,
			Nome:           rc.Cooperado.Nome,
			CPF:            rc.Cooperado.CPF,
			Placa:          rc.Cooperado.Placa,
			DadosBancarios: rc.Cooperado.DadosBancarios,
			Bruto:          rc.Totais.Bruto,
			TotalDescontos: rc.Totais.TotalDescontos,
			Liquido:        rc.Totais.Liquido,
		})
		folha.CooperadoIDs = append(folha.CooperadoIDs, rc.Cooperado.ID)
	}
	return folha
}

type LinhaRanking struct {
	Posicao     int             `json:"posicao"`
	CooperadoID uint            `json:"cooperado_id"`
	Nome        string          `json:"nome"`
	QtdFretes   int             `json:"qtd_fretes"`
	Km          decimal.Decimal `json:"km"`
	Bruto       decimal.Decimal `json:"bruto"`
}

// MontarRanking ordena por bruto decrescente; quem não faturou fica de fora
func MontarRanking(fretes []Frete) []LinhaRanking {
	por := make(map[uint]*LinhaRanking)
	for _, f := range fretes {
		l, ok := por[f.CooperadoID]
		if !ok {
			l = &LinhaRanking{CooperadoID: f.CooperadoID}
			if f.Cooperado != nil {
				l.Nome = f.Cooperado.Nome
			}
			por[f.CooperadoID] = l
		}
		l.QtdFretes++
		l.Km = l.Km.Add(f.Km)
		l.Bruto = l.Bruto.Add(f.Valor).Add(f.Chapada)
	}

	ranking := make([]LinhaRanking, 0, len(por))
	for _, l := range por {
		if l.Bruto.IsPositive() {
			ranking = append(ranking, *l)
		}
	}
	sort.Slice(ranking, func(i, j int) bool {
		if c := ranking[i].Bruto.Cmp(ranking[j].Bruto); c != 0 {
			return c > 0
		}
		return ranking[i].CooperadoID < ranking[j].CooperadoID
	})
	for i := range ranking {
		ranking[i].Posicao = i + 1
	}
	return ranking
}
