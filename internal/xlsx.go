package internal

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const abaFolha = "Folha"

// FolhaXLSX gera a planilha da folha de pagamento
func FolhaXLSX(folha *FolhaPagamento) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", abaFolha); err != nil {
		return nil, err
	}

	titulo := fmt.Sprintf("Folha de pagamento - %s - %s a %s",
		folha.Empresa.Nome, FormatData(folha.Periodo.Inicio), FormatData(folha.Periodo.Fim))
	_ = f.SetCellValue(abaFolha, "A1", titulo)

	cabecalho := []any{"Cooperado", "CPF", "Placa", "Dados bancários", "Bruto", "Descontos", "Líquido"}
	if err := f.SetSheetRow(abaFolha, "A3", &cabecalho); err != nil {
		return nil, err
	}

	linha := 4
	for _, l := range folha.Linhas {
		banco := ""
		if l.DadosBancarios != nil {
			banco = *l.DadosBancarios
		}
		valores := []any{
			l.Nome, l.CPF, l.Placa, banco,
			l.Bruto.Round(2).InexactFloat64(),
			l.TotalDescontos.Round(2).InexactFloat64(),
			l.Liquido.Round(2).InexactFloat64(),
		}
		if err := f.SetSheetRow(abaFolha, fmt.Sprintf("A%d", linha), &valores); err != nil {
			return nil, err
		}
		linha++
	}

	total := []any{"Total", "", "", "", folha.TotalBruto.Round(2).InexactFloat64(), "", folha.TotalLiquido.Round(2).InexactFloat64()}
	if err := f.SetSheetRow(abaFolha, fmt.Sprintf("A%d", linha), &total); err != nil {
		return nil, err
	}

	negrito, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	moeda, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(abaFolha, "A1", "A1", negrito)
	_ = f.SetCellStyle(abaFolha, "A3", "G3", negrito)
	_ = f.SetCellStyle(abaFolha, "E4", fmt.Sprintf("G%d", linha), moeda)
	_ = f.SetColWidth(abaFolha, "A", "A", 35)
	_ = f.SetColWidth(abaFolha, "D", "D", 40)

	return f.WriteToBuffer()
}
