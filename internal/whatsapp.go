package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Notifier envia avisos aos cooperados
type Notifier interface {
	Notificar(ctx context.Context, telefone, mensagem string) error
}

// WhatsApp envia mensagens pela API HTTP configurada
type WhatsApp struct {
	APIURL   string
	APIToken string
	Client   *http.Client
}

func NewWhatsApp(apiURL, apiToken string) *WhatsApp {
	return &WhatsApp{APIURL: apiURL, APIToken: apiToken, Client: &http.Client{Timeout: 10 * time.Second}}
}

// Configurado indica se URL e token foram informados
func (w *WhatsApp) Configurado() bool {
	return w != nil && w.APIURL != "" && w.APIToken != ""
}

// Envia mensagem WhatsApp via API
func (w *WhatsApp) Notificar(ctx context.Context, telefone, mensagem string) error {
	if !w.Configurado() {
		return errors.New("integração WhatsApp não configurada")
	}
	payload, _ := json.Marshal(map[string]string{
		"phone":   telefone,
		"message": mensagem,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.APIToken)
	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("erro na requisição: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("falha no envio WhatsApp (status %d): %s", resp.StatusCode, body)
	}
	return nil
}

// avisarPagamentos manda um aviso por cooperado pago; falhas só vão para o log
func avisarPagamentos(ctx context.Context, n Notifier, log *zap.Logger, folha *FolhaPagamento, telefones map[uint]string, pagos map[uint]bool) int {
	if n == nil || folha == nil {
		return 0
	}
	enviados := 0
	for _, l := range folha.Linhas {
		tel := telefones[l.CooperadoID]
		if tel == "" || !pagos[l.CooperadoID] {
			continue
		}
		msg := fmt.Sprintf("Olá %s, seu pagamento de %s a %s (%s) foi processado. Valor líquido: R$ %s.",
			l.Nome, FormatData(folha.Periodo.Inicio), FormatData(folha.Periodo.Fim), folha.Empresa.Nome, l.Liquido.StringFixed(2))
		if err := n.Notificar(ctx, tel, msg); err != nil {
			log.Warn("aviso de pagamento não enviado", zap.Uint("cooperado_id", l.CooperadoID), zap.Error(err))
			continue
		}
		enviados++
	}
	return enviados
}
