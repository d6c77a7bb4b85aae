package internal

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rotacerta/cooperativa/internal/logger"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RelatorioHandler: acerto por cooperado, ou por empresa quando só empresa_id vier
func RelatorioHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := periodoQuery(c)
		if err != nil {
			respondErr(c, err)
			return
		}
		cooperadoID, err := uintQuery(c, "cooperado_id")
		if err != nil {
			respondErr(c, err)
			return
		}
		empresaID, err := uintQuery(c, "empresa_id")
		if err != nil {
			respondErr(c, err)
			return
		}
		ctx := c.Request.Context()
		switch {
		case cooperadoID != nil:
			rel, err := GerarRelatorioCooperado(ctx, db, *cooperadoID, empresaID, p)
			if err != nil {
				respondErr(c, err)
				return
			}
			c.JSON(http.StatusOK, rel)
		case empresaID != nil:
			rel, err := GerarRelatorioEmpresa(ctx, db, *empresaID, p)
			if err != nil {
				respondErr(c, err)
				return
			}
			c.JSON(http.StatusOK, rel)
		default:
			respondErr(c, ErrFiltroObrigatorio)
		}
	}
}

// empresaPeriodoQuery lê empresa_id obrigatório e o período
func empresaPeriodoQuery(c *gin.Context) (uint, Periodo, error) {
	p, err := periodoQuery(c)
	if err != nil {
		return 0, p, err
	}
	empresaID, err := uintQuery(c, "empresa_id")
	if err != nil {
		return 0, p, err
	}
	if empresaID == nil {
		return 0, p, badRequest("empresa_id é obrigatório")
	}
	return *empresaID, p, nil
}

func RelatorioEmpresaHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		empresaID, p, err := empresaPeriodoQuery(c)
		if err != nil {
			respondErr(c, err)
			return
		}
		rel, err := GerarRelatorioEmpresa(c.Request.Context(), db, empresaID, p)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, rel)
	}
}

func FolhaPagamentoHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		empresaID, p, err := empresaPeriodoQuery(c)
		if err != nil {
			respondErr(c, err)
			return
		}
		folha, err := GerarFolhaPagamento(c.Request.Context(), db, empresaID, p)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, folha)
	}
}

func FolhaPagamentoXLSXHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		empresaID, p, err := empresaPeriodoQuery(c)
		if err != nil {
			respondErr(c, err)
			return
		}
		folha, err := GerarFolhaPagamento(c.Request.Context(), db, empresaID, p)
		if err != nil {
			respondErr(c, err)
			return
		}
		buf, err := FolhaXLSX(folha)
		if err != nil {
			respondErr(c, fmt.Errorf("gerar planilha: %w", err))
			return
		}
		nome := fmt.Sprintf("folha-%d-%s-%s.xlsx", empresaID, FormatData(p.Inicio), FormatData(p.Fim))
		c.Header("Content-Disposition", `attachment; filename="`+nome+`"`)
		c.Data(http.StatusOK, mimeXLSX, buf.Bytes())
	}
}

// ProcessarPagamentosHandler baixa os lançamentos da folha e avisa os
// cooperados pagos quando o WhatsApp estiver configurado
func ProcessarPagamentosHandler(db *gorm.DB, notifier Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			EmpresaID    uint   `json:"empresa_id" binding:"required"`
			DataInicio   string `json:"data_inicio" binding:"required"`
			DataFim      string `json:"data_fim" binding:"required"`
			CooperadoIDs []uint `json:"cooperado_ids" binding:"required"`
		}
		if !bindJSON(c, &req) {
			return
		}
		inicio, err := ParseData(req.DataInicio)
		if err != nil {
			respondErr(c, badRequest(err.Error()))
			return
		}
		fim, err := ParseData(req.DataFim)
		if err != nil {
			respondErr(c, badRequest(err.Error()))
			return
		}
		p, err := NovoPeriodo(inicio, fim)
		if err != nil {
			respondErr(c, err)
			return
		}

		ctx := c.Request.Context()
		log := logger.FromGin(c)
		folha, err := GerarFolhaPagamento(ctx, db, req.EmpresaID, p)
		if err != nil {
			respondErr(c, err)
			return
		}
		res, err := ProcessarPagamentosFolha(ctx, db, req.EmpresaID, p, req.CooperadoIDs)
		if err != nil {
			respondErr(c, err)
			return
		}
		log.Info("folha processada",
			zap.Uint("empresa_id", req.EmpresaID),
			zap.Int64("fretes", res.FretesPagos),
			zap.Int64("debitos", res.DebitosPagos),
		)

		// só avisa quem teve frete baixado agora
		avisos := 0
		if notifier != nil && len(res.CooperadosPagos) > 0 {
			var cooperados []Cooperado
			if err := db.WithContext(ctx).Where("id IN ?", res.CooperadosPagos).Find(&cooperados).Error; err != nil {
				log.Warn("não foi possível carregar telefones", zap.Error(err))
			}
			telefones := make(map[uint]string, len(cooperados))
			for _, coop := range cooperados {
				telefones[coop.ID] = coop.Telefone
			}
			pagos := make(map[uint]bool, len(res.CooperadosPagos))
			for _, id := range res.CooperadosPagos {
				pagos[id] = true
			}
			avisos = avisarPagamentos(ctx, notifier, log, folha, telefones, pagos)
		}

		c.JSON(http.StatusOK, gin.H{
			"fretes_atualizados":  res.FretesPagos,
			"debitos_atualizados": res.DebitosPagos,
			"avisos_enviados":     avisos,
		})
	}
}

func RankingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := periodoQuery(c)
		if err != nil {
			respondErr(c, err)
			return
		}
		empresaID, err := uintQuery(c, "empresa_id")
		if err != nil {
			respondErr(c, err)
			return
		}
		ranking, err := GerarRanking(c.Request.Context(), db, empresaID, p)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ranking)
	}
}
