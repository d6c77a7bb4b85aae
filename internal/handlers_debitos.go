package internal

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	acaoMarcarPago     = "marcar_pago"
	acaoMarcarPendente = "marcar_pendente"
)

type debitoRequest struct {
	CooperadoID uint            `json:"cooperado_id"`
	EmpresaID   *uint           `json:"empresa_id"`
	Descricao   string          `json:"descricao" binding:"max=255"`
	Valor       decimal.Decimal `json:"valor"`
	Data        string          `json:"data"`

	// PUT /debitos/:id com action troca o status em vez de editar
	Action          string `json:"action"`
	DataBaixa       string `json:"data_baixa"`
	ObservacaoBaixa string `json:"observacao_baixa"`
}

func (r debitoRequest) montar(c *gin.Context, db *gorm.DB, d *Debito) error {
	if r.CooperadoID == 0 || strings.TrimSpace(r.Descricao) == "" || r.Data == "" {
		return badRequest("cooperado_id, descricao e data são obrigatórios")
	}
	if !r.Valor.IsPositive() {
		return badRequest("valor deve ser maior que zero")
	}
	data, err := ParseData(r.Data)
	if err != nil {
		return badRequest(err.Error())
	}
	if r.EmpresaID != nil && *r.EmpresaID == 0 {
		r.EmpresaID = nil
	}
	if err := existeReferencia(c.Request.Context(), db, r.CooperadoID, r.EmpresaID); err != nil {
		return err
	}
	d.CooperadoID = r.CooperadoID
	d.EmpresaID = r.EmpresaID
	d.Descricao = strings.TrimSpace(r.Descricao)
	d.Valor = r.Valor
	d.Data = Dia(data)
	return nil
}

func ListDebitos(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filtro, err := filtroQuery(c)
		if err != nil {
			respondErr(c, err)
			return
		}
		debitos, err := BuscarDebitos(c.Request.Context(), db, filtro)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, debitos)
	}
}

func GetDebito(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var d Debito
		if err := db.WithContext(c.Request.Context()).Preload("Cooperado").Preload("Empresa").First(&d, id).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func CreateDebito(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req debitoRequest
		if !bindJSON(c, &req) {
			return
		}
		d := Debito{Status: StatusPendente}
		if err := req.montar(c, db, &d); err != nil {
			respondErr(c, err)
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&d).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	}
}

// UpdateDebito edita o débito ou, com action, dá/desfaz a baixa
func UpdateDebito(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req debitoRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()

		var (
			d   *Debito
			err error
		)
		switch req.Action {
		case acaoMarcarPago:
			data, derr := dataOuHoje(req.DataBaixa)
			if derr != nil {
				respondErr(c, derr)
				return
			}
			d, err = PagarDebitoID(ctx, db, id, data, strings.TrimSpace(req.ObservacaoBaixa))
		case acaoMarcarPendente:
			d, err = DesfazerBaixaDebitoID(ctx, db, id)
		case "":
			var editado Debito
			if err := req.montar(c, db, &editado); err != nil {
				respondErr(c, err)
				return
			}
			d, err = AtualizarDebito(ctx, db, id, func(d *Debito) {
				d.CooperadoID = editado.CooperadoID
				d.EmpresaID = editado.EmpresaID
				d.Descricao = editado.Descricao
				d.Valor = editado.Valor
				d.Data = editado.Data
			})
		default:
			err = ErrAcaoDesconhecida
		}
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func DeleteDebito(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := ExcluirDebito(c.Request.Context(), db, id); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// AlterarDataDebitosHandler traz débitos pendentes para outra data, após
// confirmação do usuário na tela
func AlterarDataDebitosHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDs      []uint `json:"ids" binding:"required"`
			NovaData string `json:"nova_data" binding:"required"`
		}
		if !bindJSON(c, &req) {
			return
		}
		data, err := ParseData(req.NovaData)
		if err != nil {
			respondErr(c, badRequest(err.Error()))
			return
		}
		n, err := AlterarDataDebitosLote(c.Request.Context(), db, req.IDs, data)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"atualizados": n})
	}
}

func DebitosPendentesAnterioresHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cooperadoID, err := uintQuery(c, "cooperado_id")
		if err != nil {
			respondErr(c, err)
			return
		}
		inicio, err := dataQuery(c, "data_inicio")
		if err != nil {
			respondErr(c, err)
			return
		}
		if cooperadoID == nil || inicio == nil {
			respondErr(c, badRequest("cooperado_id e data_inicio são obrigatórios"))
			return
		}
		empresaID, err := uintQuery(c, "empresa_id")
		if err != nil {
			respondErr(c, err)
			return
		}
		debitos, err := DebitosPendentesAnteriores(c.Request.Context(), db, *cooperadoID, empresaID, *inicio)
		if err != nil {
			respondErr(c, err)
			return
		}
		total := decimal.Zero
		for _, d := range debitos {
			total = total.Add(d.Valor)
		}
		c.JSON(http.StatusOK, gin.H{"debitos": debitos, "quantidade": len(debitos), "total": total})
	}
}
