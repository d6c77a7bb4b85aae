package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type freteRequest struct {
	CooperadoID uint            `json:"cooperado_id" binding:"required"`
	EmpresaID   uint            `json:"empresa_id" binding:"required"`
	Carga       string          `json:"carga" binding:"max=255"`
	Km          decimal.Decimal `json:"km"`
	Valor       decimal.Decimal `json:"valor"`
	Chapada     decimal.Decimal `json:"chapada"`
	Data        string          `json:"data" binding:"required"`
}

// validar confere valores e referências e devolve a data do frete
func (r freteRequest) validar(ctx context.Context, db *gorm.DB) (time.Time, error) {
	if r.Km.IsNegative() || r.Valor.IsNegative() || r.Chapada.IsNegative() {
		return time.Time{}, badRequest("km, valor e chapada não podem ser negativos")
	}
	data, err := ParseData(r.Data)
	if err != nil {
		return time.Time{}, badRequest(err.Error())
	}
	if err := existeReferencia(ctx, db, r.CooperadoID, &r.EmpresaID); err != nil {
		return time.Time{}, err
	}
	return data, nil
}

func (r freteRequest) aplicar(f *Frete, data time.Time) {
	f.CooperadoID = r.CooperadoID
	f.EmpresaID = r.EmpresaID
	f.Carga = strings.TrimSpace(r.Carga)
	f.Km = r.Km
	f.Valor = r.Valor
	f.Chapada = r.Chapada
	f.Data = Dia(data)
}

// existeReferencia responde 400 (não 404) quando cooperado/empresa do corpo não existe
func existeReferencia(ctx context.Context, db *gorm.DB, cooperadoID uint, empresaID *uint) error {
	if _, err := buscarCooperado(ctx, db, cooperadoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return badRequest("cooperado não encontrado")
		}
		return err
	}
	if empresaID != nil {
		if _, err := buscarEmpresa(ctx, db, *empresaID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return badRequest("empresa não encontrada")
			}
			return err
		}
	}
	return nil
}

// filtroQuery monta o filtro de listagem a partir da query string
func filtroQuery(c *gin.Context) (FiltroLancamentos, error) {
	var f FiltroLancamentos
	var err error
	if f.CooperadoID, err = uintQuery(c, "cooperado_id"); err != nil {
		return f, err
	}
	if f.EmpresaID, err = uintQuery(c, "empresa_id"); err != nil {
		return f, err
	}
	if f.Inicio, err = dataQuery(c, "data_inicio"); err != nil {
		return f, err
	}
	if f.Fim, err = dataQuery(c, "data_fim"); err != nil {
		return f, err
	}
	if s := c.Query("status"); s != "" {
		st := StatusPagamento(s)
		if st != StatusPendente && st != StatusPago {
			return f, badRequest("status deve ser pendente ou pago")
		}
		f.Status = &st
	}
	return f, nil
}

func ListFretes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filtro, err := filtroQuery(c)
		if err != nil {
			respondErr(c, err)
			return
		}
		fretes, err := BuscarFretes(c.Request.Context(), db, filtro)
		if err != nil {
			respondErr(c, err)
			return
		}
		for i := range fretes {
			fretes[i].Status = fretes[i].Status.Normalizado()
		}
		c.JSON(http.StatusOK, fretes)
	}
}

func GetFrete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var f Frete
		if err := db.WithContext(c.Request.Context()).Preload("Cooperado").Preload("Empresa").First(&f, id).Error; err != nil {
			respondErr(c, err)
			return
		}
		f.Status = f.Status.Normalizado()
		c.JSON(http.StatusOK, f)
	}
}

func CreateFrete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req freteRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()
		data, err := req.validar(ctx, db)
		if err != nil {
			respondErr(c, err)
			return
		}
		f := Frete{Status: StatusPendente}
		req.aplicar(&f, data)
		if err := db.WithContext(ctx).Create(&f).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, f)
	}
}

func UpdateFrete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req freteRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()
		data, err := req.validar(ctx, db)
		if err != nil {
			respondErr(c, err)
			return
		}
		f, err := AtualizarFrete(ctx, db, id, func(f *Frete) { req.aplicar(f, data) })
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

func DeleteFrete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := ExcluirFrete(c.Request.Context(), db, id); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// PagarFreteHandler aceita corpo vazio; sem data usa hoje
func PagarFreteHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req struct {
			DataPagamento string `json:"data_pagamento"`
		}
		if !bindJSONOpcional(c, &req) {
			return
		}
		data, err := dataOuHoje(req.DataPagamento)
		if err != nil {
			respondErr(c, err)
			return
		}
		f, err := PagarFreteID(c.Request.Context(), db, id, data)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

func DesfazerPagamentoFreteHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		f, err := DesfazerPagamentoFreteID(c.Request.Context(), db, id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

func PagarFretesLoteHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDs           []uint `json:"ids" binding:"required"`
			DataPagamento string `json:"data_pagamento"`
		}
		if !bindJSON(c, &req) {
			return
		}
		data, err := dataOuHoje(req.DataPagamento)
		if err != nil {
			respondErr(c, err)
			return
		}
		n, err := PagarFretesLote(c.Request.Context(), db, req.IDs, data)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"atualizados": n})
	}
}
