package internal

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var registrarValidacoes sync.Once

// RegisterValidators adiciona cpf_cnpj e placa ao validator do gin
func RegisterValidators() {
	registrarValidacoes.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("cpf_cnpj", func(fl validator.FieldLevel) bool {
			return IsValidCPFCNPJ(fl.Field().String())
		})
		_ = v.RegisterValidation("placa", func(fl validator.FieldLevel) bool {
			return IsValidPlaca(fl.Field().String())
		})
	})
}

// bindJSON responde 400 listando os campos inválidos
func bindJSON(c *gin.Context, req any) bool {
	return respondBind(c, c.ShouldBindJSON(req))
}

// bindJSONOpcional aceita corpo ausente ou vazio, inclusive chunked
func bindJSONOpcional(c *gin.Context, req any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		return true
	}
	return respondBind(c, err)
}

func respondBind(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		campos := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			campos = append(campos, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		RespondError(c, http.StatusBadRequest, "dados inválidos: "+strings.Join(campos, ", "))
		return false
	}
	RespondError(c, http.StatusBadRequest, "dados inválidos")
	return false
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		RespondError(c, http.StatusBadRequest, "id inválido")
		return 0, false
	}
	return uint(id), true
}

// uintQuery lê um id opcional da query string
func uintQuery(c *gin.Context, nome string) (*uint, error) {
	s := c.Query(nome)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return nil, badRequest(nome + " inválido")
	}
	id := uint(n)
	return &id, nil
}

func dataQuery(c *gin.Context, nome string) (*time.Time, error) {
	s := c.Query(nome)
	if s == "" {
		return nil, nil
	}
	t, err := ParseData(s)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	return &t, nil
}

// periodoQuery exige data_inicio e data_fim
func periodoQuery(c *gin.Context) (Periodo, error) {
	inicio, err := dataQuery(c, "data_inicio")
	if err != nil {
		return Periodo{}, err
	}
	fim, err := dataQuery(c, "data_fim")
	if err != nil {
		return Periodo{}, err
	}
	if inicio == nil || fim == nil {
		return Periodo{}, badRequest("data_inicio e data_fim são obrigatórias")
	}
	return NovoPeriodo(*inicio, *fim)
}

// dataOuHoje aceita data vazia como hoje
func dataOuHoje(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return Hoje(), nil
	}
	t, err := ParseData(s)
	if err != nil {
		return time.Time{}, badRequest(err.Error())
	}
	return t, nil
}

func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "erro", "database": "indisponível"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ==== Cooperados ====

type cooperadoRequest struct {
	Nome           string  `json:"nome" binding:"required,max=150"`
	CPF            string  `json:"cpf" binding:"required,cpf_cnpj"`
	Placa          string  `json:"placa" binding:"omitempty,placa"`
	Telefone       string  `json:"telefone"`
	DadosBancarios *string `json:"dados_bancarios"`
}

func (r cooperadoRequest) aplicar(c *Cooperado) error {
	tel := SanitizeDigits(r.Telefone)
	if tel != "" && !IsValidPhone(tel) {
		return badRequest("telefone inválido")
	}
	c.Nome = strings.TrimSpace(r.Nome)
	c.CPF = SanitizeDigits(r.CPF)
	c.Placa = NormalizePlaca(r.Placa)
	c.Telefone = tel
	c.DadosBancarios = r.DadosBancarios
	return nil
}

func ListCooperados(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Order("nome, id")
		if busca := strings.TrimSpace(c.Query("busca")); busca != "" {
			like := "%" + strings.ToLower(busca) + "%"
			q = q.Where("LOWER(nome) LIKE ? OR cpf LIKE ? OR placa LIKE ?", like, like, strings.ToUpper(like))
		}
		var cooperados []Cooperado
		if err := q.Find(&cooperados).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, cooperados)
	}
}

func GetCooperado(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		coop, err := buscarCooperado(c.Request.Context(), db, id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, coop)
	}
}

func CreateCooperado(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cooperadoRequest
		if !bindJSON(c, &req) {
			return
		}
		var coop Cooperado
		if err := req.aplicar(&coop); err != nil {
			respondErr(c, err)
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&coop).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, coop)
	}
}

func UpdateCooperado(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req cooperadoRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()
		coop, err := buscarCooperado(ctx, db, id)
		if err != nil {
			respondErr(c, err)
			return
		}
		if err := req.aplicar(coop); err != nil {
			respondErr(c, err)
			return
		}
		if err := db.WithContext(ctx).Save(coop).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, coop)
	}
}

func DeleteCooperado(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := ExcluirCooperado(c.Request.Context(), db, id); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// ==== Empresas ====

type empresaRequest struct {
	Nome string `json:"nome" binding:"required,max=150"`
	CNPJ string `json:"cnpj" binding:"required,cpf_cnpj"`
}

func ListEmpresas(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Order("nome, id")
		if busca := strings.TrimSpace(c.Query("busca")); busca != "" {
			like := "%" + strings.ToLower(busca) + "%"
			q = q.Where("LOWER(nome) LIKE ? OR cnpj LIKE ?", like, like)
		}
		var empresas []Empresa
		if err := q.Find(&empresas).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, empresas)
	}
}

func GetEmpresa(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		emp, err := buscarEmpresa(c.Request.Context(), db, id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, emp)
	}
}

func CreateEmpresa(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req empresaRequest
		if !bindJSON(c, &req) {
			return
		}
		emp := Empresa{Nome: strings.TrimSpace(req.Nome), CNPJ: SanitizeDigits(req.CNPJ)}
		if err := db.WithContext(c.Request.Context()).Create(&emp).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, emp)
	}
}

func UpdateEmpresa(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req empresaRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()
		emp, err := buscarEmpresa(ctx, db, id)
		if err != nil {
			respondErr(c, err)
			return
		}
		emp.Nome = strings.TrimSpace(req.Nome)
		emp.CNPJ = SanitizeDigits(req.CNPJ)
		if err := db.WithContext(ctx).Save(emp).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, emp)
	}
}

func DeleteEmpresa(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := ExcluirEmpresa(c.Request.Context(), db, id); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// ==== Backup ====

// BackupHandler exporta todas as tabelas; hash de senha nunca sai (json:"-")
func BackupHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var (
			cooperados []Cooperado
			empresas   []Empresa
			fretes     []Frete
			debitos    []Debito
			usuarios   []Usuario
			logs       []LogAcesso
		)
		for _, dst := range []any{&cooperados, &empresas, &fretes, &debitos, &usuarios, &logs} {
			if err := db.WithContext(ctx).Order("id").Find(dst).Error; err != nil {
				respondErr(c, err)
				return
			}
		}
		nome := fmt.Sprintf("backup-%s.json", Now().Format("20060102-150405"))
		c.Header("Content-Disposition", `attachment; filename="`+nome+`"`)
		c.JSON(http.StatusOK, gin.H{
			"gerado_em":   Now(),
			"cooperados":  cooperados,
			"empresas":    empresas,
			"fretes":      fretes,
			"debitos":     debitos,
			"usuarios":    usuarios,
			"logs_acesso": logs,
		})
	}
}
