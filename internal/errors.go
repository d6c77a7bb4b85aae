package internal

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rotacerta/cooperativa/internal/logger"
)

// AppError é um erro de negócio com o status HTTP correspondente
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string { return e.Message }

func newAppError(status int, msg string) *AppError {
	return &AppError{Status: status, Message: msg}
}

var (
	ErrNaoEncontrado     = newAppError(http.StatusNotFound, "registro não encontrado")
	ErrFretePago         = newAppError(http.StatusBadRequest, "frete já está pago; desfaça o pagamento antes de alterar ou excluir")
	ErrDebitoPago        = newAppError(http.StatusBadRequest, "débito já está pago; marque como pendente antes de alterar ou excluir")
	ErrJaPago            = newAppError(http.StatusBadRequest, "registro já está pago")
	ErrNaoPago           = newAppError(http.StatusBadRequest, "registro não está pago")
	ErrDuplicado         = newAppError(http.StatusBadRequest, "registro duplicado")
	ErrPossuiLancamentos = newAppError(http.StatusBadRequest, "existem fretes ou débitos vinculados; exclua-os antes")
	ErrUltimoAdmin       = newAppError(http.StatusBadRequest, "deve existir ao menos um administrador ativo")
	ErrCredenciais       = newAppError(http.StatusUnauthorized, "usuário ou senha inválidos")
	ErrUsuarioInativo    = newAppError(http.StatusForbidden, "usuário inativo")
	ErrPeriodoInvalido   = newAppError(http.StatusBadRequest, "data_inicio deve ser anterior ou igual a data_fim")
	ErrAcaoDesconhecida  = newAppError(http.StatusBadRequest, "ação desconhecida")
	ErrListaVazia        = newAppError(http.StatusBadRequest, "informe ao menos um id")
	ErrFiltroObrigatorio = newAppError(http.StatusBadRequest, "informe cooperado_id ou empresa_id")
)

func badRequest(msg string) *AppError {
	return newAppError(http.StatusBadRequest, msg)
}

// isUniqueViolation cobre postgres (23505) e sqlite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed")
}

// RespondError responde erro padronizado
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondErr converte um erro em resposta JSON; erros desconhecidos viram 500
// com mensagem genérica e a causa vai só para o log
func respondErr(c *gin.Context, err error) {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		RespondError(c, appErr.Status, appErr.Message)
	case errors.Is(err, gorm.ErrRecordNotFound):
		RespondError(c, ErrNaoEncontrado.Status, ErrNaoEncontrado.Message)
	case isUniqueViolation(err):
		RespondError(c, ErrDuplicado.Status, ErrDuplicado.Message)
	default:
		logger.FromGin(c).Error("erro interno", zap.Error(err))
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, "erro interno do servidor")
	}
}
