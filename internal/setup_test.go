package internal

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	custoBcrypt = bcrypt.MinCost
}

// novoBanco abre um sqlite em memória com o schema dos modelos. Uma conexão
// só, senão cada conexão enxerga um banco vazio diferente.
func novoBanco(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func dia(s string) time.Time {
	t, err := ParseData(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func criarCooperado(t *testing.T, db *gorm.DB, nome string) *Cooperado {
	t.Helper()
	c := &Cooperado{Nome: nome, CPF: "12345678901", Placa: "ABC1D23"}
	require.NoError(t, db.Create(c).Error)
	return c
}

func criarEmpresa(t *testing.T, db *gorm.DB, nome string) *Empresa {
	t.Helper()
	e := &Empresa{Nome: nome, CNPJ: "12345678000199"}
	require.NoError(t, db.Create(e).Error)
	return e
}

func criarFrete(t *testing.T, db *gorm.DB, coop *Cooperado, emp *Empresa, data, valor, chapada string) *Frete {
	t.Helper()
	f := &Frete{
		CooperadoID: coop.ID,
		EmpresaID:   emp.ID,
		Carga:       "soja",
		Km:          dec("100"),
		Valor:       dec(valor),
		Chapada:     dec(chapada),
		Data:        dia(data),
		Status:      StatusPendente,
	}
	require.NoError(t, db.Create(f).Error)
	return f
}

func criarDebito(t *testing.T, db *gorm.DB, coop *Cooperado, emp *Empresa, data, valor string) *Debito {
	t.Helper()
	d := &Debito{
		CooperadoID: coop.ID,
		Descricao:   "adiantamento",
		Valor:       dec(valor),
		Data:        dia(data),
		Status:      StatusPendente,
	}
	if emp != nil {
		d.EmpresaID = &emp.ID
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func criarUsuario(t *testing.T, db *gorm.DB, username, senha, role string) *Usuario {
	t.Helper()
	hash, err := HashSenha(senha)
	require.NoError(t, err)
	u := &Usuario{Username: username, PasswordHash: hash, Nome: username, Role: role, Ativo: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

// apiTeste é o router completo sobre um banco em memória
type apiTeste struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	auth   *Auth
}

func novaAPI(t *testing.T) *apiTeste {
	t.Helper()
	db := novoBanco(t)
	auth := NewAuth("segredo-de-teste", time.Hour)
	r := NewRouter(Deps{DB: db, Auth: auth, Limiter: NewMemoryLimiter(3, time.Minute)})
	return &apiTeste{t: t, db: db, router: r, auth: auth}
}

func (a *apiTeste) token(u *Usuario) string {
	a.t.Helper()
	tok, _, err := a.auth.GerarToken(u)
	require.NoError(a.t, err)
	return tok
}

func (a *apiTeste) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
