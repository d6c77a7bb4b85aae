package internal

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuth_Token(t *testing.T) {
	auth := NewAuth("segredo", time.Hour)
	u := &Usuario{ID: 4, Username: "maria", Role: RoleUsuario}

	tok, exp, err := auth.GerarToken(u)
	require.NoError(t, err)
	assert.WithinDuration(t, Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := auth.ValidarToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(4), claims.UserID)
	assert.Equal(t, "maria", claims.Username)
	assert.Equal(t, RoleUsuario, claims.Role)
	assert.Equal(t, "4", claims.Subject)

	_, err = NewAuth("outro", time.Hour).ValidarToken(tok)
	assert.Error(t, err)
}

func TestAuth_TokenExpirado(t *testing.T) {
	auth := NewAuth("segredo", -time.Minute)
	tok, _, err := auth.GerarToken(&Usuario{ID: 1})
	require.NoError(t, err)
	_, err = auth.ValidarToken(tok)
	assert.Error(t, err)
}

func TestAuth_RecusaOutroAlgoritmo(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewAuth("segredo", time.Hour).ValidarToken(tok)
	assert.Error(t, err)
}

func TestHashSenha(t *testing.T) {
	hash, err := HashSenha("s3nh4")
	require.NoError(t, err)
	assert.NotEqual(t, "s3nh4", hash)
	assert.True(t, ConferirSenha(hash, "s3nh4"))
	assert.False(t, ConferirSenha(hash, "errada"))
}

func TestLogin(t *testing.T) {
	api := novaAPI(t)
	criarUsuario(t, api.db, "admin", "senha123", RoleAdmin)

	w := api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "senha123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token   string         `json:"token"`
		Usuario map[string]any `json:"usuario"`
	}
	decodeJSON(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.Usuario["username"])
	assert.NotContains(t, resp.Usuario, "password_hash")

	w = api.do(http.MethodGet, "/auth/me", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var logs []LogAcesso
	require.NoError(t, api.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, EventoLoginOK, logs[0].Evento)
}

func TestLogin_FalhaNoLogDeAcessoNaoBloqueia(t *testing.T) {
	db := novoBanco(t)
	auth := NewAuth("segredo-de-teste", time.Hour)
	core, logs := observer.New(zapcore.WarnLevel)
	api := &apiTeste{t: t, db: db, auth: auth, router: NewRouter(Deps{
		DB: db, Log: zap.New(core), Auth: auth, Limiter: NewMemoryLimiter(3, time.Minute),
	})}
	criarUsuario(t, db, "admin", "senha123", RoleAdmin)
	require.NoError(t, db.Migrator().DropTable(&LogAcesso{}))

	w := api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "senha123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	falhas := logs.FilterMessage("falha ao gravar log de acesso")
	require.Equal(t, 1, falhas.Len())
	assert.Equal(t, EventoLoginOK, falhas.All()[0].ContextMap()["evento"])
}

func TestLogin_Falhas(t *testing.T) {
	api := novaAPI(t)
	inativo := criarUsuario(t, api.db, "inativo", "senha123", RoleUsuario)
	require.NoError(t, api.db.Model(inativo).Update("ativo", false).Error)
	criarUsuario(t, api.db, "admin", "senha123", RoleAdmin)

	w := api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "ninguem", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "inativo", "password": "senha123"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogin_Bloqueio(t *testing.T) {
	api := novaAPI(t)
	criarUsuario(t, api.db, "admin", "senha123", RoleAdmin)
	errada := map[string]string{"username": "admin", "password": "errada"}

	for i := 0; i < 3; i++ {
		w := api.do(http.MethodPost, "/auth/login", "", errada)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// bloqueado até com a senha certa
	w := api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "senha123"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	secs, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, secs)

	var bloqueios int64
	require.NoError(t, api.db.Model(&LogAcesso{}).Where("evento = ?", EventoLoginBloqueado).Count(&bloqueios).Error)
	assert.EqualValues(t, 1, bloqueios)
}

func TestAuthMiddleware(t *testing.T) {
	api := novaAPI(t)
	u := criarUsuario(t, api.db, "maria", "senha123", RoleUsuario)
	tok := api.token(u)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/cooperados", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/cooperados", "lixo", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/cooperados", tok, nil).Code)

	// desativado depois de emitir o token
	require.NoError(t, api.db.Model(u).Update("ativo", false).Error)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/cooperados", tok, nil).Code)

	require.NoError(t, api.db.Delete(u).Error)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/cooperados", tok, nil).Code)
}
