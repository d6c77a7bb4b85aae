package internal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rotacerta/cooperativa/internal/logger"
)

// custoBcrypt é variável para os testes usarem bcrypt.MinCost
var custoBcrypt = bcrypt.DefaultCost

func HashSenha(senha string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), custoBcrypt)
	if err != nil {
		return "", fmt.Errorf("hash de senha: %w", err)
	}
	return string(hash), nil
}

func ConferirSenha(hash, senha string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(senha)) == nil
}

// Claims do token de sessão
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth emite e valida tokens HS256
type Auth struct {
	secret []byte
	ttl    time.Duration
}

func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl}
}

func (a *Auth) GerarToken(u *Usuario) (string, time.Time, error) {
	now := Now()
	exp := now.Add(a.ttl)
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("assinar token: %w", err)
	}
	return token, exp, nil
}

func (a *Auth) ValidarToken(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, errors.New("token inválido")
	}
	return claims, nil
}

// ==== Login ====

func LoginHandler(db *gorm.DB, auth *Auth, limiter LoginLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "dados inválidos")
			return
		}
		ctx := c.Request.Context()
		log := logger.FromGin(c)
		chave := chaveLogin(c.ClientIP(), req.Username)

		espera, err := limiter.Bloqueado(ctx, chave)
		if err != nil {
			// sem contador não bloqueia o login
			log.Warn("throttle de login indisponível", zap.Error(err))
		}
		if espera > 0 {
			registrarAcesso(ctx, db, log, nil, req.Username, c.ClientIP(), EventoLoginBloqueado)
			secs := int(math.Ceil(espera.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "muitas tentativas de login; tente novamente mais tarde",
				"retry_after": secs,
			})
			return
		}

		var user Usuario
		err = db.WithContext(ctx).Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error
		if err != nil || !ConferirSenha(user.PasswordHash, req.Password) {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				respondErr(c, err)
				return
			}
			if ferr := limiter.RegistrarFalha(ctx, chave); ferr != nil {
				log.Warn("falha ao registrar tentativa", zap.Error(ferr))
			}
			var uid *uint
			if user.ID != 0 {
				uid = &user.ID
			}
			registrarAcesso(ctx, db, log, uid, req.Username, c.ClientIP(), EventoLoginFalha)
			respondErr(c, ErrCredenciais)
			return
		}
		if !user.Ativo {
			respondErr(c, ErrUsuarioInativo)
			return
		}

		if err := limiter.Limpar(ctx, chave); err != nil {
			log.Warn("falha ao limpar tentativas", zap.Error(err))
		}
		token, exp, err := auth.GerarToken(&user)
		if err != nil {
			respondErr(c, err)
			return
		}
		registrarAcesso(ctx, db, log, &user.ID, user.Username, c.ClientIP(), EventoLoginOK)
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp, "usuario": user})
	}
}

// registrarAcesso não interrompe o login se o log falhar
func registrarAcesso(ctx context.Context, db *gorm.DB, log *zap.Logger, uid *uint, username, ip, evento string) {
	err := db.WithContext(ctx).Create(&LogAcesso{UsuarioID: uid, Username: username, IP: ip, Evento: evento}).Error
	if err != nil {
		log.Warn("falha ao gravar log de acesso", zap.String("evento", evento), zap.String("username", username), zap.Error(err))
	}
}

func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user Usuario
		if err := db.WithContext(c.Request.Context()).First(&user, c.GetUint("user_id")).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func LogsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limite := int(ParseUint(c.Query("limite"), 100))
		if limite < 1 || limite > 1000 {
			limite = 100
		}
		var logs []LogAcesso
		if err := db.WithContext(c.Request.Context()).Order("created_at desc, id desc").Limit(limite).Find(&logs).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, logs)
	}
}
