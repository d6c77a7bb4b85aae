package internal

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rotacerta/cooperativa/internal/logger"
)

// Deps reúne o que os handlers precisam
type Deps struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Auth     *Auth
	Limiter  LoginLimiter
	Notifier Notifier // nil desliga os avisos
}

func NewRouter(d Deps) *gin.Engine {
	RegisterValidators()
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	r := gin.New()
	r.Use(logger.RequestID(), logger.Gin(d.Log), logger.Recovery(d.Log))

	db := d.DB
	r.GET("/health", HealthHandler(db))
	r.POST("/auth/login", LoginHandler(db, d.Auth, d.Limiter))

	api := r.Group("/")
	api.Use(AuthMiddleware(d.Auth, db))

	api.GET("/auth/me", MeHandler(db))

	api.GET("/cooperados", ListCooperados(db))
	api.POST("/cooperados", CreateCooperado(db))
	api.GET("/cooperados/:id", GetCooperado(db))
	api.PUT("/cooperados/:id", UpdateCooperado(db))
	api.DELETE("/cooperados/:id", DeleteCooperado(db))

	api.GET("/empresas", ListEmpresas(db))
	api.POST("/empresas", CreateEmpresa(db))
	api.GET("/empresas/:id", GetEmpresa(db))
	api.PUT("/empresas/:id", UpdateEmpresa(db))
	api.DELETE("/empresas/:id", DeleteEmpresa(db))

	api.GET("/fretes", ListFretes(db))
	api.POST("/fretes", CreateFrete(db))
	api.POST("/fretes/pagar-lote", PagarFretesLoteHandler(db))
	api.GET("/fretes/:id", GetFrete(db))
	api.PUT("/fretes/:id", UpdateFrete(db))
	api.DELETE("/fretes/:id", DeleteFrete(db))
	api.PATCH("/fretes/:id/pagar", PagarFreteHandler(db))
	api.PATCH("/fretes/:id/desfazer-pagamento", DesfazerPagamentoFreteHandler(db))

	api.GET("/debitos", ListDebitos(db))
	api.POST("/debitos", CreateDebito(db))
	api.GET("/debitos/pendentes-anteriores", DebitosPendentesAnterioresHandler(db))
	api.PUT("/debitos/alterar-data-lote", AlterarDataDebitosHandler(db))
	api.GET("/debitos/:id", GetDebito(db))
	api.PUT("/debitos/:id", UpdateDebito(db))
	api.DELETE("/debitos/:id", DeleteDebito(db))

	api.GET("/relatorios", RelatorioHandler(db))
	api.GET("/relatorios/empresa", RelatorioEmpresaHandler(db))
	api.GET("/relatorios/ranking", RankingHandler(db))
	api.GET("/relatorios/folha-pagamento", FolhaPagamentoHandler(db))
	api.GET("/relatorios/folha-pagamento/xlsx", FolhaPagamentoXLSXHandler(db))
	api.POST("/relatorios/folha-pagamento/processar-pagamentos", ProcessarPagamentosHandler(db, d.Notifier))

	admin := api.Group("/")
	admin.Use(AdminOnly())
	admin.GET("/backup", BackupHandler(db))
	admin.GET("/logs", LogsHandler(db))
	admin.GET("/usuarios", ListUsuarios(db))
	admin.POST("/usuarios", CreateUsuario(db))
	admin.PUT("/usuarios/:id", UpdateUsuario(db))
	admin.DELETE("/usuarios/:id", DeleteUsuario(db))

	return r
}
