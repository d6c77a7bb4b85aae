package internal

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type usuarioRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=50,alphanum"`
	Password string `json:"password" binding:"omitempty,min=6"`
	Nome     string `json:"nome" binding:"max=150"`
	Role     string `json:"role" binding:"omitempty,oneof=admin usuario"`
	Ativo    *bool  `json:"ativo"`
}

// GarantirAdmin cria o primeiro administrador quando não há usuários
func GarantirAdmin(ctx context.Context, db *gorm.DB, username, senha string) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&Usuario{}).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 || username == "" || senha == "" {
		return false, nil
	}
	hash, err := HashSenha(senha)
	if err != nil {
		return false, err
	}
	admin := Usuario{Username: username, PasswordHash: hash, Nome: "Administrador", Role: RoleAdmin, Ativo: true}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return false, err
	}
	return true, nil
}

// outroAdminAtivo trava os admins ativos e diz se resta algum além de id
func outroAdminAtivo(tx *gorm.DB, id uint) (bool, error) {
	var ids []uint
	err := tx.Model(&Usuario{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ? AND ativo = ? AND id <> ?", RoleAdmin, true, id).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}

func ListUsuarios(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var usuarios []Usuario
		if err := db.WithContext(c.Request.Context()).Order("username").Find(&usuarios).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, usuarios)
	}
}

func CreateUsuario(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usuarioRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.Username == "" || req.Password == "" || strings.TrimSpace(req.Nome) == "" {
			respondErr(c, badRequest("username, password e nome são obrigatórios"))
			return
		}
		hash, err := HashSenha(req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		u := Usuario{
			Username:     req.Username,
			PasswordHash: hash,
			Nome:         strings.TrimSpace(req.Nome),
			Role:         RoleUsuario,
			Ativo:        true,
		}
		if req.Role != "" {
			u.Role = req.Role
		}
		if req.Ativo != nil {
			u.Ativo = *req.Ativo
		}
		if err := db.WithContext(c.Request.Context()).Create(&u).Error; err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

// UpdateUsuario altera nome, papel, situação e senha; não deixa o sistema sem admin ativo
func UpdateUsuario(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req usuarioRequest
		if !bindJSON(c, &req) {
			return
		}
		var hash string
		if req.Password != "" {
			var err error
			if hash, err = HashSenha(req.Password); err != nil {
				respondErr(c, err)
				return
			}
		}

		var u Usuario
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
				return err
			}
			eraAdminAtivo := u.Role == RoleAdmin && u.Ativo
			if req.Username != "" {
				u.Username = req.Username
			}
			if nome := strings.TrimSpace(req.Nome); nome != "" {
				u.Nome = nome
			}
			if req.Role != "" {
				u.Role = req.Role
			}
			if req.Ativo != nil {
				u.Ativo = *req.Ativo
			}
			if hash != "" {
				u.PasswordHash = hash
			}
			if eraAdminAtivo && !(u.Role == RoleAdmin && u.Ativo) {
				ok, err := outroAdminAtivo(tx, u.ID)
				if err != nil {
					return err
				}
				if !ok {
					return ErrUltimoAdmin
				}
			}
			return tx.Save(&u).Error
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func DeleteUsuario(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var u Usuario
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
				return err
			}
			if u.Role == RoleAdmin && u.Ativo {
				ok, err := outroAdminAtivo(tx, u.ID)
				if err != nil {
					return err
				}
				if !ok {
					return ErrUltimoAdmin
				}
			}
			return tx.Delete(&Usuario{}, id).Error
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
