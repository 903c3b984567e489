package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"split-bill/internal/domain"
	"split-bill/internal/models"
	"split-bill/internal/service"
)

// GetActor extracts the authenticated actor placed into the context by the
// auth middleware.
func GetActor(c *gin.Context) (service.Actor, error) {
	userIDRaw, exists := c.Get("user_id")
	if !exists {
		return service.Actor{}, fmt.Errorf("user_id not found in context")
	}
	userID, ok := userIDRaw.(uint)
	if !ok {
		return service.Actor{}, fmt.Errorf("invalid user_id type in context")
	}
	superuser, _ := c.Get("is_superuser")
	isSuper, _ := superuser.(bool)
	return service.Actor{UserID: userID, Superuser: isSuper}, nil
}

// respondError maps a service error onto an HTTP status. Domain errors keep
// their message; anything else is logged and surfaced as a generic failure.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case domain.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error("unexpected error", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an unexpected error occurred"})
	}
}

func parseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 64)
	return uint(id)
}

func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"uid": user.ID,
			"exp": time.Now().Add(24 * time.Hour).Unix(),
		})

		tokenString, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": tokenString})
	}
}

func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
			return
		}

		var existing models.User
		if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}

		email := req.Email
		user := models.User{
			Name:     req.Name,
			Email:    &email,
			Password: string(hashedPassword),
		}

		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "registration successful", "user_id": user.ID})
	}
}

func GetUserByEmail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")

		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

func CreateGroup(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		group, err := svc.CreateGroup(actor, input.Name)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, group)
	}
}

func GetGroup(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		group, err := svc.GetGroup(actor, parseUint(c.Param("id")))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, group)
	}
}

func ListGroups(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		groups, err := svc.ListGroups(actor)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, groups)
	}
}

func UpdateGroup(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Bound as a raw map so the service can reject any field outside
		// the allow-list, not just ignore it.
		var fields map[string]any
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		group, err := svc.UpdateGroup(actor, parseUint(c.Param("id")), fields)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, group)
	}
}

func DeleteGroup(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := svc.DeleteGroup(actor, parseUint(c.Param("id"))); err != nil {
			respondError(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func AddMember(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input struct {
			GroupID      uint `json:"group_id" binding:"required"`
			MemberUserID uint `json:"member_user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.AddMember(actor, input.GroupID, input.MemberUserID); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "member added successfully"})
	}
}

func RemoveMember(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		groupID := parseUint(c.Param("id"))
		memberID := parseUint(c.Param("memberId"))
		if err := svc.RemoveMember(actor, groupID, memberID); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "member removed successfully"})
	}
}

func CreateExpense(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input struct {
			Group  uint   `json:"group" binding:"required"`
			Title  string `json:"title" binding:"required"`
			PaidBy *uint  `json:"paid_by"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		expense, err := svc.CreateExpense(actor, input.Group, input.Title, input.PaidBy)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, expense)
	}
}

func ListGroupExpenses(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		expenses, err := svc.ListExpenses(actor, parseUint(c.Param("id")))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, expenses)
	}
}

func GetExpense(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		expense, err := svc.GetExpense(actor, parseUint(c.Param("id")))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

func DeleteExpense(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := svc.DeleteExpense(actor, parseUint(c.Param("id"))); err != nil {
			respondError(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func CreateItem(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input struct {
			Name  string `json:"name" binding:"required"`
			Price *int64 `json:"price" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item, err := svc.CreateItem(actor, parseUint(c.Param("id")), input.Name, *input.Price)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func UpdateItem(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input struct {
			Name  *string `json:"name"`
			Price *int64  `json:"price"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item, err := svc.UpdateItem(actor, parseUint(c.Param("id")), service.ItemUpdate{
			Name:  input.Name,
			Price: input.Price,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func DeleteItem(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := svc.DeleteItem(actor, parseUint(c.Param("id"))); err != nil {
			respondError(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func SetItemShares(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input struct {
			UserIDs []uint `json:"user_ids"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.SetShares(actor, parseUint(c.Param("id")), input.UserIDs); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "item shares updated successfully"})
	}
}

func GetItemShares(svc *service.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		shares, err := svc.GetShares(actor, parseUint(c.Param("id")))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, shares)
	}
}
