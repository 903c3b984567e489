package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"split-bill/internal/controllers"
	"split-bill/internal/service"
)

// SetupRoutes registers all authenticated domain routes.
func SetupRoutes(r gin.IRouter, svc *service.Service, db *gorm.DB, log *slog.Logger) {
	r.GET("/users/by-email", controllers.GetUserByEmail(db))

	r.POST("/groups", controllers.CreateGroup(svc, log))
	r.GET("/groups", controllers.ListGroups(svc, log))
	r.GET("/groups/:id", controllers.GetGroup(svc, log))
	r.PUT("/groups/:id", controllers.UpdateGroup(svc, log))
	r.DELETE("/groups/:id", controllers.DeleteGroup(svc, log))

	r.POST("/group-member", controllers.AddMember(svc, log))
	r.DELETE("/groups/:id/members/:memberId", controllers.RemoveMember(svc, log))

	r.POST("/expenses", controllers.CreateExpense(svc, log))
	r.GET("/groups/:id/expenses", controllers.ListGroupExpenses(svc, log))
	r.GET("/expenses/:id", controllers.GetExpense(svc, log))
	r.DELETE("/expenses/:id", controllers.DeleteExpense(svc, log))

	r.POST("/expenses/:id/items", controllers.CreateItem(svc, log))
	r.PUT("/items/:id", controllers.UpdateItem(svc, log))
	r.DELETE("/items/:id", controllers.DeleteItem(svc, log))

	r.POST("/items/:id/shares", controllers.SetItemShares(svc, log))
	r.GET("/items/:id/shares", controllers.GetItemShares(svc, log))
}
