package server

import (
	"net/http"

	"compliance-hub/internal/config"
	"compliance-hub/internal/handlers"
	"compliance-hub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.InjectUser())
	r.Use(middleware.Idempotency())

	// СТАНДАРТЫ
	r.GET("/standards", handlers.ListStandards)
	r.POST("/standards", handlers.CreateStandard)
	r.GET("/standards/:id", handlers.GetStandard)
	r.PUT("/standards/:id", handlers.UpdateStandard)
	r.DELETE("/standards/:id", handlers.DeleteStandard)

	// ТРЕБОВАНИЯ
	r.GET("/requirements", handlers.ListRequirements)
	r.POST("/requirements", handlers.CreateRequirement)
	r.GET("/requirements/:id", handlers.GetRequirement)
	r.PUT("/requirements/:id", handlers.UpdateRequirement)
	r.DELETE("/requirements/:id", handlers.DeleteRequirement)

	// МАСТЕР-ЗАДАЧИ И ПРИВЯЗКИ
	r.GET("/tasks", handlers.ListTaskTemplates)
	r.POST("/tasks", handlers.CreateTaskTemplate)
	r.GET("/tasks/:id", handlers.GetTaskTemplate)
	r.PUT("/tasks/:id", handlers.UpdateTaskTemplate)
	r.DELETE("/tasks/:id", handlers.DeleteTaskTemplate)
	r.POST("/tasks/:id/link", handlers.LinkTask)
	r.POST("/tasks/:id/unlink", handlers.UnlinkTask)
	r.POST("/tasks/:id/documents", handlers.LinkTaskDocuments)

	// РИСКИ
	r.GET("/risks", handlers.ListRisks)
	r.POST("/risks", handlers.CreateRisk)
	r.PUT("/risks/:id", handlers.UpdateRisk)
	r.POST("/risks/:id/requirements", handlers.LinkRiskRequirements)

	// ДОКУМЕНТЫ
	r.GET("/documents", handlers.ListDocuments)
	r.POST("/documents", handlers.CreateDocument)

	// КАМПАНИИ
	r.GET("/campaigns", handlers.ListCampaigns)
	r.POST("/campaigns", handlers.CreateCampaign)
	r.GET("/campaigns/:id", handlers.GetCampaign)
	r.POST("/campaigns/:id/close", handlers.CloseCampaign)
	r.GET("/campaigns/:id/task-instances", handlers.ListCampaignInstances)
	r.POST("/campaigns/:id/task-instances", handlers.CreateCampaignInstance)

	// ЭКЗЕМПЛЯРЫ ЗАДАЧ
	r.GET("/task-instances", handlers.ListTaskInstances)
	r.GET("/task-instances/:id", handlers.GetTaskInstance)
	r.PATCH("/task-instances/:id", handlers.PatchTaskInstance)
	r.POST("/task-instances/:id/comments", handlers.AddInstanceComment)
	r.POST("/task-instances/:id/evidence", handlers.AddInstanceEvidence)

	// СПРАВОЧНИКИ И АУДИТ
	r.GET("/users", handlers.ListUsers)
	r.GET("/teams", handlers.ListTeams)
	r.GET("/audit", handlers.ListAuditLogs)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
