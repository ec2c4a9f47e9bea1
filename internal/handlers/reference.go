package handlers

import (
	"net/http"

	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"github.com/gin-gonic/gin"
)

// Справочные ручки: пользователи, команды, журнал аудита.

func ListUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("username asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func ListTeams(c *gin.Context) {
	var teams []models.Team
	if err := database.DB.Preload("Members").Order("name asc").Find(&teams).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load teams"})
		return
	}
	c.JSON(http.StatusOK, teams)
}

func ListAuditLogs(c *gin.Context) {
	var logs []models.AuditLog
	if err := database.DB.
		Preload("User").
		Order("created_at desc").
		Limit(200).
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load audit log"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
