package handlers

import (
	"net/http"
	"strings"

	"compliance-hub/internal/database"
	"compliance-hub/internal/middleware"
	"compliance-hub/internal/models"

	"github.com/gin-gonic/gin"
)

func ListDocuments(c *gin.Context) {
	var docs []models.Document
	if err := database.DB.Order("title asc").Find(&docs).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load documents"})
		return
	}
	c.JSON(http.StatusOK, docs)
}

type documentInput struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	FileRef     string `json:"fileRef"`
	Description string `json:"description"`
}

func CreateDocument(c *gin.Context) {
	var in documentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document requires title"})
		return
	}

	doc := models.Document{
		Title:       in.Title,
		URL:         in.URL,
		FileRef:     in.FileRef,
		Description: in.Description,
	}
	if err := database.DB.Create(&doc).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to save document"})
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "document", doc.ID, "create", doc.Title)
	c.JSON(http.StatusCreated, doc)
}
