package handlers

import (
	"net/http"
	"strings"

	"compliance-hub/internal/database"
	"compliance-hub/internal/engine"
	"compliance-hub/internal/middleware"
	"compliance-hub/internal/models"

	"github.com/gin-gonic/gin"
)

func ListTaskTemplates(c *gin.Context) {
	q := database.DB.Order("id asc")
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	var tasks []models.TaskTemplate
	if err := q.Find(&tasks).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load task templates"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

type taskTemplateInput struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Category              string   `json:"category"`
	DefaultPriority       string   `json:"defaultPriority"`
	HighLevelCheck        string   `json:"highLevelCheckType"`
	CheckType             string   `json:"checkType"`
	CheckTarget           string   `json:"checkTarget"`
	CheckParameters       string   `json:"checkParameters"`
	EvidenceTypesExpected []string `json:"evidenceTypesExpected"`
	RequirementIDs        []uint   `json:"requirementIds"`
}

func CreateTaskTemplate(c *gin.Context) {
	var in taskTemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task template requires title"})
		return
	}

	switch models.CheckLevel(in.HighLevelCheck) {
	case "", models.CheckManual, models.CheckAutomated, models.CheckDocument, models.CheckInterview:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid highLevelCheckType"})
		return
	}

	// все requirementIds обязаны резолвиться ещё до записи
	for _, reqID := range in.RequirementIDs {
		var req models.Requirement
		if err := database.DB.First(&req, reqID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "requirement not found"})
			return
		}
	}

	task := models.TaskTemplate{
		Title:                 in.Title,
		Description:           in.Description,
		Category:              in.Category,
		DefaultPriority:       in.DefaultPriority,
		HighLevelCheck:        models.CheckLevel(in.HighLevelCheck),
		CheckType:             in.CheckType,
		CheckTarget:           in.CheckTarget,
		CheckParameters:       in.CheckParameters,
		EvidenceTypesExpected: in.EvidenceTypesExpected,
	}
	if err := database.DB.Create(&task).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to save task template"})
		return
	}

	if len(in.RequirementIDs) > 0 {
		if _, err := engine.LinkTaskToRequirements(c.Request.Context(), task.ID, in.RequirementIDs); err != nil {
			fail(c, err)
			return
		}
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "task_template", task.ID, "create", task.Title)
	c.JSON(http.StatusCreated, task)
}

func GetTaskTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var task models.TaskTemplate
	if err := database.DB.First(&task, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task template not found"})
		return
	}

	var reqLinks []models.TaskRequirement
	database.DB.Where("task_template_id = ?", id).Order("requirement_id asc").Find(&reqLinks)
	reqIDs := make([]uint, 0, len(reqLinks))
	for _, l := range reqLinks {
		reqIDs = append(reqIDs, l.RequirementID)
	}

	var docLinks []models.TaskDocument
	database.DB.Where("task_template_id = ?", id).Order("document_id asc").Find(&docLinks)
	docIDs := make([]uint, 0, len(docLinks))
	for _, l := range docLinks {
		docIDs = append(docIDs, l.DocumentID)
	}

	c.JSON(http.StatusOK, gin.H{
		"taskTemplate":   task,
		"requirementIds": reqIDs,
		"documentIds":    docIDs,
	})
}

type taskTemplatePatch struct {
	Title                 *string   `json:"title"`
	Description           *string   `json:"description"`
	Category              *string   `json:"category"`
	DefaultPriority       *string   `json:"defaultPriority"`
	HighLevelCheck        *string   `json:"highLevelCheckType"`
	CheckType             *string   `json:"checkType"`
	CheckTarget           *string   `json:"checkTarget"`
	CheckParameters       *string   `json:"checkParameters"`
	EvidenceTypesExpected *[]string `json:"evidenceTypesExpected"`
}

// UpdateTaskTemplate правит шаблон. Уже созданные экземпляры несут
// снимок и не меняются.
func UpdateTaskTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var task models.TaskTemplate
	if err := database.DB.First(&task, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task template not found"})
		return
	}

	var in taskTemplatePatch
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "task template title cannot be empty"})
			return
		}
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.DefaultPriority != nil {
		updates["default_priority"] = *in.DefaultPriority
	}
	if in.HighLevelCheck != nil {
		switch models.CheckLevel(*in.HighLevelCheck) {
		case models.CheckManual, models.CheckAutomated, models.CheckDocument, models.CheckInterview:
			updates["high_level_check"] = *in.HighLevelCheck
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid highLevelCheckType"})
			return
		}
	}
	if in.CheckType != nil {
		updates["check_type"] = *in.CheckType
	}
	if in.CheckTarget != nil {
		updates["check_target"] = *in.CheckTarget
	}
	if in.CheckParameters != nil {
		updates["check_parameters"] = *in.CheckParameters
	}
	if in.EvidenceTypesExpected != nil {
		updates["evidence_types_expected"] = models.StringList(*in.EvidenceTypesExpected)
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&task).Updates(updates).Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to update task template"})
			return
		}
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "task_template", task.ID, "update", "")
	c.JSON(http.StatusOK, task)
}

// DeleteTaskTemplate: шаблон с экземплярами не удаляется,
// строки связей каскадируются.
func DeleteTaskTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var task models.TaskTemplate
	if err := database.DB.First(&task, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task template not found"})
		return
	}

	var instanceCount int64
	database.DB.Model(&models.TaskInstance{}).Where("task_template_id = ?", id).Count(&instanceCount)
	if instanceCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "task template has instantiated tasks"})
		return
	}

	database.DB.Where("task_template_id = ?", id).Delete(&models.TaskRequirement{})
	database.DB.Where("task_template_id = ?", id).Delete(&models.TaskDocument{})
	if err := database.DB.Delete(&models.TaskTemplate{}, id).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to delete task template"})
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "task_template", id, "delete", "")
	c.Status(http.StatusNoContent)
}

type linkInput struct {
	RequirementIDs []uint `json:"requirementIds"`
}

// LinkTask — POST /tasks/:id/link
func LinkTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in linkInput
	if err := c.ShouldBindJSON(&in); err != nil || len(in.RequirementIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requirementIds are required"})
		return
	}

	result, err := engine.LinkTaskToRequirements(c.Request.Context(), id, in.RequirementIDs)
	if err != nil {
		fail(c, err)
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "task_template", id, "link", "")
	c.JSON(http.StatusOK, result)
}

// UnlinkTask — POST /tasks/:id/unlink
func UnlinkTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in linkInput
	if err := c.ShouldBindJSON(&in); err != nil || len(in.RequirementIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requirementIds are required"})
		return
	}

	result, err := engine.UnlinkTaskFromRequirements(c.Request.Context(), id, in.RequirementIDs)
	if err != nil {
		fail(c, err)
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "task_template", id, "unlink", "")
	c.JSON(http.StatusOK, result)
}

type documentLinkInput struct {
	DocumentIDs []uint `json:"documentIds"`
}

// LinkTaskDocuments — POST /tasks/:id/documents
func LinkTaskDocuments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in documentLinkInput
	if err := c.ShouldBindJSON(&in); err != nil || len(in.DocumentIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentIds are required"})
		return
	}

	result, err := engine.LinkTaskToDocuments(c.Request.Context(), id, in.DocumentIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
