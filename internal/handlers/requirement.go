package handlers

import (
	"net/http"
	"strings"

	"compliance-hub/internal/database"
	"compliance-hub/internal/middleware"
	"compliance-hub/internal/models"

	"github.com/gin-gonic/gin"
)

func ListRequirements(c *gin.Context) {
	q := database.DB.Order("id asc")
	if sid := parseUintQuery(c, "standardId"); sid != 0 {
		q = q.Where("standard_id = ?", sid)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var reqs []models.Requirement
	if err := q.Find(&reqs).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load requirements"})
		return
	}
	c.JSON(http.StatusOK, reqs)
}

type requirementInput struct {
	StandardID         uint   `json:"standardId"`
	ControlIDReference string `json:"controlIdReference"`
	Text               string `json:"text"`
	Priority           string `json:"priority"`
	Status             string `json:"status"`
	Version            string `json:"version"`
}

func CreateRequirement(c *gin.Context) {
	var in requirementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(in.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requirement requires text"})
		return
	}
	if in.StandardID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requirement requires standardId"})
		return
	}

	// требование не живёт без стандарта
	var std models.Standard
	if err := database.DB.First(&std, in.StandardID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "standard not found"})
		return
	}

	status := models.RequirementStatus(in.Status)
	switch status {
	case "":
		status = models.RequirementActive
	case models.RequirementActive, models.RequirementDeprecated, models.RequirementPending:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requirement status"})
		return
	}

	req := models.Requirement{
		StandardID:         in.StandardID,
		ControlIDReference: in.ControlIDReference,
		Text:               in.Text,
		Priority:           in.Priority,
		Status:             status,
		Version:            in.Version,
	}
	if err := database.DB.Create(&req).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to save requirement"})
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "requirement", req.ID, "create", req.ControlIDReference)
	c.JSON(http.StatusCreated, req)
}

func GetRequirement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.Requirement
	if err := database.DB.Preload("Standard").First(&req, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "requirement not found"})
		return
	}

	// привязанные мастер-задачи и риски
	var taskLinks []models.TaskRequirement
	database.DB.Where("requirement_id = ?", id).Order("task_template_id asc").Find(&taskLinks)
	taskIDs := make([]uint, 0, len(taskLinks))
	for _, l := range taskLinks {
		taskIDs = append(taskIDs, l.TaskTemplateID)
	}

	var riskLinks []models.RequirementRisk
	database.DB.Where("requirement_id = ?", id).Order("risk_id asc").Find(&riskLinks)
	riskIDs := make([]uint, 0, len(riskLinks))
	for _, l := range riskLinks {
		riskIDs = append(riskIDs, l.RiskID)
	}

	c.JSON(http.StatusOK, gin.H{
		"requirement":     req,
		"taskTemplateIds": taskIDs,
		"riskIds":         riskIDs,
	})
}

type requirementPatch struct {
	ControlIDReference *string `json:"controlIdReference"`
	Text               *string `json:"text"`
	Priority           *string `json:"priority"`
	Status             *string `json:"status"`
	Version            *string `json:"version"`
}

func UpdateRequirement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.Requirement
	if err := database.DB.First(&req, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "requirement not found"})
		return
	}

	var in requirementPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if in.Text != nil {
		if strings.TrimSpace(*in.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "requirement text cannot be empty"})
			return
		}
		updates["text"] = *in.Text
	}
	if in.ControlIDReference != nil {
		updates["control_id_reference"] = *in.ControlIDReference
	}
	if in.Priority != nil {
		updates["priority"] = *in.Priority
	}
	if in.Version != nil {
		updates["version"] = *in.Version
	}
	if in.Status != nil {
		switch models.RequirementStatus(*in.Status) {
		case models.RequirementActive, models.RequirementDeprecated, models.RequirementPending:
			updates["status"] = *in.Status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requirement status"})
			return
		}
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&req).Updates(updates).Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to update requirement"})
			return
		}
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "requirement", req.ID, "update", "")
	c.JSON(http.StatusOK, req)
}

// DeleteRequirement: требование с привязками или экземплярами задач
// не удаляется каскадом — это конфликт.
func DeleteRequirement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.Requirement
	if err := database.DB.First(&req, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "requirement not found"})
		return
	}

	var linkCount, instanceCount int64
	database.DB.Model(&models.TaskRequirement{}).Where("requirement_id = ?", id).Count(&linkCount)
	database.DB.Model(&models.TaskInstance{}).Where("requirement_id = ?", id).Count(&instanceCount)
	if linkCount > 0 || instanceCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "requirement is referenced by tasks or instances"})
		return
	}

	if err := database.DB.Delete(&models.Requirement{}, id).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to delete requirement"})
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "requirement", id, "delete", "")
	c.Status(http.StatusNoContent)
}
