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

func ListRisks(c *gin.Context) {
	q := database.DB.Order("id asc")
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var risks []models.Risk
	if err := q.Find(&risks).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load risks"})
		return
	}
	c.JSON(http.StatusOK, risks)
}

type riskInput struct {
	RiskID         string `json:"riskId"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	Likelihood     string `json:"likelihood"`
	Impact         string `json:"impact"`
	Status         string `json:"status"`
	OwnerUserID    uint   `json:"ownerUserId"`
	RequirementIDs []uint `json:"requirementIds"`
}

func CreateRisk(c *gin.Context) {
	var in riskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "risk requires title"})
		return
	}

	for _, level := range []string{in.Likelihood, in.Impact} {
		switch level {
		case "", "low", "medium", "high":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "likelihood/impact must be low, medium or high"})
			return
		}
	}

	for _, reqID := range in.RequirementIDs {
		var req models.Requirement
		if err := database.DB.First(&req, reqID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "requirement not found"})
			return
		}
	}

	risk := models.Risk{
		RiskID:      in.RiskID,
		Title:       in.Title,
		Category:    in.Category,
		Likelihood:  in.Likelihood,
		Impact:      in.Impact,
		Status:      in.Status,
		OwnerUserID: in.OwnerUserID,
	}
	if err := database.DB.Create(&risk).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to save risk"})
		return
	}

	if len(in.RequirementIDs) > 0 {
		if _, err := engine.LinkRiskToRequirements(c.Request.Context(), risk.ID, in.RequirementIDs); err != nil {
			fail(c, err)
			return
		}
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "risk", risk.ID, "create", risk.Title)
	c.JSON(http.StatusCreated, risk)
}

type riskPatch struct {
	RiskID      *string `json:"riskId"`
	Title       *string `json:"title"`
	Category    *string `json:"category"`
	Likelihood  *string `json:"likelihood"`
	Impact      *string `json:"impact"`
	Status      *string `json:"status"`
	OwnerUserID *uint   `json:"ownerUserId"`
}

func UpdateRisk(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var risk models.Risk
	if err := database.DB.First(&risk, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "risk not found"})
		return
	}

	var in riskPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if in.RiskID != nil {
		updates["risk_id"] = *in.RiskID
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "risk title cannot be empty"})
			return
		}
		updates["title"] = *in.Title
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.Likelihood != nil {
		updates["likelihood"] = *in.Likelihood
	}
	if in.Impact != nil {
		updates["impact"] = *in.Impact
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.OwnerUserID != nil {
		updates["owner_user_id"] = *in.OwnerUserID
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&risk).Updates(updates).Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to update risk"})
			return
		}
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "risk", risk.ID, "update", "")
	c.JSON(http.StatusOK, risk)
}

// LinkRiskRequirements — POST /risks/:id/requirements
func LinkRiskRequirements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in linkInput
	if err := c.ShouldBindJSON(&in); err != nil || len(in.RequirementIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requirementIds are required"})
		return
	}

	result, err := engine.LinkRiskToRequirements(c.Request.Context(), id, in.RequirementIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
