package handlers

import (
	"net/http"
	"strings"

	"compliance-hub/internal/database"
	"compliance-hub/internal/middleware"
	"compliance-hub/internal/models"

	"github.com/gin-gonic/gin"
)

func ListStandards(c *gin.Context) {
	var standards []models.Standard
	if err := database.DB.Order("name asc").Find(&standards).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load standards"})
		return
	}
	c.JSON(http.StatusOK, standards)
}

type standardInput struct {
	Name         string `json:"name"`
	ShortName    string `json:"shortName"`
	Description  string `json:"description"`
	Version      string `json:"version"`
	IssuingBody  string `json:"issuingBody"`
	Jurisdiction string `json:"jurisdiction"`
	Industry     string `json:"industry"`
	OfficialLink string `json:"officialLink"`
}

func CreateStandard(c *gin.Context) {
	var in standardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "standard requires name"})
		return
	}

	std := models.Standard{
		Name:         strings.TrimSpace(in.Name),
		ShortName:    in.ShortName,
		Description:  in.Description,
		Version:      in.Version,
		IssuingBody:  in.IssuingBody,
		Jurisdiction: in.Jurisdiction,
		Industry:     in.Industry,
		OfficialLink: in.OfficialLink,
	}
	if err := database.DB.Create(&std).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to save standard"})
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "standard", std.ID, "create", std.Name)
	c.JSON(http.StatusCreated, std)
}

func GetStandard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var std models.Standard
	if err := database.DB.Preload("Requirements").First(&std, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "standard not found"})
		return
	}
	c.JSON(http.StatusOK, std)
}

type standardPatch struct {
	Name         *string `json:"name"`
	ShortName    *string `json:"shortName"`
	Description  *string `json:"description"`
	Version      *string `json:"version"`
	IssuingBody  *string `json:"issuingBody"`
	Jurisdiction *string `json:"jurisdiction"`
	Industry     *string `json:"industry"`
	OfficialLink *string `json:"officialLink"`
	Retired      *bool   `json:"retired"`
}

// UpdateStandard — частичное обновление: меняются только присланные поля.
func UpdateStandard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var std models.Standard
	if err := database.DB.First(&std, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "standard not found"})
		return
	}

	var in standardPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "standard name cannot be empty"})
			return
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.ShortName != nil {
		updates["short_name"] = *in.ShortName
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Version != nil {
		updates["version"] = *in.Version
	}
	if in.IssuingBody != nil {
		updates["issuing_body"] = *in.IssuingBody
	}
	if in.Jurisdiction != nil {
		updates["jurisdiction"] = *in.Jurisdiction
	}
	if in.Industry != nil {
		updates["industry"] = *in.Industry
	}
	if in.Retired != nil {
		updates["retired"] = *in.Retired
	}
	if in.OfficialLink != nil {
		updates["official_link"] = *in.OfficialLink
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&std).Updates(updates).Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to update standard"})
			return
		}
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "standard", std.ID, "update", "")
	c.JSON(http.StatusOK, std)
}

// DeleteStandard: стандарт с требованиями или кампаниями не удаляется —
// только soft-retire через PUT {retired: true}.
func DeleteStandard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var std models.Standard
	if err := database.DB.First(&std, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "standard not found"})
		return
	}

	var reqCount, campCount int64
	database.DB.Model(&models.Requirement{}).Where("standard_id = ?", id).Count(&reqCount)
	database.DB.Model(&models.Campaign{}).Where("standard_id = ?", id).Count(&campCount)
	if reqCount > 0 || campCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "standard is referenced, retire it instead of deleting"})
		return
	}

	if err := database.DB.Delete(&models.Standard{}, id).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to delete standard"})
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "standard", id, "delete", "")
	c.Status(http.StatusNoContent)
}
