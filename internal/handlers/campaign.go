package handlers

import (
	"net/http"
	"time"

	"compliance-hub/internal/database"
	"compliance-hub/internal/engine"
	"compliance-hub/internal/middleware"
	"compliance-hub/internal/models"
	"compliance-hub/internal/query"

	"github.com/gin-gonic/gin"
)

// parseDate принимает "2006-01-02" (так шлёт UI) или RFC3339.
func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, true
	}
	return nil, false
}

type campaignInput struct {
	StandardID           uint                          `json:"standardId"`
	Name                 string                        `json:"name"`
	Description          string                        `json:"description"`
	StartDate            string                        `json:"startDate"`
	EndDate              string                        `json:"endDate"`
	SelectedRequirements []engine.RequirementSelection `json:"selectedRequirements"`
}

// CreateCampaign — POST /campaigns. Возвращает кампанию и сводку
// инстанцирования.
func CreateCampaign(c *gin.Context) {
	var in campaignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start, ok := parseDate(in.StartDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate"})
		return
	}
	end, ok := parseDate(in.EndDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate"})
		return
	}

	campaign, summary, err := engine.CreateCampaign(c.Request.Context(), engine.CreateCampaignInput{
		StandardID:  in.StandardID,
		Name:        in.Name,
		Description: in.Description,
		StartDate:   start,
		EndDate:     end,
		Selections:  in.SelectedRequirements,
		UserID:      middleware.CurrentUserID(c),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"campaign": campaign,
		"summary":  summary,
	})
}

func ListCampaigns(c *gin.Context) {
	q := database.DB.Order("id desc")
	if sid := parseUintQuery(c, "standardId"); sid != 0 {
		q = q.Where("standard_id = ?", sid)
	}

	var campaigns []models.Campaign
	if err := q.Find(&campaigns).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load campaigns"})
		return
	}

	// статус Completed выводится лениво на чтении
	for i := range campaigns {
		if err := engine.RefreshCampaignStatus(c.Request.Context(), &campaigns[i]); err != nil {
			fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, campaigns)
}

func GetCampaign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var campaign models.Campaign
	if err := database.DB.Preload("Selections").Preload("Standard").
		First(&campaign, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return
	}

	if err := engine.RefreshCampaignStatus(c.Request.Context(), &campaign); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// CloseCampaign — POST /campaigns/:id/close, явное закрытие оператором.
func CloseCampaign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	campaign, err := engine.CloseCampaign(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// ListCampaignInstances — GET /campaigns/:id/task-instances с фильтрами,
// группировкой и сортировкой из read-side модуля.
func ListCampaignInstances(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var campaign models.Campaign
	if err := database.DB.First(&campaign, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return
	}

	var instances []models.TaskInstance
	if err := database.DB.Where("campaign_id = ?", id).
		Order("id asc").Find(&instances).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load task instances"})
		return
	}

	filter := query.InstanceFilter{
		Status:         models.InstanceStatus(c.Query("status")),
		Category:       c.Query("category"),
		OwnerUserID:    parseUintQuery(c, "ownerUserId"),
		AssigneeUserID: parseUintQuery(c, "assigneeUserId"),
		RequirementID:  parseUintQuery(c, "requirementId"),
		Text:           c.Query("q"),
	}
	instances = query.FilterInstances(instances, filter, nil)

	if key := c.Query("sort"); key != "" {
		instances = query.SortInstances(instances, query.SortKey(key), nil)
	}

	switch c.Query("groupBy") {
	case "category":
		grouped := map[string][]instanceView{}
		for k, v := range query.GroupByCategory(instances) {
			grouped[k] = viewInstances(v)
		}
		c.JSON(http.StatusOK, grouped)
	case "status":
		grouped := map[models.InstanceStatus][]instanceView{}
		for k, v := range query.GroupByStatus(instances) {
			grouped[k] = viewInstances(v)
		}
		c.JSON(http.StatusOK, grouped)
	default:
		c.JSON(http.StatusOK, viewInstances(instances))
	}
}

type adHocInput struct {
	RequirementID  uint   `json:"requirementId"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	OwnerUserID    uint   `json:"ownerUserId"`
	AssigneeUserID uint   `json:"assigneeUserId"`
	DueDate        string `json:"dueDate"`
}

// CreateCampaignInstance — POST /campaigns/:id/task-instances,
// ручная задача без шаблона.
func CreateCampaignInstance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in adHocInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	due, ok := parseDate(in.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueDate"})
		return
	}

	instance, err := engine.CreateAdHocInstance(c.Request.Context(), id, engine.AdHocInstanceInput{
		RequirementID:  in.RequirementID,
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		OwnerUserID:    in.OwnerUserID,
		AssigneeUserID: in.AssigneeUserID,
		DueDate:        due,
		UserID:         middleware.CurrentUserID(c),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, newInstanceView(*instance))
}
