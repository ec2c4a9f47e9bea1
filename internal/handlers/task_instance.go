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

// instanceView — модель плюс вычисляемая просроченность.
type instanceView struct {
	models.TaskInstance
	IsOverdue bool `json:"isOverdue"`
}

func newInstanceView(it models.TaskInstance) instanceView {
	return instanceView{TaskInstance: it, IsOverdue: engine.IsOverdue(&it, time.Now())}
}

func viewInstances(items []models.TaskInstance) []instanceView {
	out := make([]instanceView, 0, len(items))
	for _, it := range items {
		out = append(out, newInstanceView(it))
	}
	return out
}

// ListTaskInstances — GET /task-instances: сквозной список по всем
// кампаниям (вьюха "мои задачи"), фильтр по стандарту транзитивен
// через требования.
func ListTaskInstances(c *gin.Context) {
	var instances []models.TaskInstance
	if err := database.DB.Order("id asc").Find(&instances).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load task instances"})
		return
	}

	filter := query.InstanceFilter{
		Status:         models.InstanceStatus(c.Query("status")),
		Category:       c.Query("category"),
		CampaignID:     parseUintQuery(c, "campaignId"),
		RequirementID:  parseUintQuery(c, "requirementId"),
		StandardID:     parseUintQuery(c, "standardId"),
		OwnerUserID:    parseUintQuery(c, "ownerUserId"),
		AssigneeUserID: parseUintQuery(c, "assigneeUserId"),
		Text:           c.Query("q"),
	}

	var reqStandard map[uint]uint
	if filter.StandardID != 0 {
		var reqs []models.Requirement
		if err := database.DB.Select("id", "standard_id").Find(&reqs).Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load requirements"})
			return
		}
		reqStandard = make(map[uint]uint, len(reqs))
		for _, r := range reqs {
			reqStandard[r.ID] = r.StandardID
		}
	}

	instances = query.FilterInstances(instances, filter, reqStandard)

	if key := c.Query("sort"); key != "" {
		var campaignNames map[uint]string
		if query.SortKey(key) == query.SortByCampaignName {
			var campaigns []models.Campaign
			if err := database.DB.Select("id", "name").Find(&campaigns).Error; err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load campaigns"})
				return
			}
			campaignNames = make(map[uint]string, len(campaigns))
			for _, cp := range campaigns {
				campaignNames[cp.ID] = cp.Name
			}
		}
		instances = query.SortInstances(instances, query.SortKey(key), campaignNames)
	}

	c.JSON(http.StatusOK, viewInstances(instances))
}

func GetTaskInstance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var instance models.TaskInstance
	if err := database.DB.Preload("Evidence").Preload("Comments").
		First(&instance, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task instance not found"})
		return
	}

	c.JSON(http.StatusOK, newInstanceView(instance))
}

type instancePatch struct {
	Status         *string `json:"status"`
	OwnerUserID    *uint   `json:"ownerUserId"`
	AssigneeUserID *uint   `json:"assigneeUserId"`
	DueDate        *string `json:"dueDate"`
}

// PatchTaskInstance — PATCH /task-instances/:id: переход статуса
// и/или частичное обновление назначения.
func PatchTaskInstance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in instancePatch
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := middleware.CurrentUserID(c)

	var instance *models.TaskInstance
	var err error

	if in.Status != nil {
		instance, err = engine.UpdateStatus(c.Request.Context(), id, models.InstanceStatus(*in.Status), userID)
		if err != nil {
			fail(c, err)
			return
		}
	}

	patch := engine.AssignmentPatch{
		OwnerUserID:    in.OwnerUserID,
		AssigneeUserID: in.AssigneeUserID,
	}
	if in.DueDate != nil {
		due, ok := parseDate(*in.DueDate)
		if !ok || due == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueDate"})
			return
		}
		patch.DueDate = due
	}

	if patch.OwnerUserID != nil || patch.AssigneeUserID != nil || patch.DueDate != nil {
		instance, err = engine.UpdateAssignment(c.Request.Context(), id, patch, userID)
		if err != nil {
			fail(c, err)
			return
		}
	}

	if instance == nil {
		// пустой патч — отдаём текущее состояние
		var current models.TaskInstance
		if err := database.DB.First(&current, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "task instance not found"})
			return
		}
		instance = &current
	}

	c.JSON(http.StatusOK, newInstanceView(*instance))
}

type commentInput struct {
	Text string `json:"text"`
}

// AddInstanceComment — POST /task-instances/:id/comments, только добавление.
func AddInstanceComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in commentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := engine.AddComment(c.Request.Context(), id, middleware.CurrentUserID(c), in.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type evidenceInput struct {
	FileRef     string `json:"fileRef"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

// AddInstanceEvidence — POST /task-instances/:id/evidence.
func AddInstanceEvidence(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in evidenceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	evidence, err := engine.AddEvidence(c.Request.Context(), id, engine.EvidenceInput{
		FileRef:     in.FileRef,
		URL:         in.URL,
		Text:        in.Text,
		Description: in.Description,
	}, middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, evidence)
}
