package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"compliance-hub/internal/config"
	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return NewRouter(&config.Config{ServerPort: "0"})
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func TestFullCampaignFlow(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPost, "/standards", gin.H{"name": "PCI DSS", "shortName": "PCI"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var std models.Standard
	decode(t, w, &std)

	// требование без стандарта не создаётся
	w = do(t, r, http.MethodPost, "/requirements", gin.H{"standardId": 9999, "text": "orphan"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/requirements", gin.H{"standardId": std.ID, "text": "Install firewall", "controlIdReference": "1.1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var req models.Requirement
	decode(t, w, &req)

	w = do(t, r, http.MethodPost, "/tasks", gin.H{
		"title":          "Check Firewall",
		"category":       "Network",
		"requirementIds": []uint{req.ID},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var tmpl models.TaskTemplate
	decode(t, w, &tmpl)

	w = do(t, r, http.MethodPost, "/campaigns", gin.H{
		"standardId": std.ID,
		"name":       "Annual audit",
		"startDate":  "2026-01-01",
		"endDate":    "2026-03-31",
		"selectedRequirements": []gin.H{
			{"requirementId": req.ID, "isApplicable": true},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Campaign models.Campaign `json:"campaign"`
		Summary  struct {
			InstancesCreated int `json:"instancesCreated"`
		} `json:"summary"`
	}
	decode(t, w, &created)
	assert.Equal(t, 1, created.Summary.InstancesCreated)
	assert.Equal(t, models.CampaignActive, created.Campaign.Status)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/campaigns/%d/task-instances", created.Campaign.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var instances []models.TaskInstance
	decode(t, w, &instances)
	require.Len(t, instances, 1)
	assert.Equal(t, "Check Firewall", instances[0].Title)

	w = do(t, r, http.MethodPatch, fmt.Sprintf("/task-instances/%d", instances[0].ID),
		gin.H{"status": "In Progress"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/task-instances/%d/comments", instances[0].ID),
		gin.H{"text": "started"}, map[string]string{"X-User-Id": "1"})
	// пользователя с id=1 нет в пустой БД, комментарий требует userId
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// стандарт с зависимостями не удаляется
	w = do(t, r, http.MethodDelete, fmt.Sprintf("/standards/%d", std.ID), nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// неизвестный статус отклоняется до записи
	w = do(t, r, http.MethodPatch, fmt.Sprintf("/task-instances/%d", instances[0].ID),
		gin.H{"status": "Done"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdempotencyKeyReplay(t *testing.T) {
	r := setupRouter(t)

	key := uuid.NewString()
	body := gin.H{"name": "ISO 27001"}

	w := do(t, r, http.MethodPost, "/standards", body, map[string]string{"Idempotency-Key": key})
	require.Equal(t, http.StatusCreated, w.Code)

	w2 := do(t, r, http.MethodPost, "/standards", body, map[string]string{"Idempotency-Key": key})
	require.Equal(t, http.StatusCreated, w2.Code)
	assert.Equal(t, "true", w2.Header().Get("Idempotency-Replayed"))
	assert.JSONEq(t, w.Body.String(), w2.Body.String())

	// второй вызов не создал второй записи
	var n int64
	database.DB.Model(&models.Standard{}).Count(&n)
	assert.EqualValues(t, 1, n)

	w = do(t, r, http.MethodPost, "/standards", body, map[string]string{"Idempotency-Key": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentWithKnownUser(t *testing.T) {
	r := setupRouter(t)

	user := models.User{Username: "auditor@compliance.local"}
	require.NoError(t, database.DB.Create(&user).Error)

	std := models.Standard{Name: "PCI DSS"}
	require.NoError(t, database.DB.Create(&std).Error)
	req := models.Requirement{StandardID: std.ID, Text: "REQ-1", Status: models.RequirementActive}
	require.NoError(t, database.DB.Create(&req).Error)
	campaign := models.Campaign{StandardID: std.ID, Name: "c", Status: models.CampaignActive}
	require.NoError(t, database.DB.Create(&campaign).Error)
	instance := models.TaskInstance{CampaignID: campaign.ID, RequirementID: req.ID, Title: "t", Status: models.InstanceOpen}
	require.NoError(t, database.DB.Create(&instance).Error)

	w := do(t, r, http.MethodPost, fmt.Sprintf("/task-instances/%d/comments", instance.ID),
		gin.H{"text": "looks good"}, map[string]string{"X-User-Id": fmt.Sprint(user.ID)})
	require.Equal(t, http.StatusCreated, w.Code)

	var comment models.Comment
	decode(t, w, &comment)
	assert.Equal(t, user.ID, comment.UserID)
}
