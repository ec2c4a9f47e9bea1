package engine

import (
	"context"
	"testing"
	"time"

	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInstance(t *testing.T, status models.InstanceStatus) models.TaskInstance {
	t.Helper()

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ")
	campaign := models.Campaign{StandardID: std.ID, Name: "c", Status: models.CampaignActive}
	require.NoError(t, database.DB.Create(&campaign).Error)

	instance := models.TaskInstance{
		CampaignID:    campaign.ID,
		RequirementID: req.ID,
		Title:         "Check something",
		Status:        status,
	}
	require.NoError(t, database.DB.Create(&instance).Error)
	return instance
}

func TestUpdateStatusTransitions(t *testing.T) {
	setupDB(t)
	instance := mustInstance(t, models.InstanceOpen)

	for _, status := range []models.InstanceStatus{
		models.InstanceInProgress,
		models.InstancePendingReview,
		models.InstanceClosed,
	} {
		got, err := UpdateStatus(context.Background(), instance.ID, status, 1)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	// возврат из терминального статуса разрешён (переоткрытие)
	got, err := UpdateStatus(context.Background(), instance.ID, models.InstanceOpen, 1)
	require.NoError(t, err)
	assert.Equal(t, models.InstanceOpen, got.Status)
}

func TestUpdateStatusNoOp(t *testing.T) {
	setupDB(t)
	instance := mustInstance(t, models.InstanceInProgress)

	var before models.TaskInstance
	require.NoError(t, database.DB.First(&before, instance.ID).Error)

	got, err := UpdateStatus(context.Background(), instance.ID, models.InstanceInProgress, 1)
	require.NoError(t, err)
	assert.Equal(t, models.InstanceInProgress, got.Status)

	// настоящий no-op: запись не тронута, побочных записей в аудите нет
	var after models.TaskInstance
	require.NoError(t, database.DB.First(&after, instance.ID).Error)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	var audits int64
	database.DB.Model(&models.AuditLog{}).Where("action = ?", "status_change").Count(&audits)
	assert.EqualValues(t, 0, audits)
}

func TestUpdateStatusErrors(t *testing.T) {
	setupDB(t)
	instance := mustInstance(t, models.InstanceOpen)

	_, err := UpdateStatus(context.Background(), instance.ID, "Done", 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = UpdateStatus(context.Background(), 9999, models.InstanceClosed, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAssignmentPartial(t *testing.T) {
	setupDB(t)
	instance := mustInstance(t, models.InstanceOpen)

	owner := uint(7)
	got, err := UpdateAssignment(context.Background(), instance.ID, AssignmentPatch{OwnerUserID: &owner}, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.OwnerUserID)
	// незатронутые поля не меняются
	assert.EqualValues(t, 0, got.AssigneeUserID)

	due := time.Now().AddDate(0, 0, 14)
	got, err = UpdateAssignment(context.Background(), instance.ID, AssignmentPatch{DueDate: &due}, 1)
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.EqualValues(t, 7, got.OwnerUserID)
}

func TestAddEvidenceAndComments(t *testing.T) {
	setupDB(t)
	instance := mustInstance(t, models.InstanceInProgress)

	_, err := AddEvidence(context.Background(), instance.ID, EvidenceInput{}, 1)
	assert.ErrorIs(t, err, ErrValidation)

	ev, err := AddEvidence(context.Background(), instance.ID, EvidenceInput{
		URL:         "https://wiki/firewall-config",
		Description: "экспорт конфигурации",
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, instance.ID, ev.TaskInstanceID)

	_, err = AddComment(context.Background(), instance.ID, 0, "no user")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AddComment(context.Background(), instance.ID, 1, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AddComment(context.Background(), 9999, 1, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	c1, err := AddComment(context.Background(), instance.ID, 1, "first")
	require.NoError(t, err)
	c2, err := AddComment(context.Background(), instance.ID, 1, "second")
	require.NoError(t, err)

	// список только растёт
	var comments []models.Comment
	database.DB.Where("task_instance_id = ?", instance.ID).Order("id asc").Find(&comments)
	require.Len(t, comments, 2)
	assert.Equal(t, c1.ID, comments[0].ID)
	assert.Equal(t, c2.ID, comments[1].ID)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	earlierToday := now.Add(-2 * time.Hour)
	tomorrow := now.AddDate(0, 0, 1)

	cases := []struct {
		name     string
		due      *time.Time
		status   models.InstanceStatus
		expected bool
	}{
		{"yesterday in progress", &yesterday, models.InstanceInProgress, true},
		{"yesterday closed", &yesterday, models.InstanceClosed, false},
		{"yesterday failed", &yesterday, models.InstanceFailed, true},
		{"due earlier today", &earlierToday, models.InstanceOpen, false},
		{"due tomorrow", &tomorrow, models.InstanceOpen, false},
		{"no due date", nil, models.InstanceOpen, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			instance := models.TaskInstance{DueDate: tc.due, Status: tc.status}
			assert.Equal(t, tc.expected, IsOverdue(&instance, now))
		})
	}
}
