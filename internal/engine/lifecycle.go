package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"gorm.io/gorm"
)

var validStatuses = map[models.InstanceStatus]struct{}{
	models.InstanceOpen:          {},
	models.InstanceInProgress:    {},
	models.InstancePendingReview: {},
	models.InstanceClosed:        {},
	models.InstanceFailed:        {},
}

// UpdateStatus переводит экземпляр в новый статус. Переход в текущий статус —
// идемпотентный no-op: запись не трогается. Возврат из терминального статуса
// разрешён (переоткрытие), движения только вперёд не требуем.
func UpdateStatus(ctx context.Context, instanceID uint, newStatus models.InstanceStatus, userID uint) (*models.TaskInstance, error) {
	if _, ok := validStatuses[newStatus]; !ok {
		return nil, invalid("unknown status %q", newStatus)
	}

	unlock := lockEntity("task_instance", instanceID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	var instance models.TaskInstance
	if err := database.DB.WithContext(ctx).First(&instance, instanceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("task instance %d", instanceID)
		}
		return nil, storeErr(err)
	}

	if instance.Status == newStatus {
		return &instance, nil
	}

	old := instance.Status
	instance.Status = newStatus
	if err := database.DB.WithContext(ctx).
		Model(&instance).Update("status", newStatus).Error; err != nil {
		return nil, storeErr(err)
	}

	database.CreateAuditLog(userID, "task_instance", instance.ID, "status_change",
		fmt.Sprintf("%s -> %s", old, newStatus))
	return &instance, nil
}

// AssignmentPatch — частичное обновление: nil-поля не трогаются.
type AssignmentPatch struct {
	OwnerUserID    *uint
	AssigneeUserID *uint
	DueDate        *time.Time
}

func UpdateAssignment(ctx context.Context, instanceID uint, patch AssignmentPatch, userID uint) (*models.TaskInstance, error) {
	unlock := lockEntity("task_instance", instanceID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	var instance models.TaskInstance
	if err := database.DB.WithContext(ctx).First(&instance, instanceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("task instance %d", instanceID)
		}
		return nil, storeErr(err)
	}

	updates := map[string]interface{}{}
	if patch.OwnerUserID != nil {
		updates["owner_user_id"] = *patch.OwnerUserID
	}
	if patch.AssigneeUserID != nil {
		updates["assignee_user_id"] = *patch.AssigneeUserID
	}
	if patch.DueDate != nil {
		updates["due_date"] = *patch.DueDate
	}
	if len(updates) == 0 {
		return &instance, nil
	}

	if err := database.DB.WithContext(ctx).
		Model(&instance).Updates(updates).Error; err != nil {
		return nil, storeErr(err)
	}

	database.CreateAuditLog(userID, "task_instance", instance.ID, "assign", "")
	return &instance, nil
}

type EvidenceInput struct {
	FileRef     string
	URL         string
	Text        string
	Description string
}

// AddEvidence добавляет свидетельство. Список только растёт,
// правка и удаление не предусмотрены.
func AddEvidence(ctx context.Context, instanceID uint, in EvidenceInput, userID uint) (*models.Evidence, error) {
	if in.FileRef == "" && in.URL == "" && in.Text == "" {
		return nil, invalid("evidence requires fileRef, url or text")
	}

	unlock := lockEntity("task_instance", instanceID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	if err := ensureInstance(ctx, instanceID); err != nil {
		return nil, err
	}

	ev := models.Evidence{
		TaskInstanceID: instanceID,
		FileRef:        in.FileRef,
		URL:            in.URL,
		Text:           in.Text,
		Description:    in.Description,
	}
	if err := database.DB.WithContext(ctx).Create(&ev).Error; err != nil {
		return nil, storeErr(err)
	}

	database.CreateAuditLog(userID, "task_instance", instanceID, "evidence", "")
	return &ev, nil
}

// AddComment добавляет комментарий; список комментариев append-only.
func AddComment(ctx context.Context, instanceID uint, userID uint, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalid("comment requires text")
	}
	if userID == 0 {
		return nil, invalid("comment requires userId")
	}

	unlock := lockEntity("task_instance", instanceID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	if err := ensureInstance(ctx, instanceID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		TaskInstanceID: instanceID,
		UserID:         userID,
		Text:           text,
	}
	if err := database.DB.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, storeErr(err)
	}

	database.CreateAuditLog(userID, "task_instance", instanceID, "comment", "")
	return &comment, nil
}

func ensureInstance(ctx context.Context, instanceID uint) error {
	var instance models.TaskInstance
	if err := database.DB.WithContext(ctx).
		Select("id").First(&instance, instanceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return notFound("task instance %d", instanceID)
		}
		return storeErr(err)
	}
	return nil
}

// IsOverdue — вычисляемое свойство, в БД не хранится. Задача просрочена,
// если срок в прошлом, календарный день срока уже не сегодня и задача
// не закрыта.
func IsOverdue(instance *models.TaskInstance, now time.Time) bool {
	if instance.DueDate == nil {
		return false
	}
	if instance.Status == models.InstanceClosed {
		return false
	}
	due := *instance.DueDate
	if !due.Before(now) {
		return false
	}
	dy, dm, dd := due.Date()
	ny, nm, nd := now.Date()
	if dy == ny && dm == nm && dd == nd {
		return false
	}
	return true
}
