package engine

import (
	"context"

	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"gorm.io/gorm"
)

// LinkResult — итог привязки: сколько связей создано и сколько уже было.
type LinkResult struct {
	Linked        int `json:"linked"`
	AlreadyLinked int `json:"alreadyLinked"`
}

// UnlinkResult — итог отвязки.
type UnlinkResult struct {
	Unlinked int `json:"unlinked"`
}

// LinkTaskToRequirements привязывает мастер-задачу к требованиям.
// Идемпотентно: уже существующая связь — не ошибка. Инстанцирование
// при привязке не запускается — охват кампании заморожен при её создании.
func LinkTaskToRequirements(ctx context.Context, taskTemplateID uint, requirementIDs []uint) (*LinkResult, error) {
	unlock := lockEntity("task_template", taskTemplateID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	result := &LinkResult{}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.TaskTemplate
		if err := tx.First(&task, taskTemplateID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("task template %d", taskTemplateID)
			}
			return storeErr(err)
		}

		for _, reqID := range dedup(requirementIDs) {
			var req models.Requirement
			if err := tx.First(&req, reqID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return notFound("requirement %d", reqID)
				}
				return storeErr(err)
			}

			var count int64
			if err := tx.Model(&models.TaskRequirement{}).
				Where("task_template_id = ? AND requirement_id = ?", taskTemplateID, reqID).
				Count(&count).Error; err != nil {
				return storeErr(err)
			}
			if count > 0 {
				result.AlreadyLinked++
				continue
			}

			link := models.TaskRequirement{
				TaskTemplateID: taskTemplateID,
				RequirementID:  reqID,
			}
			if err := tx.Create(&link).Error; err != nil {
				return storeErr(err)
			}
			result.Linked++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UnlinkTaskFromRequirements снимает связи. Существующие экземпляры задач,
// порождённые этой парой, не трогаются — связь лишь перестаёт порождать новые.
func UnlinkTaskFromRequirements(ctx context.Context, taskTemplateID uint, requirementIDs []uint) (*UnlinkResult, error) {
	unlock := lockEntity("task_template", taskTemplateID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	var task models.TaskTemplate
	if err := database.DB.WithContext(ctx).First(&task, taskTemplateID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("task template %d", taskTemplateID)
		}
		return nil, storeErr(err)
	}

	ids := dedup(requirementIDs)
	if len(ids) == 0 {
		return &UnlinkResult{}, nil
	}

	res := database.DB.WithContext(ctx).
		Where("task_template_id = ? AND requirement_id IN ?", taskTemplateID, ids).
		Delete(&models.TaskRequirement{})
	if res.Error != nil {
		return nil, storeErr(res.Error)
	}

	return &UnlinkResult{Unlinked: int(res.RowsAffected)}, nil
}

// LinkTaskToDocuments — та же идемпотентная привязка для документов.
func LinkTaskToDocuments(ctx context.Context, taskTemplateID uint, documentIDs []uint) (*LinkResult, error) {
	unlock := lockEntity("task_template", taskTemplateID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	result := &LinkResult{}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.TaskTemplate
		if err := tx.First(&task, taskTemplateID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("task template %d", taskTemplateID)
			}
			return storeErr(err)
		}

		for _, docID := range dedup(documentIDs) {
			var doc models.Document
			if err := tx.First(&doc, docID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return notFound("document %d", docID)
				}
				return storeErr(err)
			}

			var count int64
			if err := tx.Model(&models.TaskDocument{}).
				Where("task_template_id = ? AND document_id = ?", taskTemplateID, docID).
				Count(&count).Error; err != nil {
				return storeErr(err)
			}
			if count > 0 {
				result.AlreadyLinked++
				continue
			}

			if err := tx.Create(&models.TaskDocument{
				TaskTemplateID: taskTemplateID,
				DocumentID:     docID,
			}).Error; err != nil {
				return storeErr(err)
			}
			result.Linked++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LinkRequirementToRisks — идемпотентная привязка рисков к требованию.
func LinkRequirementToRisks(ctx context.Context, requirementID uint, riskIDs []uint) (*LinkResult, error) {
	unlock := lockEntity("requirement", requirementID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	result := &LinkResult{}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.Requirement
		if err := tx.First(&req, requirementID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("requirement %d", requirementID)
			}
			return storeErr(err)
		}

		for _, riskID := range dedup(riskIDs) {
			var risk models.Risk
			if err := tx.First(&risk, riskID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return notFound("risk %d", riskID)
				}
				return storeErr(err)
			}

			var count int64
			if err := tx.Model(&models.RequirementRisk{}).
				Where("requirement_id = ? AND risk_id = ?", requirementID, riskID).
				Count(&count).Error; err != nil {
				return storeErr(err)
			}
			if count > 0 {
				result.AlreadyLinked++
				continue
			}

			if err := tx.Create(&models.RequirementRisk{
				RequirementID: requirementID,
				RiskID:        riskID,
			}).Error; err != nil {
				return storeErr(err)
			}
			result.Linked++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LinkRiskToRequirements — зеркальная операция со стороны риска.
func LinkRiskToRequirements(ctx context.Context, riskID uint, requirementIDs []uint) (*LinkResult, error) {
	unlock := lockEntity("risk", riskID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	result := &LinkResult{}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var risk models.Risk
		if err := tx.First(&risk, riskID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("risk %d", riskID)
			}
			return storeErr(err)
		}

		for _, reqID := range dedup(requirementIDs) {
			var req models.Requirement
			if err := tx.First(&req, reqID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return notFound("requirement %d", reqID)
				}
				return storeErr(err)
			}

			var count int64
			if err := tx.Model(&models.RequirementRisk{}).
				Where("requirement_id = ? AND risk_id = ?", reqID, riskID).
				Count(&count).Error; err != nil {
				return storeErr(err)
			}
			if count > 0 {
				result.AlreadyLinked++
				continue
			}

			if err := tx.Create(&models.RequirementRisk{
				RequirementID: reqID,
				RiskID:        riskID,
			}).Error; err != nil {
				return storeErr(err)
			}
			result.Linked++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func dedup(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
