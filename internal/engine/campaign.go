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

// RequirementSelection — решение о применимости одного требования,
// принимаемое при создании кампании и замораживаемое в её записи.
type RequirementSelection struct {
	RequirementID uint `json:"requirementId"`
	IsApplicable  bool `json:"isApplicable"`
}

// InstantiationSummary возвращается вызывающему вместе с кампанией.
type InstantiationSummary struct {
	InstancesCreated            int `json:"instancesCreated"`
	RequirementsWithNoTemplates int `json:"requirementsWithNoTemplates"`
	RequirementsExcluded        int `json:"requirementsExcluded"`
}

type CreateCampaignInput struct {
	StandardID  uint
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Selections  []RequirementSelection
	UserID      uint
}

// CreateCampaign создаёт кампанию и ровно по одному экземпляру задачи на
// каждую пару (применимое требование, привязанный шаблон). Вся операция —
// одна транзакция: читатели не видят наполовину инстанцированную кампанию.
//
// Повтор вызова с тем же стандартом и именем безопасен: существующая
// кампания переиспользуется, уже созданные экземпляры пропускаются.
func CreateCampaign(ctx context.Context, in CreateCampaignInput) (*models.Campaign, *InstantiationSummary, error) {
	if in.StandardID == 0 {
		return nil, nil, invalid("campaign requires standardId")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, nil, invalid("campaign requires name")
	}
	if len(in.Selections) == 0 {
		return nil, nil, invalid("campaign requires requirement selections")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, nil, invalid("campaign end date precedes start date")
	}

	// два конкурирующих создания одной кампании сериализуются,
	// разные кампании друг друга не ждут
	unlock := lockEntity("campaign_create", fmt.Sprintf("%d/%s", in.StandardID, in.Name))
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	var campaign models.Campaign
	summary := &InstantiationSummary{}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var standard models.Standard
		if err := tx.First(&standard, in.StandardID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("standard %d", in.StandardID)
			}
			return storeErr(err)
		}

		// все выбранные требования обязаны принадлежать этому стандарту
		var reqs []models.Requirement
		if err := tx.Where("standard_id = ?", in.StandardID).Find(&reqs).Error; err != nil {
			return storeErr(err)
		}
		belongs := make(map[uint]struct{}, len(reqs))
		for _, r := range reqs {
			belongs[r.ID] = struct{}{}
		}
		for _, sel := range in.Selections {
			if _, ok := belongs[sel.RequirementID]; !ok {
				return invalid("requirement %d does not belong to standard %d", sel.RequirementID, in.StandardID)
			}
		}

		// повторный вызов находит уже созданную кампанию и доинстанцирует её
		selections := in.Selections
		err := tx.Preload("Selections").
			Where("standard_id = ? AND name = ?", in.StandardID, in.Name).
			First(&campaign).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			campaign = models.Campaign{
				StandardID:  in.StandardID,
				Name:        in.Name,
				Description: in.Description,
				Status:      models.CampaignDraft,
				StartDate:   in.StartDate,
				EndDate:     in.EndDate,
			}
			for _, sel := range in.Selections {
				campaign.Selections = append(campaign.Selections, models.CampaignRequirement{
					RequirementID: sel.RequirementID,
					IsApplicable:  sel.IsApplicable,
				})
			}
			if err := tx.Create(&campaign).Error; err != nil {
				return storeErr(err)
			}
		case err != nil:
			return storeErr(err)
		default:
			// охват заморожен при первом создании, входные selections игнорируем
			selections = make([]RequirementSelection, 0, len(campaign.Selections))
			for _, s := range campaign.Selections {
				selections = append(selections, RequirementSelection{
					RequirementID: s.RequirementID,
					IsApplicable:  s.IsApplicable,
				})
			}
		}

		created, err := instantiate(tx, &campaign, selections, summary)
		if err != nil {
			return err
		}

		if campaign.Status == models.CampaignDraft && created > 0 {
			campaign.Status = models.CampaignActive
			if err := tx.Model(&campaign).Update("status", models.CampaignActive).Error; err != nil {
				return storeErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	database.CreateAuditLog(in.UserID, "campaign", campaign.ID, "create",
		fmt.Sprintf("instances=%d no_templates=%d excluded=%d",
			summary.InstancesCreated, summary.RequirementsWithNoTemplates, summary.RequirementsExcluded))

	return &campaign, summary, nil
}

// instantiate создаёт недостающие экземпляры для применимых требований.
// Возвращает общее число экземпляров кампании (созданных + уже бывших).
func instantiate(tx *gorm.DB, campaign *models.Campaign, selections []RequirementSelection, summary *InstantiationSummary) (int, error) {
	total := 0

	for _, sel := range selections {
		if !sel.IsApplicable {
			summary.RequirementsExcluded++
			continue
		}

		// набор шаблонов берётся живым на момент создания кампании
		var links []models.TaskRequirement
		if err := tx.Preload("TaskTemplate").
			Where("requirement_id = ?", sel.RequirementID).
			Order("task_template_id asc").
			Find(&links).Error; err != nil {
			return 0, storeErr(err)
		}

		if len(links) == 0 {
			summary.RequirementsWithNoTemplates++
			continue
		}

		for _, link := range links {
			tmpl := link.TaskTemplate
			if tmpl.ID == 0 {
				continue
			}

			var count int64
			if err := tx.Model(&models.TaskInstance{}).
				Where("campaign_id = ? AND requirement_id = ? AND task_template_id = ?",
					campaign.ID, sel.RequirementID, tmpl.ID).
				Count(&count).Error; err != nil {
				return 0, storeErr(err)
			}
			if count > 0 {
				// повторный вызов — экземпляр уже есть
				total++
				continue
			}

			templateID := tmpl.ID
			instance := models.TaskInstance{
				CampaignID:     campaign.ID,
				RequirementID:  sel.RequirementID,
				TaskTemplateID: &templateID,

				// снимок шаблона: его дальнейшие правки не меняют идущую работу
				Title:                 tmpl.Title,
				Description:           tmpl.Description,
				Category:              tmpl.Category,
				EvidenceTypesExpected: tmpl.EvidenceTypesExpected,

				Status:  models.InstanceOpen,
				DueDate: campaign.EndDate,
			}
			if err := tx.Create(&instance).Error; err != nil {
				return 0, storeErr(err)
			}
			summary.InstancesCreated++
			total++
		}
	}

	return total, nil
}

type AdHocInstanceInput struct {
	RequirementID  uint
	Title          string
	Description    string
	Category       string
	OwnerUserID    uint
	AssigneeUserID uint
	DueDate        *time.Time
	UserID         uint
}

// CreateAdHocInstance добавляет в кампанию ручную задачу без шаблона.
// Требование обязано быть применимым в замороженном выборе кампании.
func CreateAdHocInstance(ctx context.Context, campaignID uint, in AdHocInstanceInput) (*models.TaskInstance, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("task instance requires title")
	}
	if in.RequirementID == 0 {
		return nil, invalid("task instance requires requirementId")
	}

	unlock := lockEntity("campaign", campaignID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	var instance models.TaskInstance

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.First(&campaign, campaignID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("campaign %d", campaignID)
			}
			return storeErr(err)
		}

		var sel models.CampaignRequirement
		err := tx.Where("campaign_id = ? AND requirement_id = ?", campaignID, in.RequirementID).
			First(&sel).Error
		if err == gorm.ErrRecordNotFound {
			return invalid("requirement %d is not part of campaign %d", in.RequirementID, campaignID)
		}
		if err != nil {
			return storeErr(err)
		}
		if !sel.IsApplicable {
			return conflict("requirement %d is not applicable in campaign %d", in.RequirementID, campaignID)
		}

		instance = models.TaskInstance{
			CampaignID:     campaignID,
			RequirementID:  in.RequirementID,
			TaskTemplateID: nil,
			Title:          in.Title,
			Description:    in.Description,
			Category:       in.Category,
			Status:         models.InstanceOpen,
			OwnerUserID:    in.OwnerUserID,
			AssigneeUserID: in.AssigneeUserID,
			DueDate:        in.DueDate,
		}
		if instance.DueDate == nil {
			instance.DueDate = campaign.EndDate
		}
		return storeErr(tx.Create(&instance).Error)
	})
	if err != nil {
		return nil, err
	}

	database.CreateAuditLog(in.UserID, "task_instance", instance.ID, "create", "ad hoc")
	return &instance, nil
}

// CloseCampaign — явное закрытие оператором.
func CloseCampaign(ctx context.Context, campaignID, userID uint) (*models.Campaign, error) {
	unlock := lockEntity("campaign", campaignID)
	defer unlock()

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	var campaign models.Campaign
	if err := database.DB.WithContext(ctx).First(&campaign, campaignID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("campaign %d", campaignID)
		}
		return nil, storeErr(err)
	}

	if campaign.Status == models.CampaignCompleted {
		return &campaign, nil
	}

	campaign.Status = models.CampaignCompleted
	if err := database.DB.WithContext(ctx).
		Model(&campaign).Update("status", models.CampaignCompleted).Error; err != nil {
		return nil, storeErr(err)
	}

	database.CreateAuditLog(userID, "campaign", campaign.ID, "close", "")
	return &campaign, nil
}

// RefreshCampaignStatus лениво выводит статус Completed на чтении:
// активная кампания, все экземпляры которой в терминальном статусе,
// считается завершённой. Фоновых задач для этого не держим.
func RefreshCampaignStatus(ctx context.Context, campaign *models.Campaign) error {
	if campaign.Status != models.CampaignActive {
		return nil
	}

	ctx, cancel := database.Ctx(ctx)
	defer cancel()

	var total, terminal int64
	db := database.DB.WithContext(ctx)
	if err := db.Model(&models.TaskInstance{}).
		Where("campaign_id = ?", campaign.ID).
		Count(&total).Error; err != nil {
		return storeErr(err)
	}
	if total == 0 {
		return nil
	}
	if err := db.Model(&models.TaskInstance{}).
		Where("campaign_id = ? AND status IN ?", campaign.ID,
			[]models.InstanceStatus{models.InstanceClosed, models.InstanceFailed}).
		Count(&terminal).Error; err != nil {
		return storeErr(err)
	}

	if terminal == total {
		campaign.Status = models.CampaignCompleted
		if err := db.Model(campaign).Update("status", models.CampaignCompleted).Error; err != nil {
			return storeErr(err)
		}
	}
	return nil
}
