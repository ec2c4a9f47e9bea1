package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaignApplicabilityGating(t *testing.T) {
	setupDB(t)

	// сценарий: шаблон привязан к обоим требованиям,
	// но применимо в кампании только первое
	std := mustStandard(t, "PCI DSS")
	req1 := mustRequirement(t, std.ID, "REQ-1")
	req2 := mustRequirement(t, std.ID, "REQ-2")
	mustTemplate(t, "Check Firewall", req1.ID, req2.ID)

	campaign, summary, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		Selections: []RequirementSelection{
			{RequirementID: req1.ID, IsApplicable: true},
			{RequirementID: req2.ID, IsApplicable: false},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.InstancesCreated)
	// REQ-2 исключён по применимости, а не "нет шаблонов"
	assert.Equal(t, 1, summary.RequirementsExcluded)
	assert.Equal(t, 0, summary.RequirementsWithNoTemplates)

	var instances []models.TaskInstance
	database.DB.Find(&instances)
	require.Len(t, instances, 1)
	assert.Equal(t, req1.ID, instances[0].RequirementID)
	assert.Equal(t, models.CampaignActive, campaign.Status)
}

func TestCreateCampaignOneInstancePerTemplate(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")
	mustTemplate(t, "Check Firewall", req.ID)
	mustTemplate(t, "Check Logs", req.ID)

	campaign, summary, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.InstancesCreated)
	assert.EqualValues(t, 2, countInstances(t, campaign.ID))
}

func TestCreateCampaignRetrySafe(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")
	mustTemplate(t, "Check Firewall", req.ID)

	in := CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	}

	first, summary, err := CreateCampaign(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 1, summary.InstancesCreated)

	// повтор возвращает ту же кампанию и не плодит экземпляров
	second, summary, err := CreateCampaign(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 0, summary.InstancesCreated)
	assert.EqualValues(t, 1, countInstances(t, first.ID))
}

func TestCreateCampaignConcurrentRetries(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")
	mustTemplate(t, "Check Firewall", req.ID)
	mustTemplate(t, "Check Logs", req.ID)

	in := CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := CreateCampaign(context.Background(), in)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// тройка (campaign, requirement, template) уникальна и под гонками
	var campaigns []models.Campaign
	database.DB.Find(&campaigns)
	require.Len(t, campaigns, 1)
	assert.EqualValues(t, 2, countInstances(t, campaigns[0].ID))
}

func TestCreateCampaignValidation(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")

	other := mustStandard(t, "ISO 27001")
	foreign := mustRequirement(t, other.ID, "A.5.1")

	cases := []struct {
		name string
		in   CreateCampaignInput
		want error
	}{
		{
			name: "missing standard",
			in: CreateCampaignInput{
				Name:       "x",
				Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
			},
			want: ErrValidation,
		},
		{
			name: "missing name",
			in: CreateCampaignInput{
				StandardID: std.ID,
				Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
			},
			want: ErrValidation,
		},
		{
			name: "no selections",
			in:   CreateCampaignInput{StandardID: std.ID, Name: "x"},
			want: ErrValidation,
		},
		{
			name: "unknown standard",
			in: CreateCampaignInput{
				StandardID: 9999,
				Name:       "x",
				Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
			},
			want: ErrNotFound,
		},
		{
			name: "requirement from another standard",
			in: CreateCampaignInput{
				StandardID: std.ID,
				Name:       "x",
				Selections: []RequirementSelection{{RequirementID: foreign.ID, IsApplicable: true}},
			},
			want: ErrValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := CreateCampaign(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// ни одна из отклонённых попыток не оставила следов
	var n int64
	database.DB.Model(&models.Campaign{}).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestCreateCampaignNoTemplatesStaysDraft(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1") // без шаблонов

	campaign, summary, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Empty audit",
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	})
	require.NoError(t, err)

	// ноль шаблонов — не ошибка, а предупреждение в сводке
	assert.Equal(t, 0, summary.InstancesCreated)
	assert.Equal(t, 1, summary.RequirementsWithNoTemplates)
	assert.Equal(t, models.CampaignDraft, campaign.Status)
}

func TestSnapshotSurvivesTemplateEdit(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")
	tmpl := mustTemplate(t, "Check Firewall", req.ID)

	campaign, _, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	})
	require.NoError(t, err)

	require.NoError(t, database.DB.Model(&tmpl).Update("title", "Renamed").Error)

	var instance models.TaskInstance
	require.NoError(t, database.DB.Where("campaign_id = ?", campaign.ID).First(&instance).Error)
	assert.Equal(t, "Check Firewall", instance.Title)
	assert.Equal(t, models.StringList{"screenshot"}, instance.EvidenceTypesExpected)
}

func TestLinkAfterActivationDoesNotBackfill(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")
	mustTemplate(t, "Check Firewall", req.ID)

	campaign, _, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, countInstances(t, campaign.ID))

	// охват кампании заморожен: поздняя привязка не доинстанцирует
	late := mustTemplate(t, "Check Logs")
	_, err = LinkTaskToRequirements(context.Background(), late.ID, []uint{req.ID})
	require.NoError(t, err)

	assert.EqualValues(t, 1, countInstances(t, campaign.ID))
}

func TestCreateAdHocInstance(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req1 := mustRequirement(t, std.ID, "REQ-1")
	req2 := mustRequirement(t, std.ID, "REQ-2")
	mustTemplate(t, "Check Firewall", req1.ID)

	campaign, _, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		Selections: []RequirementSelection{
			{RequirementID: req1.ID, IsApplicable: true},
			{RequirementID: req2.ID, IsApplicable: false},
		},
	})
	require.NoError(t, err)

	instance, err := CreateAdHocInstance(context.Background(), campaign.ID, AdHocInstanceInput{
		RequirementID: req1.ID,
		Title:         "Interview CISO",
	})
	require.NoError(t, err)
	assert.Nil(t, instance.TaskTemplateID)
	assert.Equal(t, models.InstanceOpen, instance.Status)

	// неприменимое требование — конфликт, не тихий успех
	_, err = CreateAdHocInstance(context.Background(), campaign.ID, AdHocInstanceInput{
		RequirementID: req2.ID,
		Title:         "Should fail",
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = CreateAdHocInstance(context.Background(), 9999, AdHocInstanceInput{
		RequirementID: req1.ID,
		Title:         "x",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCampaignCompletionDerivedLazily(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")
	mustTemplate(t, "Check Firewall", req.ID)
	mustTemplate(t, "Check Logs", req.ID)

	campaign, _, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	})
	require.NoError(t, err)
	require.Equal(t, models.CampaignActive, campaign.Status)

	var instances []models.TaskInstance
	database.DB.Where("campaign_id = ?", campaign.ID).Find(&instances)
	require.Len(t, instances, 2)

	_, err = UpdateStatus(context.Background(), instances[0].ID, models.InstanceClosed, 1)
	require.NoError(t, err)

	// одна задача ещё открыта — кампания активна
	require.NoError(t, RefreshCampaignStatus(context.Background(), campaign))
	assert.Equal(t, models.CampaignActive, campaign.Status)

	_, err = UpdateStatus(context.Background(), instances[1].ID, models.InstanceFailed, 1)
	require.NoError(t, err)

	require.NoError(t, RefreshCampaignStatus(context.Background(), campaign))
	assert.Equal(t, models.CampaignCompleted, campaign.Status)
}

func TestCloseCampaignExplicit(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")
	mustTemplate(t, "Check Firewall", req.ID)

	campaign, _, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Annual audit",
		StartDate:  timePtr(time.Now()),
		EndDate:    timePtr(time.Now().AddDate(0, 1, 0)),
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	})
	require.NoError(t, err)

	closed, err := CloseCampaign(context.Background(), campaign.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignCompleted, closed.Status)

	// повторное закрытие — идемпотентный no-op
	closed, err = CloseCampaign(context.Background(), campaign.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignCompleted, closed.Status)

	_, err = CloseCampaign(context.Background(), 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCampaignDatesValidated(t *testing.T) {
	setupDB(t)

	std := mustStandard(t, "PCI DSS")
	req := mustRequirement(t, std.ID, "REQ-1")

	start := time.Now()
	end := start.AddDate(0, 0, -7)

	_, _, err := CreateCampaign(context.Background(), CreateCampaignInput{
		StandardID: std.ID,
		Name:       "Backwards window",
		StartDate:  &start,
		EndDate:    &end,
		Selections: []RequirementSelection{{RequirementID: req.ID, IsApplicable: true}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func timePtr(t time.Time) *time.Time { return &t }
