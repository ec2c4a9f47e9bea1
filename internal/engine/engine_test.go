package engine

import (
	"fmt"
	"testing"

	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupDB поднимает изолированную in-memory БД с теми же миграциями,
// что и продовый постгрес, и подставляет её в database.DB.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return db
}

func mustStandard(t *testing.T, name string) models.Standard {
	t.Helper()
	std := models.Standard{Name: name}
	require.NoError(t, database.DB.Create(&std).Error)
	return std
}

func mustRequirement(t *testing.T, standardID uint, text string) models.Requirement {
	t.Helper()
	req := models.Requirement{
		StandardID: standardID,
		Text:       text,
		Status:     models.RequirementActive,
	}
	require.NoError(t, database.DB.Create(&req).Error)
	return req
}

func mustTemplate(t *testing.T, title string, requirementIDs ...uint) models.TaskTemplate {
	t.Helper()
	tmpl := models.TaskTemplate{
		Title:                 title,
		Category:              "Network",
		EvidenceTypesExpected: models.StringList{"screenshot"},
	}
	require.NoError(t, database.DB.Create(&tmpl).Error)
	for _, reqID := range requirementIDs {
		require.NoError(t, database.DB.Create(&models.TaskRequirement{
			TaskTemplateID: tmpl.ID,
			RequirementID:  reqID,
		}).Error)
	}
	return tmpl
}

func countInstances(t *testing.T, campaignID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.DB.Model(&models.TaskInstance{}).
		Where("campaign_id = ?", campaignID).Count(&n).Error)
	return n
}
