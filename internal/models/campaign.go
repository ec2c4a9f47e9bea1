package models

import (
	"time"

	"gorm.io/gorm"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign — один аудиторский цикл по одному стандарту.
type Campaign struct {
	gorm.Model
	StandardID uint `gorm:"not null;index"`
	Standard   Standard

	Name        string         `gorm:"size:255;not null"`
	Description string         `gorm:"type:text"`
	Status      CampaignStatus `gorm:"type:varchar(20);not null;default:'draft'"`

	StartDate *time.Time
	EndDate   *time.Time

	Selections []CampaignRequirement
}

// CampaignRequirement — замороженный на момент создания кампании выбор
// требований. Последующие правки применимости кампанию не трогают.
type CampaignRequirement struct {
	ID uint `gorm:"primaryKey"`

	CampaignID    uint `gorm:"not null;uniqueIndex:idx_campaign_requirement"`
	RequirementID uint `gorm:"not null;uniqueIndex:idx_campaign_requirement"`

	IsApplicable bool `gorm:"not null"`

	Requirement Requirement
}
