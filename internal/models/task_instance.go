package models

import (
	"time"

	"gorm.io/gorm"
)

type InstanceStatus string

const (
	InstanceOpen          InstanceStatus = "Open"
	InstanceInProgress    InstanceStatus = "In Progress"
	InstancePendingReview InstanceStatus = "Pending Review"
	InstanceClosed        InstanceStatus = "Closed"
	InstanceFailed        InstanceStatus = "Failed"
)

// TaskInstance — единица работы в кампании. Тройка
// (campaign, requirement, template) уникальна; TaskTemplateID == nil
// означает ad-hoc задачу, созданную вручную.
type TaskInstance struct {
	gorm.Model

	CampaignID     uint  `gorm:"not null;uniqueIndex:idx_instance_triple"`
	RequirementID  uint  `gorm:"not null;uniqueIndex:idx_instance_triple"`
	TaskTemplateID *uint `gorm:"uniqueIndex:idx_instance_triple"`

	// снимок шаблона на момент инстанцирования, не живая ссылка
	Title                 string     `gorm:"size:255;not null"`
	Description           string     `gorm:"type:text"`
	Category              string     `gorm:"size:100"`
	EvidenceTypesExpected StringList `gorm:"type:text"`

	Status InstanceStatus `gorm:"type:varchar(20);not null;default:'Open'"`

	OwnerUserID    uint
	AssigneeUserID uint
	DueDate        *time.Time

	Evidence []Evidence
	Comments []Comment
}

// IsTerminal: Closed и Failed — конечные статусы.
func (s InstanceStatus) IsTerminal() bool {
	return s == InstanceClosed || s == InstanceFailed
}
