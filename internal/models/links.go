package models

import "gorm.io/gorm"

// TaskRequirement — связь "мастер-задача ↔ требование".
// Уникальный составной индекс страхует идемпотентность привязки на уровне БД.
type TaskRequirement struct {
	gorm.Model

	TaskTemplateID uint `gorm:"not null;uniqueIndex:idx_task_requirement"`
	RequirementID  uint `gorm:"not null;uniqueIndex:idx_task_requirement"`

	TaskTemplate TaskTemplate
	Requirement  Requirement
}

// TaskDocument — связь "мастер-задача ↔ документ".
type TaskDocument struct {
	gorm.Model

	TaskTemplateID uint `gorm:"not null;uniqueIndex:idx_task_document"`
	DocumentID     uint `gorm:"not null;uniqueIndex:idx_task_document"`

	TaskTemplate TaskTemplate
	Document     Document
}

// RequirementRisk — связь "требование ↔ риск".
type RequirementRisk struct {
	gorm.Model

	RequirementID uint `gorm:"not null;uniqueIndex:idx_requirement_risk"`
	RiskID        uint `gorm:"not null;uniqueIndex:idx_requirement_risk"`

	Requirement Requirement
	Risk        Risk
}
