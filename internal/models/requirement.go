package models

import "gorm.io/gorm"

type RequirementStatus string

const (
	RequirementActive     RequirementStatus = "active"
	RequirementDeprecated RequirementStatus = "deprecated"
	RequirementPending    RequirementStatus = "pending"
)

// Requirement принадлежит ровно одному стандарту, но может быть связано
// с многими мастер-задачами и рисками.
type Requirement struct {
	gorm.Model
	StandardID uint `gorm:"not null;index"`
	Standard   Standard

	ControlIDReference string            `gorm:"size:64"` // например: "1.2.1", "A.5.1"
	Text               string            `gorm:"type:text;not null"`
	Priority           string            `gorm:"size:32"`
	Status             RequirementStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Version            string            `gorm:"size:64"`
}
