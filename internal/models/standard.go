package models

import "gorm.io/gorm"

// Standard — нормативный документ, по которому проводятся кампании
// (PCI DSS, ISO 27001, ГОСТ и т.п.)
type Standard struct {
	gorm.Model
	Name         string `gorm:"size:255;not null"`
	ShortName    string `gorm:"size:64"`
	Description  string `gorm:"type:text"`
	Version      string `gorm:"size:64"`
	IssuingBody  string `gorm:"size:255"`
	Jurisdiction string `gorm:"size:128"`
	Industry     string `gorm:"size:128"`
	OfficialLink string `gorm:"size:512"`

	// стандарт с требованиями не удаляется, только выводится из оборота
	Retired bool `gorm:"not null;default:false"`

	Requirements []Requirement
}
