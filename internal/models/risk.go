package models

import "gorm.io/gorm"

type Risk struct {
	gorm.Model
	RiskID      string `gorm:"size:64;uniqueIndex"` // бизнес-ключ, например R-017
	Title       string `gorm:"size:255;not null"`
	Category    string `gorm:"size:100"`
	Likelihood  string `gorm:"size:32"` // low / medium / high
	Impact      string `gorm:"size:32"`
	Status      string `gorm:"size:32"`
	OwnerUserID uint
}
