package models

import "gorm.io/gorm"

// Document — регламент/политика/инструкция, на которую ссылаются мастер-задачи.
type Document struct {
	gorm.Model
	Title       string `gorm:"size:255;not null"`
	URL         string `gorm:"size:512"`
	FileRef     string `gorm:"size:512"`
	Description string `gorm:"type:text"`
}
