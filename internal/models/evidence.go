package models

import "time"

// Evidence — свидетельство по задаче. Только добавление, без правок.
// Само файловое хранилище вне зоны ответственности движка: храним ссылку.
type Evidence struct {
	ID         uint      `gorm:"primaryKey"`
	UploadedAt time.Time `gorm:"autoCreateTime"`

	TaskInstanceID uint `gorm:"not null;index"`

	FileRef     string `gorm:"size:512"`
	URL         string `gorm:"size:512"`
	Text        string `gorm:"type:text"`
	Description string `gorm:"type:text"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	TaskInstanceID uint `gorm:"not null;index"`
	UserID         uint `gorm:"not null"`

	Text string `gorm:"type:text;not null"`
}
