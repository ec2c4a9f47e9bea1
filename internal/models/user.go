package models

import "gorm.io/gorm"

// User и Team моделируются ровно настолько, насколько на них
// ссылаются задачи и риски. Аутентификация — вне зоны ответственности.
type User struct {
	gorm.Model
	Username    string `gorm:"uniqueIndex;size:50;not null"`
	DisplayName string `gorm:"size:255"`
	TeamID      *uint
}

type Team struct {
	gorm.Model
	Name string `gorm:"size:255;not null"`

	Members []User
}
