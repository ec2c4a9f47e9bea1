package models

import "gorm.io/gorm"

type CheckLevel string

const (
	CheckManual    CheckLevel = "manual"
	CheckAutomated CheckLevel = "automated"
	CheckDocument  CheckLevel = "document"
	CheckInterview CheckLevel = "interview"
)

// TaskTemplate — мастер-задача. Одна задача может закрывать несколько
// требований, в том числе из разных стандартов.
type TaskTemplate struct {
	gorm.Model
	Title           string     `gorm:"size:255;not null"`
	Description     string     `gorm:"type:text"`
	Category        string     `gorm:"size:100"`
	DefaultPriority string     `gorm:"size:32"`
	HighLevelCheck  CheckLevel `gorm:"type:varchar(20)"`

	// дескриптор автоматизации
	CheckType       string `gorm:"size:64"`
	CheckTarget     string `gorm:"size:255"`
	CheckParameters string `gorm:"type:text"`

	EvidenceTypesExpected StringList `gorm:"type:text"`
}
