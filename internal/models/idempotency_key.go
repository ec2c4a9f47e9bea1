package models

import "time"

// IdempotencyKey — записанный ответ мутирующего запроса. Повтор с тем же
// ключом возвращает сохранённый ответ вместо повторного исполнения.
type IdempotencyKey struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time

	Key    string `gorm:"size:64;uniqueIndex;not null"`
	Method string `gorm:"size:10;not null"`
	Path   string `gorm:"size:255;not null"`

	StatusCode   int    `gorm:"not null"`
	ResponseBody string `gorm:"type:text"`
}
