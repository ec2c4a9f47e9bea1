package database

import (
	"context"
	"log"
	"time"

	"compliance-hub/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Timeout ограничивает обращения к хранилищу; выставляется из конфига.
var Timeout = 5 * time.Second

func Init(dsn string) {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Printf("trying to connect to DB (attempt %d/%d)...", i, maxAttempts)

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			log.Println("connected to DB successfully")
			break
		}

		log.Printf("failed to connect to DB: %v", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatalf("failed to connect to db after %d attempts: %v", maxAttempts, err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	seedDefaultUsers()
}

// Migrate прогоняет автомиграции. Вынесено отдельно, чтобы тесты могли
// поднять те же таблицы на in-memory sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Standard{},
		&models.Requirement{},
		&models.TaskTemplate{},
		&models.Risk{},
		&models.Document{},
		&models.TaskRequirement{},
		&models.TaskDocument{},
		&models.RequirementRisk{},
		&models.Campaign{},
		&models.CampaignRequirement{},
		&models.TaskInstance{},
		&models.Evidence{},
		&models.Comment{},
		&models.AuditLog{},
		&models.IdempotencyKey{},
	)
}

// Ctx оборачивает контекст запроса таймаутом хранилища.
func Ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, Timeout)
}

// пара справочных пользователей, чтобы задачам было на кого ссылаться
func seedDefaultUsers() {
	users := []models.User{
		{Username: "admin@compliance.local", DisplayName: "Administrator"},
		{Username: "auditor@compliance.local", DisplayName: "Lead Auditor"},
	}

	for _, u := range users {
		var count int64
		if err := DB.Model(&models.User{}).
			Where("username = ?", u.Username).
			Count(&count).Error; err != nil {
			log.Printf("failed to check seed user %s: %v", u.Username, err)
			continue
		}
		if count > 0 {
			// уже есть — пропускаем
			continue
		}

		if err := DB.Create(&u).Error; err != nil {
			log.Printf("failed to create seed user %s: %v", u.Username, err)
			continue
		}

		log.Printf("created seed user: %s", u.Username)
	}
}
