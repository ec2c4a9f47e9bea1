package engine

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Таксономия ошибок движка. Обработчики транслируют их в HTTP-статусы.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrTransient  = errors.New("transient storage error")
)

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// storeErr переводит ошибки хранилища в таксономию движка.
// Истёкший таймаут — транзиентная ошибка, повтор безопасен.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("record: %w", ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("storage timeout: %w", ErrTransient)
	default:
		return fmt.Errorf("storage: %v: %w", err, ErrTransient)
	}
}
