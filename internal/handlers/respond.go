package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"compliance-hub/internal/engine"

	"github.com/gin-gonic/gin"
)

// fail транслирует таксономию ошибок движка в HTTP-статусы.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrTransient):
		// повтор безопасен: операции идемпотентны
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func parseUintQuery(c *gin.Context, name string) uint {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return 0
	}
	return uint(v)
}
