package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"esculapi/internal/apperr"
)

// mapErrorToStatus единая таблица перевода видов ошибок в HTTP-статусы
func mapErrorToStatus(err error) int {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		// внутренние детали наружу не отдаются
		c.JSON(status, gin.H{"error": "Erro interno do servidor."})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
