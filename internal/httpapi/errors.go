package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

// errorResponse — единый формат ошибки API.
type errorResponse struct {
	Error string `json:"error"`
}

// writeDomainError переводит категорию доменной ошибки в HTTP-статус.
func writeDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch domain.Classify(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindStorage:
		// Детали инфраструктурных ошибок наружу не отдаются.
		message = "internal error"
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}

func writeBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: message})
}
