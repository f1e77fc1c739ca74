// Package response holds the JSON envelope shared by every handler.
// Errors always serialize as {"error":{"message","code"}} so clients
// can branch on the code without parsing messages.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	envelope := ErrorEnvelope{Error: APIError{Message: "unknown error", Code: code}}
	if err != nil {
		envelope.Error.Message = err.Error()
	}
	c.AbortWithStatusJSON(status, envelope)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
