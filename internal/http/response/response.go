package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/titlememory-backend/internal/platform/apierr"
)

type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError renders err through the apierr taxonomy. Unexpected
// failures get a generic message.
func RespondAPIError(c *gin.Context, err error) {
	e := apierr.As(err)
	c.AbortWithStatusJSON(e.Status, ErrorEnvelope{
		Error: APIError{
			Message: e.PublicMessage(),
			Code:    e.Code,
			Details: e.Details,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
