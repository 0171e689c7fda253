package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseguide-backend/internal/platform/apierr"
)

// ErrorBody is the only error shape clients see.
type ErrorBody struct {
	Error string `json:"error"`
}

// RespondError writes the public status and message for err. Causes wrapped in
// err are never serialized.
func RespondError(c *gin.Context, err error) {
	status, msg := apierr.Public(err)
	c.JSON(status, ErrorBody{Error: msg})
}

func RespondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorBody{Error: msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
