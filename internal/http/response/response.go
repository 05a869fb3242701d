package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error shape every route answers with.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorBody{Error: msg, Code: code})
}

// RespondMessage answers with a fixed message, for cases where the
// underlying error must stay server side.
func RespondMessage(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorBody{Error: msg, Code: code})
}

// RespondServiceError answers with StatusOf(err) and the public message.
func RespondServiceError(c *gin.Context, err error) {
	status, code := StatusOf(err)
	c.JSON(status, ErrorBody{Error: PublicMessage(err), Code: code})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
