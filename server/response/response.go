package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apiError "github.com/icebreakerhq/icebreaker/errors"
)

// JSON writes the envelope every endpoint responds with.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	var errs interface{}
	switch e := err.(type) {
	case nil:
		errs = nil
	case *apiError.Error:
		errs = e
	default:
		errs = e.Error()
	}

	responsedata := gin.H{
		"message": message,
		"data":    data,
		"errors":  errs,
		"status":  http.StatusText(status),
	}

	c.JSON(status, responsedata)
}
