package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Result is the uniform envelope returned by every class/document operation.
type Result struct {
	Success bool        `json:"success"`
	ClassID string      `json:"class_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Result{Success: true, Data: data})
}

func SuccessClassID(c *gin.Context, classID string) {
	c.JSON(http.StatusOK, Result{Success: true, ClassID: classID})
}

func OK(c *gin.Context) {
	c.JSON(http.StatusOK, Result{Success: true})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Result{Success: false, Error: message})
}
