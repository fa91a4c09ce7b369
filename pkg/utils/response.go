package utils

import (
	"github.com/gin-gonic/gin"

	appErrors "package-tracking/pkg/errors"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}

// AppErrorResponse writes err using the status mapped from its code.
func AppErrorResponse(c *gin.Context, err error) {
	appErr := appErrors.As(err)
	ErrorResponse(c, appErrors.HTTPStatus(appErr.Code), appErr.Code, appErr.Message)
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, status int, code, message string) {
	ErrorResponse(c, status, code, message)
	c.Abort()
}
