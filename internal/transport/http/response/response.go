package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                  = 0
	CodeBadRequest          = 40000
	CodeUnsupportedType     = 40001
	CodeEmailExists         = 40002
	CodeEmptySource         = 40003
	CodeSourceFetch         = 40004
	CodeMessageEmpty        = 40005
	CodePayloadTooLarge     = 40006
	CodeUnauthorized        = 40100
	CodeInvalidCredentials  = 40101
	CodeNotFound            = 40400
	CodeSessionNotFound     = 40401
	CodeUserNotFound        = 40402
	CodeTooManyRequests     = 42900
	CodeInternalServer      = 50000
	CodeMalformedGeneration = 50001
	CodeUnavailable         = 50300
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
