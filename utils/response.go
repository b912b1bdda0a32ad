package utils

import "github.com/gin-gonic/gin"

// JSONResponse defines the uniform structure for the JSON endpoints
// (health and stats); page handlers render templates instead.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(200, JSONResponse{Code: 0, Message: "success", Data: data})
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	ctx.JSON(status, JSONResponse{Code: code, Message: message})
}
