package utils

import (
	"github.com/gin-gonic/gin"
)

// Format response standar biar frontend enak bacanya.
// Code diisi hanya saat error: kode stabil yang bisa frontend
// terjemahkan ke teks lokal (ALREADY_CLAIMED, INSUFFICIENT_BALANCE, dst)
type Response struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"` // omitempty: kalau null, ga usah dimunculin
}

func APIResponse(c *gin.Context, code int, success bool, message string, data interface{}) {
	c.JSON(code, Response{
		Success: success,
		Message: message,
		Data:    data,
	})
}

// APIError seperti APIResponse tapi membawa kode error stabil
func APIError(c *gin.Context, httpStatus int, errCode string, message string) {
	c.JSON(httpStatus, Response{
		Success: false,
		Code:    errCode,
		Message: message,
	})
}
