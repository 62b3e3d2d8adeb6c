package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ==================== 统一响应包 ====================

// respOK 成功响应
func respOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// respCreated 创建成功响应
func respCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// respMsg 仅消息的成功响应
func respMsg(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

// respErr 失败响应
func respErr(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
