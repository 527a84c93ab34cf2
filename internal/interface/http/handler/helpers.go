package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// parseID 解析路径参数中的图书ID
// 非数字或0返回false，调用方按"图书不存在"处理
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// userMessage 返回展示给用户的错误提示
// 系统错误不暴露内部细节
func userMessage(err error) string {
	appErr := apperrors.GetAppError(err)
	if apperrors.HTTPStatus(appErr) >= 500 {
		return "Something went wrong, please try again later"
	}
	return appErr.Message
}

// notFoundMessage 路径ID非法时的提示，格式与book.NotFoundError一致
func notFoundMessage(raw string) string {
	return fmt.Sprintf("Book not found with id: %s", raw)
}
