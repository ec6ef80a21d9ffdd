package handler

import (
	"net/http"

	"go-gin-event-booking/internal/middleware"
	"go-gin-event-booking/internal/model"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

type idUri struct {
	ID int `uri:"id" binding:"required,min=1"`
}

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		writeBindError(c, err)
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		writeBindError(c, err)
		return err
	}
	return nil
}

func BindUri(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		writeBindError(c, err)
		return err
	}
	return nil
}

func bindID(c *gin.Context) (int, bool) {
	var uri idUri
	if err := BindUri(c, &uri); err != nil {
		return 0, false
	}
	return uri.ID, true
}

// currentActor 路由已經過 JWTAuth，取不到代表設定錯誤
func currentActor(c *gin.Context) (model.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, apperrors.KindUnauthorized, "authentication required", nil)
	}
	return a, ok
}

func writeBindError(c *gin.Context, err error) {
	writeError(c, http.StatusBadRequest, apperrors.KindInvalidInput, "Invalid request format", err)
}

// writeError 統一錯誤格式 {"error": {"code", "message"}}；detail 只在 debug 模式輸出
func writeError(c *gin.Context, status int, kind apperrors.Kind, message string, cause error) {
	body := gin.H{
		"code":    kind,
		"message": message,
	}
	if cause != nil && gin.Mode() == gin.DebugMode {
		body["detail"] = cause.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func handleSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
