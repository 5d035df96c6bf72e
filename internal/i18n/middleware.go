package i18n

import (
	"github.com/gin-gonic/gin"
)

const localizerKey = "localizer"

// Middleware 根据 ?lang= 或 Accept-Language 选择语言
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := NewLocalizer(c.Query("lang"), c.GetHeader("Accept-Language"))
		c.Set(localizerKey, loc)
		c.Request = c.Request.WithContext(WithLocalizer(c.Request.Context(), loc))
		c.Next()
	}
}
