package middleware

import (
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Sentry 错误上报中间件
// 上报 5xx 请求中通过 c.Error 记录的错误，以及 panic（上报后重新抛出交给 gin.Recovery）
// sentry 未初始化（未配置 DSN）时直接放行
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sentry.CurrentHub().Client() == nil {
			c.Next()
			return
		}

		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)

		defer func() {
			if r := recover(); r != nil {
				tagScope(hub, c)
				hub.RecoverWithContext(c.Request.Context(), r)
				panic(r)
			}
		}()

		c.Next()

		if c.Writer.Status() < 500 || len(c.Errors) == 0 {
			return
		}
		tagScope(hub, c)
		for _, e := range c.Errors {
			hub.CaptureException(e.Err)
		}
	}
}

func tagScope(hub *sentry.Hub, c *gin.Context) {
	scope := hub.Scope()
	scope.SetTag("request_id", c.GetString(requestIDKey))
	scope.SetTag("route", c.FullPath())
	if actor := c.GetString("user_id"); actor != "" {
		scope.SetUser(sentry.User{ID: actor})
	}
}
