package middleware

import (
	"MediaScribe/pkg/i18n"
	"MediaScribe/pkg/response"

	"github.com/gin-gonic/gin"
)

// LanguageMiddleware resolves the response language from ?lang= or the
// Accept-Language header and exposes the translator to handlers.
func LanguageMiddleware(i18nSupport *i18n.I18nSupport) gin.HandlerFunc {
	return func(c *gin.Context) {
		accept := c.Query("lang")
		if accept == "" {
			accept = c.GetHeader("Accept-Language")
		}
		c.Set(response.LangKey, i18nSupport.Match(accept))
		c.Set(response.TranslatorKey, i18nSupport)
		c.Next()
	}
}
