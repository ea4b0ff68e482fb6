// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mintcart/mintcart-backend/internal/i18n"
)

// I18nMiddleware picks the first supported language from ?lang= or
// Accept-Language and stores it under "lang".
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supported := make(map[string]bool)
		for _, lang := range i18n.GetSupportedLanguages() {
			supported[lang] = true
		}

		lang := defaultLang
		if q := normalizeLang(c.Query("lang")); supported[q] {
			lang = q
		} else {
			// Handle cases like "zh-TW,zh;q=0.9,en;q=0.8"
			for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
				candidate := normalizeLang(strings.Split(part, ";")[0])
				if supported[candidate] {
					lang = candidate
					break
				}
			}
		}

		c.Set("lang", lang)
		c.Next()
	}
}

func normalizeLang(tag string) string {
	tag = strings.TrimSpace(tag)
	switch tag {
	case "zh-TW", "zh-Hant", "zh_TW", "zh-HK":
		return "zh_TW"
	}
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
