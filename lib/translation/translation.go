package translation

import (
	"github.com/leonelquinteros/gotext"
	"strings"
)

const domain = "default"

// Configure loads <localesDir>/<lang>/LC_MESSAGES/default.po; English needs no file
func Configure(localesDir, lang string) {
	gotext.Configure(localesDir, strings.ToLower(lang), domain)
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
