// Package i18n localizes user-facing error messages.
package i18n

import (
	"embed"
	"sync"

	json "github.com/goccy/go-json"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle   *goi18n.Bundle
	initOnce sync.Once
)

// Init loads the embedded message files. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)
		for _, name := range []string{"locales/active.en.json", "locales/active.id.json"} {
			data, err := localeFS.ReadFile(name)
			if err != nil {
				continue
			}
			_, _ = b.ParseMessageFileBytes(data, name)
		}
		bundle = b
	})
}

// Localize renders messageID for the Accept-Language value, falling back
// to fallback when no translation exists.
func Localize(acceptLanguage, messageID, fallback string, data map[string]interface{}) string {
	Init()
	loc := goi18n.NewLocalizer(bundle, acceptLanguage)
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:      messageID,
		TemplateData:   data,
		DefaultMessage: &goi18n.Message{ID: messageID, Other: fallback},
	})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
