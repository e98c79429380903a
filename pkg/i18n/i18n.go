package i18n

import (
	"embed"
	"encoding/json"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

// I18nSupport 国际化支持结构体
type I18nSupport struct {
	bundle  *i18n.Bundle
	tags    []language.Tag
	matcher language.Matcher
	lg      *zap.Logger
}

// NewI18nSupport loads the embedded en/zh message files.
func NewI18nSupport(defaultLang string, lg *zap.Logger) (*I18nSupport, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, err
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := path.Join("locales", e.Name())
		buf, err := locales.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(buf, name); err != nil {
			return nil, err
		}
	}

	// 默认语言放在首位，匹配失败时回退
	tags := []language.Tag{tag}
	for _, t := range bundle.LanguageTags() {
		if t != tag {
			tags = append(tags, t)
		}
	}
	return &I18nSupport{bundle: bundle, tags: tags, matcher: language.NewMatcher(tags), lg: lg}, nil
}

// Match picks the best supported language for an Accept-Language value or
// a bare tag such as "zh-CN".
func (i *I18nSupport) Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		tags = i.tags[:1]
	}
	_, idx, _ := i.matcher.Match(tags...)
	base, _ := i.tags[idx].Base()
	return base.String()
}

// T 获取翻译文本; unknown keys fall back to the key itself.
func (i *I18nSupport) T(languageTag, key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle, languageTag)

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		i.lg.Debug("missing translation", zap.String("key", key), zap.String("lang", languageTag), zap.Error(err))
		return key
	}
	return translation
}
