package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTranslateWithTemplate(t *testing.T) {
	i, err := NewI18nSupport("en", zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "Transcription did not finish within 5 minutes.",
		i.T("en", "error.timeout", map[string]interface{}{"Minutes": 5}))
	assert.Equal(t, "转写未能在 5 分钟内完成。",
		i.T("zh", "error.timeout", map[string]interface{}{"Minutes": 5}))
	assert.Equal(t, "no.such.key", i.T("en", "no.such.key", nil))
}

func TestMatchAcceptLanguage(t *testing.T) {
	i, err := NewI18nSupport("en", nil)
	require.NoError(t, err)

	assert.Equal(t, "zh", i.Match("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", i.Match("fr-FR"))
	assert.Equal(t, "en", i.Match(""))
}
