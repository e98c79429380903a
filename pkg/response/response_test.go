package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "MediaScribe/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperTranslator struct{}

func (upperTranslator) T(lang, key string, data map[string]interface{}) string {
	return lang + ":" + key
}

func perform(t *testing.T, err error, withTranslator bool) (*httptest.ResponseRecorder, Body) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if withTranslator {
		c.Set(LangKey, "zh")
		c.Set(TranslatorKey, upperTranslator{})
	}
	Error(c, err)

	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorMapsCodesToStatus(t *testing.T) {
	cases := map[int]int{
		apperrors.CodeOverlap:    http.StatusConflict,
		apperrors.CodeValidation: http.StatusBadRequest,
		apperrors.CodeNotFound:   http.StatusNotFound,
		apperrors.CodeTimeout:    http.StatusGatewayTimeout,
		apperrors.CodeUnknown:    http.StatusInternalServerError,
	}
	for code, status := range cases {
		w, body := perform(t, apperrors.WithCode(code, "boom"), false)
		assert.Equal(t, status, w.Code)
		assert.Equal(t, apperrors.CodeName(code), body.Error)
		assert.Equal(t, "boom", body.Msg)
	}
}

func TestErrorLocalizesMessage(t *testing.T) {
	_, body := perform(t, apperrors.Wrap(apperrors.WithCode(apperrors.CodeOverlap, "clip c2 overlaps c1"), "move clip"), true)
	assert.Equal(t, "zh:error.overlap_error", body.Msg)
	assert.Equal(t, "move clip: clip c2 overlaps c1", body.Detail)
}
