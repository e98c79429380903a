package response

import (
	"net/http"

	apperrors "MediaScribe/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Context keys set by the language middleware.
const (
	LangKey       = "lang"
	TranslatorKey = "i18n"
)

// Translator localizes message keys.
type Translator interface {
	T(lang, key string, data map[string]interface{}) string
}

type Body struct {
	Code   int         `json:"code"`
	Msg    string      `json:"msg"`
	Error  string      `json:"error,omitempty"`
	Detail string      `json:"detail,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Msg: msg, Data: data})
}

func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Code: 0, Msg: msg, Data: data})
}

func Accepted(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Code: 0, Msg: msg, Data: data})
}

// Fail answers 400 with a plain message.
func Fail(c *gin.Context, msg string, data interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Body{Code: http.StatusBadRequest, Msg: msg, Error: apperrors.CodeName(apperrors.CodeValidation), Data: data})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code int) int {
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeOverlap, apperrors.CodeConflict:
		return http.StatusConflict
	case apperrors.CodeUploadFailure, apperrors.CodeJobCreationFailure,
		apperrors.CodeTranscriptionFailure, apperrors.CodePollTransientFailure:
		return http.StatusBadGateway
	case apperrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error answers with the status for err's code and a localized message.
func Error(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := StatusFor(code)
	name := apperrors.CodeName(code)

	msg := apperrors.GetMessage(err)
	if tr, ok := c.Value(TranslatorKey).(Translator); ok {
		msg = tr.T(c.GetString(LangKey), "error."+name, map[string]interface{}{"Detail": apperrors.GetMessage(err)})
	}
	c.AbortWithStatusJSON(status, Body{Code: status, Msg: msg, Error: name, Detail: err.Error()})
}
