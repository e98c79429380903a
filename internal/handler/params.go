package handlers

import (
	"math"
	"strconv"

	apperrors "MediaScribe/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

func queryFloat(c *gin.Context, name string) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, apperrors.WithCodef(apperrors.CodeValidation, "query %s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.WithCodef(apperrors.CodeValidation, "query %s: %q is not a finite number", name, raw)
	}
	return v, nil
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// bind decodes the JSON body into v; a decode failure is a validation error.
func bind(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperrors.WrapCode(err, apperrors.CodeValidation, "invalid request")
	}
	return nil
}
