package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
)

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, key+" must be a boolean")
	}
	return value, nil
}

func requiredQuery(c *gin.Context, key string) (string, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, key+" required")
	}
	return value, nil
}
