package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// parsePolicy reads base_target_days and smart_lifecycle, falling back to defaults.
func parsePolicy(c *gin.Context, defaults domain.PlanPolicy) (domain.PlanPolicy, error) {
	policy := defaults

	if raw := strings.TrimSpace(c.Query("base_target_days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return policy, fmt.Errorf("base_target_days must be a non-negative integer, got %q", raw)
		}
		policy.BaseTargetDays = days
	}

	smart, err := parseBoolQuery(c, "smart_lifecycle", defaults.UseSmartLifecycle)
	if err != nil {
		return policy, err
	}
	policy.UseSmartLifecycle = smart

	return policy, nil
}

func parseBoolQuery(c *gin.Context, param string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(c.Query(param))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a boolean, got %q", param, raw)
	}
	return v, nil
}

func parseIntQuery(c *gin.Context, param string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(param))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback, fmt.Errorf("%s must be a non-negative integer, got %q", param, raw)
	}
	return v, nil
}
