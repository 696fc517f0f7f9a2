package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ParsePercent accepts both "2.5" and "2,5". An empty value is zero.
func ParsePercent(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if strings.Contains(value, ",") && strings.Contains(value, ".") {
		return 0, errors.New("use a single decimal separator")
	}
	value = strings.ReplaceAll(value, ",", ".")
	pct, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.New("percentage must be a number")
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, errors.New("percentage must be finite")
	}
	return pct, nil
}

// PercentOf truncates toward zero, the way the platform casts fee amounts.
func PercentOf(amount int64, pct float64) int64 {
	return int64(float64(amount) * (pct / 100))
}
