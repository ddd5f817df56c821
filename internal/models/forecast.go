package models

import (
	"fmt"
	"time"
)

// RetentionFit is the transport shape of a fitted retention curve. Scale and
// Exponent are nil when the curve is undefined.
type RetentionFit struct {
	Scale    *float64 `json:"scale"`
	Exponent *float64 `json:"exponent"`
	RSquared float64  `json:"r_squared"`
	Defined  bool     `json:"defined"`
	Points   int      `json:"points"`
}

// Formula renders the curve for display, or an empty string when undefined.
func (f RetentionFit) Formula() string {
	if !f.Defined || f.Scale == nil || f.Exponent == nil {
		return ""
	}
	return fmt.Sprintf("retention = %.4f * day ^ (-%.4f)", *f.Scale, *f.Exponent)
}

// ForecastResult is the outcome of a DAU projection.
type ForecastResult struct {
	ForecastID       string       `json:"forecast_id"`
	Fit              RetentionFit `json:"fit"`
	Formula          string       `json:"formula,omitempty"`
	Series           []float64    `json:"series"`
	InsufficientData bool         `json:"insufficient_data"`
	CreatedAt        time.Time    `json:"created_at"`
}

// LifetimeResult reports LT-n for a fitted curve.
type LifetimeResult struct {
	Days     int          `json:"days"`
	Lifetime float64      `json:"lifetime"`
	Fit      RetentionFit `json:"fit"`
}
