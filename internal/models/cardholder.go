package models

import (
	"github.com/shopspring/decimal"
)

// Cardholder is a configured buyer with a corporate card and a credit limit.
type Cardholder struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Company     string          `json:"company" yaml:"company"`
	Email       string          `json:"email,omitempty" yaml:"email"`
	CreditLimit decimal.Decimal `json:"credit_limit" yaml:"credit_limit"`
	DueDay      int             `json:"due_day" yaml:"due_day"`
}

// CalculateUtilization returns the utilized share of the credit limit.
func (c *Cardholder) CalculateUtilization(utilized decimal.Decimal) decimal.Decimal {
	if c.CreditLimit.IsZero() {
		return decimal.Zero
	}
	return utilized.Div(c.CreditLimit)
}

// LimitSummary is the limit position of a cardholder at a given instant.
type LimitSummary struct {
	CardholderID string          `json:"cardholder_id"`
	Limit        decimal.Decimal `json:"limit"`
	Utilized     decimal.Decimal `json:"utilized"`
	Available    decimal.Decimal `json:"available"`
	Utilization  float64         `json:"utilization"` // Calculated
}

// NewLimitSummary builds the summary for the given utilized amount.
func NewLimitSummary(c Cardholder, utilized decimal.Decimal) LimitSummary {
	return LimitSummary{
		CardholderID: c.ID,
		Limit:        c.CreditLimit,
		Utilized:     utilized,
		Available:    c.CreditLimit.Sub(utilized),
		Utilization:  c.CalculateUtilization(utilized).InexactFloat64(),
	}
}
