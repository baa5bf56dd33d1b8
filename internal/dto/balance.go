package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceResponse is returned by the balance endpoint.
type BalanceResponse struct {
	AccountID string          `json:"accountID"`
	AsOf      time.Time       `json:"asOf"`
	Balance   decimal.Decimal `json:"balance"`
}

// MovementResponse is returned by the movement endpoint.
type MovementResponse struct {
	AccountID string          `json:"accountID"`
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
	Movement  decimal.Decimal `json:"movement"`
}

// BalanceQueryParams are the query parameters for balance lookups.
type BalanceQueryParams struct {
	AsOf *time.Time `form:"asOf" time_format:"2006-01-02" time_utc:"1"`
}

// MovementQueryParams are the query parameters for movement lookups.
type MovementQueryParams struct {
	StartDate time.Time `form:"start" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	EndDate   time.Time `form:"end" time_format:"2006-01-02" time_utc:"1" binding:"required"`
}
