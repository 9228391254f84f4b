package dto

import "time"

type TransactionFilters struct {
	BusinessID string     `form:"-"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	CreatedBy  string     `form:"created_by"`
	Page       int        `form:"-"`
	PageSize   int        `form:"-"`
}
