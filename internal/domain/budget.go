package domain

import (
	"time"

	"github.com/google/uuid"
)

// Budget is a spending target for a category (or overall when CategoryID is
// nil) within a period. Budgets are owned by an external collaborator; this
// service only reads them for progress reporting.
type Budget struct {
	ID          uuid.UUID  `json:"id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"` // nil = overall budget
	Amount      int64      `json:"amount"`                // in cents
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
}
