package resolution

import (
	"github.com/freshcart/freshcart-backend/internal/checkout"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Plan splits placement conflicts by the action that clears them.
type Plan struct {
	Removable  []checkout.Conflict `json:"removable"`
	Adjustable []checkout.Conflict `json:"adjustable"`
}

// Empty reports whether nothing is left to resolve.
func (p Plan) Empty() bool {
	return len(p.Removable) == 0 && len(p.Adjustable) == 0
}

// Classify places every conflict in exactly one list. Only a partial shortage with units left
// can be adjusted; everything else has to go.
func Classify(conflicts []checkout.Conflict) Plan {
	plan := Plan{
		Removable:  []checkout.Conflict{},
		Adjustable: []checkout.Conflict{},
	}
	for _, c := range conflicts {
		if c.ConflictType == enums.ConflictInsufficientStock && c.Available > 0 {
			plan.Adjustable = append(plan.Adjustable, c)
			continue
		}
		plan.Removable = append(plan.Removable, c)
	}
	return plan
}
