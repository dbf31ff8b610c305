package recipients

import (
	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

// CreateRecipientInput carries the fields accepted on recipient creation.
type CreateRecipientInput struct {
	Name         string
	Relationship string
	Interests    []string
	Address      *types.Address
	Notes        *string
}

// UpdateRecipientInput carries partial updates; nil fields are untouched.
type UpdateRecipientInput struct {
	Name         *string
	Relationship *string
	Interests    []string
	Address      *types.Address
	Notes        *string
}
