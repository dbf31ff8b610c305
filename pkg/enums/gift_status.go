package enums

import "fmt"

// GiftStatus tracks where a gift record sits in its lifecycle. The local
// cache vocabulary uses selected/saved_for_later/purchased; the remote
// store persists pre-order records as idea. The reconciliation engine maps
// between the two.
type GiftStatus string

const (
	GiftStatusSelected      GiftStatus = "selected"
	GiftStatusSavedForLater GiftStatus = "saved_for_later"
	GiftStatusPurchased     GiftStatus = "purchased"
	GiftStatusIdea          GiftStatus = "idea"
)

var validGiftStatuses = []GiftStatus{
	GiftStatusSelected,
	GiftStatusSavedForLater,
	GiftStatusPurchased,
	GiftStatusIdea,
}

// String implements fmt.Stringer.
func (g GiftStatus) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GiftStatus.
func (g GiftStatus) IsValid() bool {
	for _, candidate := range validGiftStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGiftStatus converts raw input into a GiftStatus.
func ParseGiftStatus(value string) (GiftStatus, error) {
	for _, candidate := range validGiftStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gift status %q", value)
}
