package enums

import "fmt"

// GiftOrigin tags which store a unified-view record came from. It exists
// only for reconciliation decisions and is never persisted.
type GiftOrigin string

const (
	GiftOriginLocal  GiftOrigin = "local"
	GiftOriginRemote GiftOrigin = "remote"
)

var validGiftOrigins = []GiftOrigin{
	GiftOriginLocal,
	GiftOriginRemote,
}

// String implements fmt.Stringer.
func (g GiftOrigin) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GiftOrigin.
func (g GiftOrigin) IsValid() bool {
	for _, candidate := range validGiftOrigins {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGiftOrigin converts raw input into a GiftOrigin.
func ParseGiftOrigin(value string) (GiftOrigin, error) {
	for _, candidate := range validGiftOrigins {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gift origin %q", value)
}
