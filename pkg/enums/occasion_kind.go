package enums

import "fmt"

// OccasionKind classifies the dated events gifts are planned around.
type OccasionKind string

const (
	OccasionKindBirthday    OccasionKind = "birthday"
	OccasionKindHoliday     OccasionKind = "holiday"
	OccasionKindAnniversary OccasionKind = "anniversary"
	OccasionKindOther       OccasionKind = "other"
)

var validOccasionKinds = []OccasionKind{
	OccasionKindBirthday,
	OccasionKindHoliday,
	OccasionKindAnniversary,
	OccasionKindOther,
}

// String implements fmt.Stringer.
func (o OccasionKind) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OccasionKind.
func (o OccasionKind) IsValid() bool {
	for _, candidate := range validOccasionKinds {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOccasionKind converts raw input into an OccasionKind.
func ParseOccasionKind(value string) (OccasionKind, error) {
	for _, candidate := range validOccasionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid occasion kind %q", value)
}
