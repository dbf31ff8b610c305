package enums

import "fmt"

// GiftBucket names the two local-cache partitions a stored gift can live in.
type GiftBucket string

const (
	GiftBucketSelected      GiftBucket = "selected"
	GiftBucketSavedForLater GiftBucket = "saved_for_later"
)

var validGiftBuckets = []GiftBucket{
	GiftBucketSelected,
	GiftBucketSavedForLater,
}

// String implements fmt.Stringer.
func (g GiftBucket) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GiftBucket.
func (g GiftBucket) IsValid() bool {
	for _, candidate := range validGiftBuckets {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGiftBucket converts raw input into a GiftBucket.
func ParseGiftBucket(value string) (GiftBucket, error) {
	for _, candidate := range validGiftBuckets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gift bucket %q", value)
}
