package address

import (
	"regexp"
	"strings"

	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

var postalCodePatterns = map[string]*regexp.Regexp{
	"US": regexp.MustCompile(`^\d{5}(-\d{4})?$`),
	"CA": regexp.MustCompile(`^[A-Za-z]\d[A-Za-z][ -]?\d[A-Za-z]\d$`),
	"GB": regexp.MustCompile(`^[A-Za-z]{1,2}\d[A-Za-z\d]?\s?\d[A-Za-z]{2}$`),
}

// genericPostalCode covers countries without a dedicated pattern.
var genericPostalCode = regexp.MustCompile(`^[A-Za-z\d][A-Za-z\d\s-]{1,9}$`)

// Validate applies the shipping-address rules and returns the normalized
// address on success. The country defaults to US when absent.
func Validate(input types.Address) (types.Address, error) {
	normalized := input.Normalized()

	var missing []string
	if normalized.Line1 == "" {
		missing = append(missing, "line1")
	}
	if normalized.City == "" {
		missing = append(missing, "city")
	}
	if normalized.State == "" {
		missing = append(missing, "state")
	}
	if normalized.PostalCode == "" {
		missing = append(missing, "postal_code")
	}
	if len(missing) > 0 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "address is missing required fields").
			WithDetails(map[string]any{"missing": missing})
	}

	pattern, ok := postalCodePatterns[normalized.Country]
	if !ok {
		pattern = genericPostalCode
	}
	if !pattern.MatchString(normalized.PostalCode) {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "postal code format is invalid for "+normalized.Country)
	}

	if normalized.Country == "US" && len(normalized.State) != 2 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "US state must be a two-letter code")
	}

	return normalized, nil
}

// ValidateOptional accepts a nil or fully-empty address as valid (recipients
// may be created before a shipping address is known).
func ValidateOptional(input *types.Address) (*types.Address, error) {
	if input == nil || input.IsZero() {
		return nil, nil
	}
	normalized, err := Validate(*input)
	if err != nil {
		return nil, err
	}
	return &normalized, nil
}

// Summarize renders a single-line form used in logs and order notes.
func Summarize(a types.Address) string {
	parts := []string{a.Line1}
	if a.Line2 != nil && strings.TrimSpace(*a.Line2) != "" {
		parts = append(parts, *a.Line2)
	}
	parts = append(parts, a.City, a.State, a.PostalCode, a.Country)
	return strings.Join(parts, ", ")
}
