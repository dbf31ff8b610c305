package gifts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToCents(t *testing.T) {
	require.Equal(t, int64(4500), ToCents(decimal.NewFromFloat(45.00)))
	require.Equal(t, int64(4599), ToCents(decimal.NewFromFloat(45.99)))
	require.Equal(t, int64(100), ToCents(decimal.NewFromInt(1)))
	require.Equal(t, int64(1), ToCents(decimal.NewFromFloat(0.01)))
	require.Equal(t, int64(4501), ToCents(decimal.RequireFromString("45.005")))
}

func TestFromCents(t *testing.T) {
	require.True(t, FromCents(4500).Equal(decimal.NewFromFloat(45.00)))
	require.Equal(t, "45", FromCents(4500).String())
	require.Equal(t, "45.99", FromCents(4599).String())
	require.Equal(t, "0.01", FromCents(1).String())
}

func TestCentsRoundTrip(t *testing.T) {
	for _, value := range []string{"45.00", "0.99", "12.34", "100", "0.01"} {
		price := decimal.RequireFromString(value)
		require.True(t, FromCents(ToCents(price)).Equal(price), "round trip %s", value)
	}
}
