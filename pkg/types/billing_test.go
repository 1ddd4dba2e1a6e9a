package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillingCycle(t *testing.T) {
	for _, s := range []string{"monthly", "quarterly", "yearly"} {
		c, err := ParseBillingCycle(s)
		require.NoError(t, err)
		assert.Equal(t, BillingCycle(s), c)
	}

	for _, s := range []string{"weekly", "daily", "Monthly", ""} {
		_, err := ParseBillingCycle(s)
		assert.Error(t, err, "cycle %q must be rejected", s)
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("USD")
	require.NoError(t, err)
	assert.Equal(t, CurrencyUSD, c)

	_, err = ParseCurrency("usd")
	assert.Error(t, err)
	_, err = ParseCurrency("GBP")
	assert.Error(t, err)
}
