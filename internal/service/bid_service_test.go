package service

import (
	"testing"

	"procurement-service/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeType(t *testing.T) {
	for _, valid := range []string{"domestic_india", "import", "export"} {
		tt, err := parseTradeType(valid)
		require.NoError(t, err)
		assert.Equal(t, pricing.TradeType(valid), tt)
	}

	_, err := parseTradeType("interstate")
	assert.ErrorIs(t, err, ErrUnknownTradeType)

	_, err = parseTradeType("")
	assert.ErrorIs(t, err, ErrUnknownTradeType)
}

func TestPriceBidPersistsCalculation(t *testing.T) {
	// Requires database and Kafka; covered by the pure calculator tests
	// in internal/pricing for the money math itself.
	t.Skip("Integration test - requires database and Kafka")
}
