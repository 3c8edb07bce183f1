package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(price, qty string) BidItemInput {
	return BidItemInput{SupplierUnitPrice: dec(price), Quantity: dec(qty)}
}

func assertDec(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestCalculateBidDomestic(t *testing.T) {
	items := []BidItemInput{
		item("100", "10"),
		item("49.99", "3"),
		item("0.10", "7"),
	}

	calc, err := CalculateBid(items, Options{TradeType: TradeDomesticIndia})
	require.NoError(t, err)
	require.Len(t, calc.Items, 3)

	assertDec(t, "0.005", calc.PlatformFeeRate)

	assertDec(t, "100.50", calc.Items[0].BuyerUnitPrice)
	assertDec(t, "1005.00", calc.Items[0].BuyerLineTotal)
	assertDec(t, "50.24", calc.Items[1].BuyerUnitPrice)
	assertDec(t, "150.72", calc.Items[1].BuyerLineTotal)
	assertDec(t, "0.10", calc.Items[2].BuyerUnitPrice)
	assertDec(t, "0.70", calc.Items[2].BuyerLineTotal)

	assertDec(t, "1156.42", calc.SubTotal)
	assertDec(t, "208.16", calc.GSTAmount)
	assertDec(t, "1364.58", calc.GrandTotal)
	assertDec(t, "5.75", calc.PlatformFeeAmount)
}

func TestCalculateBidImportWithTransport(t *testing.T) {
	items := []BidItemInput{item("197.50", "4")}
	opts := Options{TradeType: TradeImport, TransportPerUnit: dec("2.50")}

	calc, err := CalculateBid(items, opts)
	require.NoError(t, err)

	// supplier rate 200.00, cross-border fee 1% -> 202.00 per unit
	assertDec(t, "0.01", calc.PlatformFeeRate)
	assertDec(t, "202.00", calc.Items[0].BuyerUnitPrice)
	assertDec(t, "808.00", calc.SubTotal)
	assertDec(t, "145.44", calc.GSTAmount)
	assertDec(t, "953.44", calc.GrandTotal)
	assertDec(t, "8.00", calc.PlatformFeeAmount)
}

func TestFeeRateByTradeType(t *testing.T) {
	assertDec(t, "0.005", FeeRate(TradeDomesticIndia))
	assertDec(t, "0.01", FeeRate(TradeImport))
	assertDec(t, "0.01", FeeRate(TradeExport))
}

// Step-wise rounding must win over end-only rounding: 0.66 * 1.005 =
// 0.6633 rounds to 0.66 per unit, so each line of 100 units totals
// 66.00. Rounding only the final sum would give 198.99 instead.
func TestCalculateBidStepwiseRounding(t *testing.T) {
	items := []BidItemInput{
		item("0.66", "100"),
		item("0.66", "100"),
		item("0.66", "100"),
	}

	calc, err := CalculateBid(items, Options{TradeType: TradeDomesticIndia})
	require.NoError(t, err)

	assertDec(t, "198.00", calc.SubTotal)
	assert.False(t, calc.SubTotal.Equal(dec("198.99")))
}

func TestCalculateBidIdempotent(t *testing.T) {
	items := []BidItemInput{
		item("100", "10"),
		item("49.99", "3"),
		item("0.10", "7"),
	}
	opts := Options{TradeType: TradeDomesticIndia}

	first, err := CalculateBid(items, opts)
	require.NoError(t, err)
	second, err := CalculateBid(items, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateBidGSTOrdering(t *testing.T) {
	items := []BidItemInput{
		item("100", "10"),
		item("49.99", "3"),
		item("0.10", "7"),
	}

	calc, err := CalculateBid(items, Options{TradeType: TradeDomesticIndia})
	require.NoError(t, err)

	// GST once on the fee-inclusive subtotal, then one final rounding.
	expectedGST := calc.SubTotal.Mul(dec("0.18")).Round(2)
	assert.True(t, calc.GSTAmount.Equal(expectedGST))
	assert.True(t, calc.GrandTotal.Equal(calc.SubTotal.Add(calc.GSTAmount).Round(2)))

	// Reordered items still satisfy the same invariant.
	reordered := []BidItemInput{items[1], items[2], items[0]}
	calc2, err := CalculateBid(reordered, Options{TradeType: TradeDomesticIndia})
	require.NoError(t, err)
	assert.True(t, calc2.GrandTotal.Equal(calc2.SubTotal.Add(calc2.GSTAmount).Round(2)))
}

func TestCalculateBidPreconditions(t *testing.T) {
	opts := Options{TradeType: TradeDomesticIndia}

	_, err := CalculateBid(nil, opts)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = CalculateBid([]BidItemInput{item("-1", "1")}, opts)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, verr.ItemIndex)
	assert.Equal(t, "supplier_unit_price", verr.Field)

	_, err = CalculateBid([]BidItemInput{item("10", "0")}, opts)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	// The failing item's index is reported, not just the first item.
	_, err = CalculateBid([]BidItemInput{item("10", "1"), item("10", "-2")}, opts)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.ItemIndex)
}

func TestCalculateSingleItemMatchesBatch(t *testing.T) {
	opts := Options{TradeType: TradeDomesticIndia}

	single, err := CalculateSingleItem(dec("49.99"), dec("3"), opts)
	require.NoError(t, err)

	batch, err := CalculateBid([]BidItemInput{item("49.99", "3")}, opts)
	require.NoError(t, err)

	assert.True(t, single.BuyerUnitPrice.Equal(batch.Items[0].BuyerUnitPrice))
	assert.True(t, single.BuyerLineTotal.Equal(batch.Items[0].BuyerLineTotal))
	assert.True(t, single.PlatformFeeAmount.Equal(batch.PlatformFeeAmount))
	assertDec(t, "50.24", single.BuyerUnitPrice)
	assertDec(t, "0.75", single.PlatformFeeAmount)
}

func TestCalculateSingleItemValidation(t *testing.T) {
	_, err := CalculateSingleItem(dec("0"), dec("1"), Options{TradeType: TradeExport})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCalculateBidFractionalQuantity(t *testing.T) {
	calc, err := CalculateBid([]BidItemInput{item("10.01", "2.5")}, Options{TradeType: TradeDomesticIndia})
	require.NoError(t, err)

	// 10.01 * 1.005 = 10.06005 -> 10.06; 10.06 * 2.5 = 25.15
	assertDec(t, "10.06", calc.Items[0].BuyerUnitPrice)
	assertDec(t, "25.15", calc.SubTotal)
	assertDec(t, "0.12", calc.PlatformFeeAmount)
}

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹1,364.58", FormatINR(dec("1364.58")))
	assert.Equal(t, "₹12,34,567.89", FormatINR(dec("1234567.89")))
	assert.Equal(t, "₹0.70", FormatINR(dec("0.7")))
	assert.Equal(t, "-₹150.00", FormatINR(dec("-150")))
}
