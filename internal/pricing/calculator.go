package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TradeType determines which platform fee rate applies to a bid.
type TradeType string

const (
	TradeDomesticIndia TradeType = "domestic_india"
	TradeImport        TradeType = "import"
	TradeExport        TradeType = "export"
)

// Platform fee rates. Cross-border trades pay double the domestic rate
// to cover the additional handling risk.
var (
	domesticFeeRate    = decimal.NewFromFloat(0.005)
	crossBorderFeeRate = decimal.NewFromFloat(0.01)
	defaultGSTRate     = decimal.NewFromFloat(0.18)
)

// BidItemInput is one line item of a supplier bid, as quoted.
type BidItemInput struct {
	SupplierUnitPrice decimal.Decimal `json:"supplier_unit_price"`
	Quantity          decimal.Decimal `json:"quantity"`
}

// Options controls fee and tax application for a pricing run.
type Options struct {
	TradeType        TradeType       `json:"trade_type"`
	TransportPerUnit decimal.Decimal `json:"transport_per_unit"`
	GSTRate          decimal.Decimal `json:"gst_rate"`
}

// CalculatedItem is the buyer-facing result for one line item.
type CalculatedItem struct {
	SupplierUnitPrice decimal.Decimal `json:"supplier_unit_price"`
	BuyerUnitPrice    decimal.Decimal `json:"buyer_unit_price"`
	BuyerLineTotal    decimal.Decimal `json:"buyer_line_total"`
	Quantity          decimal.Decimal `json:"quantity"`
}

// CalculatedBid is the aggregate buyer-facing result for a full bid.
type CalculatedBid struct {
	Items             []CalculatedItem `json:"items"`
	SubTotal          decimal.Decimal  `json:"sub_total"`
	GSTAmount         decimal.Decimal  `json:"gst_amount"`
	GrandTotal        decimal.Decimal  `json:"grand_total"`
	PlatformFeeRate   decimal.Decimal  `json:"platform_fee_rate"`
	PlatformFeeAmount decimal.Decimal  `json:"platform_fee_amount"`
}

// SingleItemResult is the buyer-facing result for a single item quote,
// without GST. Used by legacy call sites that price one line at a time.
type SingleItemResult struct {
	SupplierUnitPrice decimal.Decimal `json:"supplier_unit_price"`
	BuyerUnitPrice    decimal.Decimal `json:"buyer_unit_price"`
	BuyerLineTotal    decimal.Decimal `json:"buyer_line_total"`
	Quantity          decimal.Decimal `json:"quantity"`
	PlatformFeeRate   decimal.Decimal `json:"platform_fee_rate"`
	PlatformFeeAmount decimal.Decimal `json:"platform_fee_amount"`
}

// ErrNoItems is returned when a bid has no line items.
var ErrNoItems = errors.New("bid has no items")

// ValidationError identifies the item and field that violated a pricing
// precondition. The calculator never clamps or defaults invalid input.
type ValidationError struct {
	ItemIndex int
	Field     string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bid item %d: %s %s", e.ItemIndex, e.Field, e.Message)
}

// roundMoney rounds a currency value to 2 decimal places, half-up.
// Applied after every arithmetic step that produces a currency value;
// rounding only at the end diverges by fractions of a rupee that
// compound across line items.
func roundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// FeeRate returns the platform fee rate for a trade type.
func FeeRate(t TradeType) decimal.Decimal {
	if t == TradeDomesticIndia {
		return domesticFeeRate
	}
	return crossBorderFeeRate
}

func (o Options) gstRate() decimal.Decimal {
	if o.GSTRate.IsZero() {
		return defaultGSTRate
	}
	return o.GSTRate
}

// calcItem prices one line item: transport added to the supplier rate,
// platform fee applied, every step rounded. Both the batch and the
// single-item entry points go through here so the two can never drift.
func calcItem(in BidItemInput, feeRate, transportPerUnit decimal.Decimal) (item CalculatedItem, feeDelta decimal.Decimal) {
	supplierRate := roundMoney(in.SupplierUnitPrice.Add(transportPerUnit))

	buyerUnitPrice := roundMoney(supplierRate.Mul(decimal.NewFromInt(1).Add(feeRate)))
	buyerLineTotal := roundMoney(buyerUnitPrice.Mul(in.Quantity))
	supplierLineTotal := roundMoney(supplierRate.Mul(in.Quantity))

	item = CalculatedItem{
		SupplierUnitPrice: in.SupplierUnitPrice,
		BuyerUnitPrice:    buyerUnitPrice,
		BuyerLineTotal:    buyerLineTotal,
		Quantity:          in.Quantity,
	}
	return item, roundMoney(buyerLineTotal.Sub(supplierLineTotal))
}

func validateItems(items []BidItemInput) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for i, it := range items {
		if it.SupplierUnitPrice.LessThanOrEqual(decimal.Zero) {
			return &ValidationError{ItemIndex: i, Field: "supplier_unit_price", Message: "must be greater than zero"}
		}
		if it.Quantity.LessThanOrEqual(decimal.Zero) {
			return &ValidationError{ItemIndex: i, Field: "quantity", Message: "must be greater than zero"}
		}
	}
	return nil
}

// CalculateBid converts supplier-quoted line items into buyer-facing
// prices. Items are processed in input order as an explicit fold:
// the subtotal and fee accumulators are rounded after every addition,
// so the result is order and step sensitive on purpose.
//
// GST is applied once, on the fee-inclusive subtotal. Fee before tax is
// a business-policy invariant; reversing it changes reportable tax.
func CalculateBid(items []BidItemInput, opts Options) (*CalculatedBid, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	feeRate := FeeRate(opts.TradeType)

	calc := &CalculatedBid{
		Items:             make([]CalculatedItem, 0, len(items)),
		SubTotal:          decimal.Zero,
		PlatformFeeRate:   feeRate,
		PlatformFeeAmount: decimal.Zero,
	}

	for _, in := range items {
		item, feeDelta := calcItem(in, feeRate, opts.TransportPerUnit)
		calc.Items = append(calc.Items, item)
		calc.SubTotal = roundMoney(calc.SubTotal.Add(item.BuyerLineTotal))
		calc.PlatformFeeAmount = roundMoney(calc.PlatformFeeAmount.Add(feeDelta))
	}

	calc.GSTAmount = roundMoney(calc.SubTotal.Mul(opts.gstRate()))
	calc.GrandTotal = roundMoney(calc.SubTotal.Add(calc.GSTAmount))

	return calc, nil
}

// CalculateSingleItem prices one item with the same fee and rounding
// logic as CalculateBid, without GST.
func CalculateSingleItem(supplierUnitPrice, quantity decimal.Decimal, opts Options) (*SingleItemResult, error) {
	in := BidItemInput{SupplierUnitPrice: supplierUnitPrice, Quantity: quantity}
	if err := validateItems([]BidItemInput{in}); err != nil {
		return nil, err
	}

	feeRate := FeeRate(opts.TradeType)
	item, feeDelta := calcItem(in, feeRate, opts.TransportPerUnit)

	return &SingleItemResult{
		SupplierUnitPrice: item.SupplierUnitPrice,
		BuyerUnitPrice:    item.BuyerUnitPrice,
		BuyerLineTotal:    item.BuyerLineTotal,
		Quantity:          item.Quantity,
		PlatformFeeRate:   feeRate,
		PlatformFeeAmount: feeDelta,
	}, nil
}

// FormatINR renders a money value for display, e.g. "₹1,364.58".
func FormatINR(v decimal.Decimal) string {
	s := v.StringFixed(2)

	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	whole, frac := s[:len(s)-3], s[len(s)-2:]

	// Indian digit grouping: last three digits, then groups of two.
	grouped := whole
	if len(whole) > 3 {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		for len(head) > 2 {
			tail = head[len(head)-2:] + "," + tail
			head = head[:len(head)-2]
		}
		grouped = head + "," + tail
	}

	out := "₹" + grouped + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
