package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeLaneTransition = "LANE_TRANSITION"
	EventTypeBidPriced      = "BID_PRICED"
	EventTypeDemandSignal   = "DEMAND_SIGNAL"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// LaneTransitionEvent published once per lane state transition
type LaneTransitionEvent struct {
	BaseEvent
	Country    string         `json:"country"`
	Category   string         `json:"category"`
	FromState  string         `json:"from_state"`
	ToState    string         `json:"to_state"`
	Actor      string         `json:"actor"`
	OccurredAt time.Time      `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// BidPricedEvent published when a supplier bid has been priced
type BidPricedEvent struct {
	BaseEvent
	BidID             int64           `json:"bid_id"`
	RFQID             int64           `json:"rfq_id"`
	SupplierID        string          `json:"supplier_id"`
	TradeType         string          `json:"trade_type"`
	SubTotal          decimal.Decimal `json:"sub_total"`
	GSTAmount         decimal.Decimal `json:"gst_amount"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	PlatformFeeAmount decimal.Decimal `json:"platform_fee_amount"`
}

// DemandSignalEvent consumed by the demand worker; emitted by the
// buyer-facing surfaces whenever demand for a lane is observed
type DemandSignalEvent struct {
	BaseEvent
	Country     string          `json:"country"`
	Category    string          `json:"category"`
	DemandValue decimal.Decimal `json:"demand_value"`
	IntentScore int             `json:"intent_score"`
}
