package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Supplier represents a registered supplier profile
type Supplier struct {
	ID          string         `db:"id" json:"id"`
	CompanyName string         `db:"company_name" json:"company_name"`
	Country     string         `db:"country" json:"country"`
	Categories  pq.StringArray `db:"categories" json:"categories"`
	Verified    bool           `db:"verified" json:"verified"`
	Tier        string         `db:"tier" json:"tier"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Lane represents a (country, category) demand lane
type Lane struct {
	Country     string          `db:"country" json:"country"`
	Category    string          `db:"category" json:"category"`
	State       string          `db:"state" json:"state"`
	DemandValue decimal.Decimal `db:"demand_value" json:"demand_value"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// LaneCapacity represents provisioned monthly capacity for a lane
type LaneCapacity struct {
	Country                string          `db:"country" json:"country"`
	Category               string          `db:"category" json:"category"`
	MonthlyCapacityValue   decimal.Decimal `db:"monthly_capacity_value" json:"monthly_capacity_value"`
	AllocatedCapacityValue decimal.Decimal `db:"allocated_capacity_value" json:"allocated_capacity_value"`
}

// LaneLock reserves a lane for explicitly assigned suppliers
type LaneLock struct {
	ID       int64  `db:"id" json:"id"`
	Country  string `db:"country" json:"country"`
	Category string `db:"category" json:"category"`
	Active   bool   `db:"active" json:"active"`
}

// LaneAssignment binds a supplier to a lane lock
type LaneAssignment struct {
	ID           int64  `db:"id" json:"id"`
	LockID       int64  `db:"lock_id" json:"lock_id"`
	SupplierID   string `db:"supplier_id" json:"supplier_id"`
	PriorityRank int    `db:"priority_rank" json:"priority_rank"`
	Active       bool   `db:"active" json:"active"`
}

// LaneTransitionRecord is the persisted form of a lane transition audit
// event. Rows are insert-only; the table is the compliance trail.
type LaneTransitionRecord struct {
	ID         int64     `db:"id" json:"id"`
	Country    string    `db:"country" json:"country"`
	Category   string    `db:"category" json:"category"`
	FromState  string    `db:"from_state" json:"from_state"`
	ToState    string    `db:"to_state" json:"to_state"`
	Actor      string    `db:"actor" json:"actor"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	Metadata   []byte    `db:"metadata" json:"metadata,omitempty"`
}

// Bid represents a priced supplier bid on an RFQ
type Bid struct {
	ID                int64           `db:"id" json:"id"`
	RFQID             int64           `db:"rfq_id" json:"rfq_id"`
	SupplierID        string          `db:"supplier_id" json:"supplier_id"`
	TradeType         string          `db:"trade_type" json:"trade_type"`
	SubTotal          decimal.Decimal `db:"sub_total" json:"sub_total"`
	GSTAmount         decimal.Decimal `db:"gst_amount" json:"gst_amount"`
	GrandTotal        decimal.Decimal `db:"grand_total" json:"grand_total"`
	PlatformFeeRate   decimal.Decimal `db:"platform_fee_rate" json:"platform_fee_rate"`
	PlatformFeeAmount decimal.Decimal `db:"platform_fee_amount" json:"platform_fee_amount"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// BidItem represents one priced line item of a bid
type BidItem struct {
	ID                int64           `db:"id" json:"id"`
	BidID             int64           `db:"bid_id" json:"bid_id"`
	SupplierUnitPrice decimal.Decimal `db:"supplier_unit_price" json:"supplier_unit_price"`
	BuyerUnitPrice    decimal.Decimal `db:"buyer_unit_price" json:"buyer_unit_price"`
	BuyerLineTotal    decimal.Decimal `db:"buyer_line_total" json:"buyer_line_total"`
	Quantity          decimal.Decimal `db:"quantity" json:"quantity"`
}
