package store

import (
	"context"
	"database/sql"
	"fmt"

	"procurement-service/internal/models"
)

// CreateBid persists a priced bid header
func (s *Store) CreateBid(ctx context.Context, bid *models.Bid) error {
	query := `
		INSERT INTO bids (rfq_id, supplier_id, trade_type, sub_total, gst_amount, grand_total, platform_fee_rate, platform_fee_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, bid, query,
		bid.RFQID, bid.SupplierID, bid.TradeType,
		bid.SubTotal, bid.GSTAmount, bid.GrandTotal,
		bid.PlatformFeeRate, bid.PlatformFeeAmount)
}

// CreateBidItem persists one priced line item
func (s *Store) CreateBidItem(ctx context.Context, item *models.BidItem) error {
	query := `
		INSERT INTO bid_items (bid_id, supplier_unit_price, buyer_unit_price, buyer_line_total, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return s.db.GetContext(ctx, &item.ID, query,
		item.BidID, item.SupplierUnitPrice, item.BuyerUnitPrice, item.BuyerLineTotal, item.Quantity)
}

// GetBidByID retrieves a bid by ID
func (s *Store) GetBidByID(ctx context.Context, id int64) (*models.Bid, error) {
	var bid models.Bid
	err := s.db.GetContext(ctx, &bid, "SELECT * FROM bids WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bid not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// GetBidItemsByBidID retrieves all line items for a bid in insert order
func (s *Store) GetBidItemsByBidID(ctx context.Context, bidID int64) ([]models.BidItem, error) {
	var items []models.BidItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM bid_items WHERE bid_id = $1 ORDER BY id", bidID)
	return items, err
}

// GetBidsBySupplier retrieves a supplier's bids, newest first
func (s *Store) GetBidsBySupplier(ctx context.Context, supplierID string) ([]models.Bid, error) {
	var bids []models.Bid
	err := s.db.SelectContext(ctx, &bids,
		"SELECT * FROM bids WHERE supplier_id = $1 ORDER BY created_at DESC", supplierID)
	return bids, err
}
