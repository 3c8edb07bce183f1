package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurement-service/internal/broker"
	"procurement-service/internal/models"
	"procurement-service/internal/pricing"
	"procurement-service/internal/store"
	"procurement-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BidService prices supplier bids and persists the results
type BidService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	defaultGSTRate decimal.Decimal
	logger         *zap.Logger
}

// NewBidService creates a new bid service
func NewBidService(store *store.Store, eventPublisher *broker.EventPublisher, defaultGSTRate decimal.Decimal) *BidService {
	return &BidService{
		store:          store,
		eventPublisher: eventPublisher,
		defaultGSTRate: defaultGSTRate,
		logger:         util.GetLogger(),
	}
}

// PriceBidRequest represents a request to price a supplier bid
type PriceBidRequest struct {
	RFQID            int64                 `json:"rfq_id" binding:"required"`
	SupplierID       string                `json:"supplier_id" binding:"required"`
	TradeType        string                `json:"trade_type" binding:"required"`
	TransportPerUnit decimal.Decimal       `json:"transport_per_unit"`
	GSTRate          decimal.Decimal       `json:"gst_rate"`
	Items            []PriceBidItemRequest `json:"items" binding:"required,min=1"`
}

// PriceBidItemRequest represents one quoted line item
type PriceBidItemRequest struct {
	SupplierUnitPrice decimal.Decimal `json:"supplier_unit_price"`
	Quantity          decimal.Decimal `json:"quantity"`
}

// PriceBidResponse represents the response after pricing a bid
type PriceBidResponse struct {
	BidID             int64                  `json:"bid_id"`
	Calculated        *pricing.CalculatedBid `json:"calculated"`
	GrandTotalDisplay string                 `json:"grand_total_display"`
}

// ErrUnknownTradeType is returned for a trade type outside the three
// supported values.
var ErrUnknownTradeType = errors.New("unknown trade type")

func parseTradeType(s string) (pricing.TradeType, error) {
	switch pricing.TradeType(s) {
	case pricing.TradeDomesticIndia, pricing.TradeImport, pricing.TradeExport:
		return pricing.TradeType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTradeType, s)
	}
}

// PriceBid calculates buyer-facing pricing for a bid, persists it and
// publishes a BidPriced event. Validation errors from the calculator
// are returned as-is so the caller can name the offending item/field.
func (s *BidService) PriceBid(ctx context.Context, req *PriceBidRequest) (*PriceBidResponse, error) {
	ctx, span := util.StartSpan(ctx, "BidService.PriceBid")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PricingDuration.Observe(time.Since(start).Seconds())
	}()

	tradeType, err := parseTradeType(req.TradeType)
	if err != nil {
		util.BidPricingFailedTotal.WithLabelValues("unknown_trade_type").Inc()
		return nil, err
	}

	gstRate := req.GSTRate
	if gstRate.IsZero() {
		gstRate = s.defaultGSTRate
	}

	items := make([]pricing.BidItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, pricing.BidItemInput{
			SupplierUnitPrice: it.SupplierUnitPrice,
			Quantity:          it.Quantity,
		})
	}

	calc, err := pricing.CalculateBid(items, pricing.Options{
		TradeType:        tradeType,
		TransportPerUnit: req.TransportPerUnit,
		GSTRate:          gstRate,
	})
	if err != nil {
		util.BidPricingFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	bid := &models.Bid{
		RFQID:             req.RFQID,
		SupplierID:        req.SupplierID,
		TradeType:         string(tradeType),
		SubTotal:          calc.SubTotal,
		GSTAmount:         calc.GSTAmount,
		GrandTotal:        calc.GrandTotal,
		PlatformFeeRate:   calc.PlatformFeeRate,
		PlatformFeeAmount: calc.PlatformFeeAmount,
	}

	if err := s.store.CreateBid(ctx, bid); err != nil {
		util.BidPricingFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create bid: %w", err)
	}

	for _, item := range calc.Items {
		bidItem := &models.BidItem{
			BidID:             bid.ID,
			SupplierUnitPrice: item.SupplierUnitPrice,
			BuyerUnitPrice:    item.BuyerUnitPrice,
			BuyerLineTotal:    item.BuyerLineTotal,
			Quantity:          item.Quantity,
		}
		if err := s.store.CreateBidItem(ctx, bidItem); err != nil {
			return nil, fmt.Errorf("failed to create bid item: %w", err)
		}
	}

	util.BidsPricedTotal.Inc()
	util.PlatformFeeCollectedTotal.Add(calc.PlatformFeeAmount.InexactFloat64())
	s.logger.Info("Bid priced",
		zap.Int64("bid_id", bid.ID),
		zap.Int64("rfq_id", bid.RFQID),
		zap.String("grand_total", calc.GrandTotal.String()),
		zap.String("platform_fee", calc.PlatformFeeAmount.String()))

	event := &models.BidPricedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBidPriced,
			Timestamp: time.Now(),
		},
		BidID:             bid.ID,
		RFQID:             bid.RFQID,
		SupplierID:        bid.SupplierID,
		TradeType:         bid.TradeType,
		SubTotal:          calc.SubTotal,
		GSTAmount:         calc.GSTAmount,
		GrandTotal:        calc.GrandTotal,
		PlatformFeeAmount: calc.PlatformFeeAmount,
	}

	if err := s.eventPublisher.PublishBidPriced(ctx, event); err != nil {
		s.logger.Error("Failed to publish BidPriced event", zap.Error(err))
	}

	return &PriceBidResponse{
		BidID:             bid.ID,
		Calculated:        calc,
		GrandTotalDisplay: pricing.FormatINR(calc.GrandTotal),
	}, nil
}

// GetBid retrieves a priced bid and its items
func (s *BidService) GetBid(ctx context.Context, bidID int64) (*models.Bid, []models.BidItem, error) {
	bid, err := s.store.GetBidByID(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetBidItemsByBidID(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}

	return bid, items, nil
}
