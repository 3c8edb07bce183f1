package service

import (
	"context"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/redisclient"
	"procurement-service/internal/routing"
	"procurement-service/internal/store"
	"procurement-service/internal/util"

	"go.uber.org/zap"
)

// RoutingService backs the routing engine's lookups with the store,
// fronted by Redis read-through caches. Cache failures fall through to
// the store; the cache is never authoritative.
type RoutingService struct {
	store       *store.Store
	redis       *redisclient.Client
	lockTTL     time.Duration
	supplierTTL time.Duration
	logger      *zap.Logger
}

// NewRoutingService creates a new routing lookup service
func NewRoutingService(store *store.Store, redis *redisclient.Client, lockTTL, supplierTTL time.Duration) *RoutingService {
	return &RoutingService{
		store:       store,
		redis:       redis,
		lockTTL:     lockTTL,
		supplierTTL: supplierTTL,
		logger:      util.GetLogger(),
	}
}

// cachedLaneLock caches lock presence as well as absence, so open lanes
// do not hit the database on every routing query.
type cachedLaneLock struct {
	Found bool              `json:"found"`
	Lock  *routing.LaneLock `json:"lock,omitempty"`
}

// LaneLock implements routing.LockLookup
func (rs *RoutingService) LaneLock(ctx context.Context, category, country string) (*routing.LaneLock, error) {
	cacheKey := redisclient.LaneLockCacheKey(country, category)

	var cached cachedLaneLock
	hit, err := rs.redis.GetJSON(ctx, cacheKey, &cached)
	if err != nil {
		rs.logger.Warn("Lane lock cache read failed, falling back to DB",
			zap.String("key", cacheKey),
			zap.Error(err))
	} else if hit {
		return cached.Lock, nil
	}

	lockRow, err := rs.store.GetActiveLaneLock(ctx, country, category)
	if err != nil {
		return nil, err
	}

	var lock *routing.LaneLock
	if lockRow != nil {
		assignments, err := rs.store.GetLaneAssignments(ctx, lockRow.ID)
		if err != nil {
			return nil, err
		}
		lock = &routing.LaneLock{
			Category: lockRow.Category,
			Country:  lockRow.Country,
			Active:   lockRow.Active,
		}
		for _, a := range assignments {
			lock.Assignments = append(lock.Assignments, routing.Assignment{
				SupplierID:   a.SupplierID,
				PriorityRank: a.PriorityRank,
				Active:       a.Active,
			})
		}
	}

	if err := rs.redis.SetJSON(ctx, cacheKey, cachedLaneLock{Found: lock != nil, Lock: lock}, rs.lockTTL); err != nil {
		rs.logger.Warn("Failed to cache lane lock", zap.String("key", cacheKey), zap.Error(err))
	}

	return lock, nil
}

func toProfile(s *models.Supplier) *routing.SupplierProfile {
	return &routing.SupplierProfile{
		ID:          s.ID,
		CompanyName: s.CompanyName,
		Country:     s.Country,
		Categories:  []string(s.Categories),
		Verified:    s.Verified,
		Tier:        routing.AccessTier(s.Tier),
	}
}

// SupplierByID implements routing.SupplierLookup
func (rs *RoutingService) SupplierByID(ctx context.Context, id string) (*routing.SupplierProfile, error) {
	cacheKey := redisclient.SupplierCacheKey(id)

	var cached routing.SupplierProfile
	hit, err := rs.redis.GetJSON(ctx, cacheKey, &cached)
	if err != nil {
		rs.logger.Warn("Supplier cache read failed, falling back to DB",
			zap.String("key", cacheKey),
			zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	supplier, err := rs.store.GetSupplierByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := toProfile(supplier)
	if err := rs.redis.SetJSON(ctx, cacheKey, profile, rs.supplierTTL); err != nil {
		rs.logger.Warn("Failed to cache supplier", zap.String("key", cacheKey), zap.Error(err))
	}

	return profile, nil
}

// SuppliersByCategory implements routing.SupplierLookup. Category scans
// are not cached; their result set shifts with every signup.
func (rs *RoutingService) SuppliersByCategory(ctx context.Context, category string) ([]routing.SupplierProfile, error) {
	suppliers, err := rs.store.GetSuppliersByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	profiles := make([]routing.SupplierProfile, 0, len(suppliers))
	for i := range suppliers {
		profiles = append(profiles, *toProfile(&suppliers[i]))
	}
	return profiles, nil
}
