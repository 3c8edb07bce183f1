package routing

import (
	"context"
	"fmt"
	"sort"

	"procurement-service/internal/util"

	"go.uber.org/zap"
)

// AccessTier is a supplier's subscription tier.
type AccessTier string

const (
	TierFree      AccessTier = "free"
	TierPremium   AccessTier = "premium"
	TierExclusive AccessTier = "exclusive"
)

// Intent thresholds. These are two distinct business gates, not one
// constant: free-tier visibility is cut off at 4, while the hard
// routing exclusion for free unverified suppliers starts at 7.
const (
	FreeTierIntentLimit    = 4
	HighIntentExclusionMin = 7
)

const (
	baseMatchScore      = 50
	verifiedBonus       = 20
	exclusiveTierBonus  = 30
	premiumTierBonus    = 15
	maxQualifiedResults = 10
)

// SupplierProfile is the routing view of a supplier.
type SupplierProfile struct {
	ID          string
	CompanyName string
	Country     string
	Categories  []string
	Verified    bool
	Tier        AccessTier
}

// Assignment binds a supplier to a locked lane with a priority rank
// (1 = first pick).
type Assignment struct {
	SupplierID   string
	PriorityRank int
	Active       bool
}

// LaneLock marks a (category, country) lane as reserved for its
// assigned suppliers.
type LaneLock struct {
	Category    string
	Country     string
	Active      bool
	Assignments []Assignment
}

// LockLookup resolves the lane lock for a (category, country) pair.
// A nil lock with nil error means no lock exists.
type LockLookup interface {
	LaneLock(ctx context.Context, category, country string) (*LaneLock, error)
}

// SupplierLookup resolves supplier profiles.
type SupplierLookup interface {
	SupplierByID(ctx context.Context, id string) (*SupplierProfile, error)
	SuppliersByCategory(ctx context.Context, category string) ([]SupplierProfile, error)
}

// Result is one ranked routing candidate for an RFQ.
type Result struct {
	SupplierID     string     `json:"supplier_id"`
	CompanyName    string     `json:"company_name"`
	AccessTier     AccessTier `json:"access_tier"`
	IsLaneAssigned bool       `json:"is_lane_assigned"`
	MatchScore     int        `json:"match_score"`
	Priority       int        `json:"priority"`
}

// AccessDecision is the outcome of a supplier RFQ access check.
type AccessDecision struct {
	CanAccess       bool   `json:"can_access"`
	Reason          string `json:"reason"`
	UpgradeRequired bool   `json:"upgrade_required"`
}

// Engine gates supplier visibility and ranks routing candidates. It is
// read-only over its lookups and keeps no state of its own.
type Engine struct {
	locks     LockLookup
	suppliers SupplierLookup
	logger    *zap.Logger
}

// NewEngine creates a routing engine over the given lookups.
func NewEngine(locks LockLookup, suppliers SupplierLookup) *Engine {
	return &Engine{
		locks:     locks,
		suppliers: suppliers,
		logger:    util.GetLogger(),
	}
}

func tierPriority(t AccessTier) int {
	switch t {
	case TierExclusive:
		return 1
	case TierPremium:
		return 2
	default:
		return 3
	}
}

func activeAssignments(lock *LaneLock) []Assignment {
	if lock == nil || !lock.Active {
		return nil
	}
	var out []Assignment
	for _, a := range lock.Assignments {
		if a.Active {
			out = append(out, a)
		}
	}
	return out
}

// matchScore scores an open-matching candidate. A score of 0 excludes
// the supplier entirely.
func matchScore(s SupplierProfile, intentScore int) int {
	if intentScore >= HighIntentExclusionMin && !s.Verified && s.Tier == TierFree {
		return 0
	}

	score := baseMatchScore
	if s.Verified {
		score += verifiedBonus
	}
	switch s.Tier {
	case TierExclusive:
		score += exclusiveTierBonus
	case TierPremium:
		score += premiumTierBonus
	}
	return score
}

func hasCategory(s SupplierProfile, category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// QualifiedSuppliers returns the ranked candidate list for an RFQ.
//
// A locked lane with active assignments is an exclusivity contract:
// only the assigned suppliers are returned, in priority-rank order,
// and open matching never runs.
func (e *Engine) QualifiedSuppliers(ctx context.Context, category, country string, intentScore int) ([]Result, error) {
	util.RoutingQueriesTotal.Inc()

	lock, err := e.locks.LaneLock(ctx, category, country)
	if err != nil {
		return nil, fmt.Errorf("failed to look up lane lock: %w", err)
	}

	if assigned := activeAssignments(lock); len(assigned) > 0 {
		sort.SliceStable(assigned, func(i, j int) bool {
			return assigned[i].PriorityRank < assigned[j].PriorityRank
		})

		results := make([]Result, 0, len(assigned))
		for _, a := range assigned {
			r := Result{
				SupplierID:     a.SupplierID,
				AccessTier:     TierExclusive,
				IsLaneAssigned: true,
				MatchScore:     100,
				Priority:       a.PriorityRank,
			}
			if profile, err := e.suppliers.SupplierByID(ctx, a.SupplierID); err == nil && profile != nil {
				r.CompanyName = profile.CompanyName
			}
			results = append(results, r)
		}
		return results, nil
	}

	candidates, err := e.suppliers.SuppliersByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to look up suppliers for category %s: %w", category, err)
	}

	results := make([]Result, 0, len(candidates))
	for _, s := range candidates {
		if !hasCategory(s, category) {
			continue
		}
		score := matchScore(s, intentScore)
		if score == 0 {
			continue
		}
		results = append(results, Result{
			SupplierID:  s.ID,
			CompanyName: s.CompanyName,
			AccessTier:  s.Tier,
			MatchScore:  score,
			Priority:    tierPriority(s.Tier),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Priority != results[j].Priority {
			return results[i].Priority < results[j].Priority
		}
		return results[i].MatchScore > results[j].MatchScore
	})

	if len(results) > maxQualifiedResults {
		results = results[:maxQualifiedResults]
	}
	return results, nil
}

// failOpen builds the allow decision used when a lookup fails. Access
// checks fail open so transient backend errors never block legitimate
// traffic; the reason string names the policy so it is visible
// downstream. This is deliberate, do not flip to fail-closed without
// treating it as a policy change.
func (e *Engine) failOpen(stage string, err error) AccessDecision {
	util.RoutingFailOpenTotal.Inc()
	e.logger.Warn("access check lookup failed, failing open",
		zap.String("stage", stage),
		zap.Error(err))

	return AccessDecision{
		CanAccess: true,
		Reason:    fmt.Sprintf("%s lookup failed, failing open: %v", stage, err),
	}
}

// CanSupplierAccessRFQ decides whether a supplier may see and bid on
// an RFQ.
func (e *Engine) CanSupplierAccessRFQ(ctx context.Context, supplierID, rfqCategory, rfqCountry string, intentScore int) AccessDecision {
	supplier, err := e.suppliers.SupplierByID(ctx, supplierID)
	if err != nil {
		return e.failOpen("supplier", err)
	}
	if supplier == nil {
		return e.failOpen("supplier", fmt.Errorf("supplier %s not found", supplierID))
	}

	if supplier.Tier == TierFree && intentScore >= FreeTierIntentLimit {
		util.RoutingAccessDeniedTotal.WithLabelValues("free_tier_intent").Inc()
		return AccessDecision{
			CanAccess:       false,
			Reason:          "high-intent RFQs require a premium or exclusive subscription",
			UpgradeRequired: true,
		}
	}

	lock, err := e.locks.LaneLock(ctx, rfqCategory, rfqCountry)
	if err != nil {
		return e.failOpen("lane lock", err)
	}

	if assigned := activeAssignments(lock); len(assigned) > 0 {
		for _, a := range assigned {
			if a.SupplierID == supplierID {
				return AccessDecision{CanAccess: true, Reason: "assigned to locked lane"}
			}
		}
		util.RoutingAccessDeniedTotal.WithLabelValues("lane_locked").Inc()
		return AccessDecision{
			CanAccess: false,
			Reason:    "lane locked to selected suppliers",
		}
	}

	return AccessDecision{CanAccess: true, Reason: "open lane"}
}
