package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookups struct {
	locks     map[string]*LaneLock
	suppliers map[string]*SupplierProfile
	lockErr   error
	supErr    error
}

func lockKey(category, country string) string {
	return category + "|" + country
}

func (f *fakeLookups) LaneLock(_ context.Context, category, country string) (*LaneLock, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	return f.locks[lockKey(category, country)], nil
}

func (f *fakeLookups) SupplierByID(_ context.Context, id string) (*SupplierProfile, error) {
	if f.supErr != nil {
		return nil, f.supErr
	}
	return f.suppliers[id], nil
}

func (f *fakeLookups) SuppliersByCategory(_ context.Context, category string) ([]SupplierProfile, error) {
	if f.supErr != nil {
		return nil, f.supErr
	}
	var out []SupplierProfile
	for _, s := range f.suppliers {
		for _, c := range s.Categories {
			if c == category {
				out = append(out, *s)
				break
			}
		}
	}
	return out, nil
}

func newFake() *fakeLookups {
	return &fakeLookups{
		locks:     map[string]*LaneLock{},
		suppliers: map[string]*SupplierProfile{},
	}
}

func (f *fakeLookups) addSupplier(id string, tier AccessTier, verified bool, categories ...string) {
	f.suppliers[id] = &SupplierProfile{
		ID:          id,
		CompanyName: id + " Pvt Ltd",
		Country:     "IN",
		Categories:  categories,
		Verified:    verified,
		Tier:        tier,
	}
}

func TestQualifiedSuppliersLockedLaneExclusivity(t *testing.T) {
	f := newFake()
	f.addSupplier("sup-a", TierExclusive, true, "steel")
	f.addSupplier("sup-b", TierExclusive, true, "steel")
	// Matching-category, verified, but not assigned. Must never appear.
	f.addSupplier("sup-c", TierPremium, true, "steel")

	f.locks[lockKey("steel", "IN")] = &LaneLock{
		Category: "steel",
		Country:  "IN",
		Active:   true,
		Assignments: []Assignment{
			{SupplierID: "sup-b", PriorityRank: 2, Active: true},
			{SupplierID: "sup-a", PriorityRank: 1, Active: true},
		},
	}

	engine := NewEngine(f, f)
	results, err := engine.QualifiedSuppliers(context.Background(), "steel", "IN", 5)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "sup-a", results[0].SupplierID)
	assert.Equal(t, "sup-b", results[1].SupplierID)
	for _, r := range results {
		assert.Equal(t, TierExclusive, r.AccessTier)
		assert.True(t, r.IsLaneAssigned)
		assert.Equal(t, 100, r.MatchScore)
	}
}

func TestQualifiedSuppliersInactiveLockFallsBackToOpenMatching(t *testing.T) {
	f := newFake()
	f.addSupplier("sup-a", TierFree, true, "steel")
	f.locks[lockKey("steel", "IN")] = &LaneLock{
		Category: "steel",
		Country:  "IN",
		Active:   false,
		Assignments: []Assignment{
			{SupplierID: "sup-z", PriorityRank: 1, Active: true},
		},
	}

	engine := NewEngine(f, f)
	results, err := engine.QualifiedSuppliers(context.Background(), "steel", "IN", 2)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "sup-a", results[0].SupplierID)
	assert.False(t, results[0].IsLaneAssigned)
}

func TestQualifiedSuppliersScoring(t *testing.T) {
	f := newFake()
	f.addSupplier("free-unverified", TierFree, false, "cotton")
	f.addSupplier("free-verified", TierFree, true, "cotton")
	f.addSupplier("premium-verified", TierPremium, true, "cotton")
	f.addSupplier("exclusive-verified", TierExclusive, true, "cotton")

	engine := NewEngine(f, f)
	results, err := engine.QualifiedSuppliers(context.Background(), "cotton", "IN", 3)
	require.NoError(t, err)
	require.Len(t, results, 4)

	scores := map[string]int{}
	for _, r := range results {
		scores[r.SupplierID] = r.MatchScore
	}
	assert.Equal(t, 50, scores["free-unverified"])
	assert.Equal(t, 70, scores["free-verified"])
	assert.Equal(t, 85, scores["premium-verified"])
	assert.Equal(t, 100, scores["exclusive-verified"])

	// Sorted by tier priority first, then score.
	assert.Equal(t, "exclusive-verified", results[0].SupplierID)
	assert.Equal(t, "premium-verified", results[1].SupplierID)
	assert.Equal(t, "free-verified", results[2].SupplierID)
	assert.Equal(t, "free-unverified", results[3].SupplierID)
}

func TestQualifiedSuppliersHighIntentExclusion(t *testing.T) {
	f := newFake()
	f.addSupplier("free-unverified", TierFree, false, "cotton")
	f.addSupplier("free-verified", TierFree, true, "cotton")

	engine := NewEngine(f, f)
	results, err := engine.QualifiedSuppliers(context.Background(), "cotton", "IN", 7)
	require.NoError(t, err)

	// Free unverified is hard-excluded at intent >= 7; free verified
	// stays in at the same intent score.
	require.Len(t, results, 1)
	assert.Equal(t, "free-verified", results[0].SupplierID)
}

func TestQualifiedSuppliersTruncatesToTopTen(t *testing.T) {
	f := newFake()
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11", "s12"} {
		f.addSupplier(id, TierFree, true, "polymers")
	}

	engine := NewEngine(f, f)
	results, err := engine.QualifiedSuppliers(context.Background(), "polymers", "AE", 1)
	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestQualifiedSuppliersLookupError(t *testing.T) {
	f := newFake()
	f.lockErr = errors.New("connection refused")

	engine := NewEngine(f, f)
	_, err := engine.QualifiedSuppliers(context.Background(), "steel", "IN", 5)
	assert.Error(t, err)
}

func TestAccessFreeTierThreshold(t *testing.T) {
	f := newFake()
	f.addSupplier("free-sup", TierFree, true, "steel")

	engine := NewEngine(f, f)

	denied := engine.CanSupplierAccessRFQ(context.Background(), "free-sup", "steel", "IN", 4)
	assert.False(t, denied.CanAccess)
	assert.True(t, denied.UpgradeRequired)

	allowed := engine.CanSupplierAccessRFQ(context.Background(), "free-sup", "steel", "IN", 3)
	assert.True(t, allowed.CanAccess)
	assert.False(t, allowed.UpgradeRequired)
}

func TestAccessPremiumTierHighIntent(t *testing.T) {
	f := newFake()
	f.addSupplier("prem-sup", TierPremium, false, "steel")

	engine := NewEngine(f, f)
	decision := engine.CanSupplierAccessRFQ(context.Background(), "prem-sup", "steel", "IN", 9)
	assert.True(t, decision.CanAccess)
}

func TestAccessLockedLaneDenial(t *testing.T) {
	f := newFake()
	f.addSupplier("outsider", TierPremium, true, "steel")
	f.addSupplier("insider", TierExclusive, true, "steel")
	f.locks[lockKey("steel", "IN")] = &LaneLock{
		Category: "steel",
		Country:  "IN",
		Active:   true,
		Assignments: []Assignment{
			{SupplierID: "insider", PriorityRank: 1, Active: true},
		},
	}

	engine := NewEngine(f, f)

	denied := engine.CanSupplierAccessRFQ(context.Background(), "outsider", "steel", "IN", 2)
	assert.False(t, denied.CanAccess)
	// An exclusivity denial, not an upsell opportunity.
	assert.False(t, denied.UpgradeRequired)
	assert.Equal(t, "lane locked to selected suppliers", denied.Reason)

	allowed := engine.CanSupplierAccessRFQ(context.Background(), "insider", "steel", "IN", 2)
	assert.True(t, allowed.CanAccess)
}

func TestAccessFailsOpenOnLookupError(t *testing.T) {
	f := newFake()
	f.supErr = errors.New("backend unavailable")

	engine := NewEngine(f, f)
	decision := engine.CanSupplierAccessRFQ(context.Background(), "any", "steel", "IN", 9)

	assert.True(t, decision.CanAccess)
	assert.Contains(t, decision.Reason, "failing open")
}

func TestAccessFailsOpenOnLockLookupError(t *testing.T) {
	f := newFake()
	f.addSupplier("prem-sup", TierPremium, true, "steel")
	f.lockErr = errors.New("timeout")

	engine := NewEngine(f, f)
	decision := engine.CanSupplierAccessRFQ(context.Background(), "prem-sup", "steel", "IN", 2)

	assert.True(t, decision.CanAccess)
	assert.Contains(t, decision.Reason, "failing open")
}
