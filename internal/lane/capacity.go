package lane

import "github.com/shopspring/decimal"

// CapacityStatus classifies a lane's supply headroom.
type CapacityStatus string

const (
	CapacityOK      CapacityStatus = "OK"
	CapacityDeficit CapacityStatus = "DEFICIT"
	// CapacityNone means no capacity record has been provisioned for the
	// lane at all. Distinct from a record that exists but is exhausted.
	CapacityNone CapacityStatus = "NO_CAPACITY"
)

// Capacity is the provisioned monthly capacity for a lane.
type Capacity struct {
	MonthlyCapacityValue   decimal.Decimal `json:"monthly_capacity_value" db:"monthly_capacity_value"`
	AllocatedCapacityValue decimal.Decimal `json:"allocated_capacity_value" db:"allocated_capacity_value"`
}

// CapacityReport is the derived capacity view for a lane. Recomputed on
// demand, never stored as authoritative state.
type CapacityReport struct {
	Country           string          `json:"country"`
	Category          string          `json:"category"`
	AvailableCapacity decimal.Decimal `json:"available_capacity"`
	UtilizationPct    decimal.Decimal `json:"utilization_pct"`
	DeficitValue      decimal.Decimal `json:"deficit_value"`
	Status            CapacityStatus  `json:"status"`
}

var hundred = decimal.NewFromInt(100)

// ComputeCapacityStatus derives the capacity view for a lane's current
// demand. A nil capacity yields NO_CAPACITY with the full demand as
// deficit. A zero monthly capacity reports utilization 100 even when
// nothing is allocated, matching the dashboards built on this number.
func ComputeCapacityStatus(country, category string, demandValue decimal.Decimal, cap *Capacity) CapacityReport {
	report := CapacityReport{
		Country:  country,
		Category: category,
	}

	if cap == nil {
		report.AvailableCapacity = decimal.Zero
		report.UtilizationPct = hundred
		report.DeficitValue = demandValue
		report.Status = CapacityNone
		return report
	}

	available := cap.MonthlyCapacityValue.Sub(cap.AllocatedCapacityValue)
	deficit := demandValue.Sub(available)
	if deficit.IsNegative() {
		deficit = decimal.Zero
	}

	report.AvailableCapacity = available
	report.DeficitValue = deficit

	if cap.MonthlyCapacityValue.IsZero() {
		report.UtilizationPct = hundred
	} else {
		report.UtilizationPct = cap.AllocatedCapacityValue.Div(cap.MonthlyCapacityValue).Mul(hundred).Round(2)
	}

	if deficit.IsPositive() {
		report.Status = CapacityDeficit
	} else {
		report.Status = CapacityOK
	}
	return report
}
