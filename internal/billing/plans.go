// File: internal/billing/plans.go
package billing

// Plan codes.
const (
	PlanFree = "FREE"
	PlanPro  = "PRO"
)

// Plan describes what a subscription tier allows. A limit of zero means
// unlimited.
type Plan struct {
	Code                string `json:"code"`
	Name                string `json:"name"`
	MonthlyPriceKRW     int    `json:"monthly_price_krw"`
	MaxWatchedComplexes int    `json:"max_watched_complexes"`
	MaxPresets          int    `json:"max_presets"`
	MaxCompareComplexes int    `json:"max_compare_complexes"`
	ManualAlertDispatch bool   `json:"manual_alert_dispatch"`
}

var plans = map[string]Plan{
	PlanFree: {
		Code:                PlanFree,
		Name:                "Free",
		MonthlyPriceKRW:     0,
		MaxWatchedComplexes: 3,
		MaxPresets:          3,
		MaxCompareComplexes: 2,
		ManualAlertDispatch: false,
	},
	PlanPro: {
		Code:                PlanPro,
		Name:                "Pro",
		MonthlyPriceKRW:     9900,
		MaxWatchedComplexes: 0,
		MaxPresets:          0,
		MaxCompareComplexes: 0,
		ManualAlertDispatch: true,
	},
}

// PlanByCode looks up a plan definition.
func PlanByCode(code string) (Plan, bool) {
	p, ok := plans[code]
	return p, ok
}

// AllPlans returns the purchasable plan catalog in display order.
func AllPlans() []Plan {
	return []Plan{plans[PlanFree], plans[PlanPro]}
}
