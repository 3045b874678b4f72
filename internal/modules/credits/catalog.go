package credits

// Subscription plan names. These match the `subscription_plan` column on the
// users table and are the single source of truth for allotments; feature
// endpoints must never carry their own plan tables.
const (
	PlanFree    = "free"
	PlanPro     = "pro"
	PlanPremium = "premium"
	PlanProMax  = "pro_max"
)

// Billable feature identifiers.
const (
	FeatureAINotes         = "ai_notes"
	FeatureAIQuiz          = "ai_quiz"
	FeatureGroupJoin       = "group_join"
	FeatureFocusPrediction = "focus_prediction"
)

// PlanQuota describes what a subscription plan grants per monthly cycle.
type PlanQuota struct {
	MonthlyCredits int
	Unlimited      bool
}

var planCatalog = map[string]PlanQuota{
	PlanFree:    {MonthlyCredits: 5},
	PlanPro:     {MonthlyCredits: 50},
	PlanPremium: {Unlimited: true},
	PlanProMax:  {Unlimited: true},
}

var costCatalog = map[string]int{
	FeatureAINotes:         1,
	FeatureAIQuiz:          2,
	FeatureGroupJoin:       1,
	FeatureFocusPrediction: 1,
}

// QuotaFor returns the quota for a plan name. Unrecognized plans fall back
// to the free tier, never to unlimited.
func QuotaFor(plan string) PlanQuota {
	if q, ok := planCatalog[plan]; ok {
		return q
	}
	return planCatalog[PlanFree]
}

// CostOf returns the credit cost of a feature. Unknown feature ids cost 0,
// i.e. they are treated as free. This is a deliberate permissive default:
// a typo'd feature id must never deduct credits, so billable endpoints have
// to use the Feature* constants above rather than ad hoc strings.
func CostOf(feature string) int {
	return costCatalog[feature]
}
