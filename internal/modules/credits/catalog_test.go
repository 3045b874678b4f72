package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaFor(t *testing.T) {
	tests := []struct {
		name string
		plan string
		want PlanQuota
	}{
		{name: "free", plan: PlanFree, want: PlanQuota{MonthlyCredits: 5}},
		{name: "pro", plan: PlanPro, want: PlanQuota{MonthlyCredits: 50}},
		{name: "premium is unlimited", plan: PlanPremium, want: PlanQuota{Unlimited: true}},
		{name: "pro max is unlimited", plan: PlanProMax, want: PlanQuota{Unlimited: true}},
		{name: "unknown plan falls back to free", plan: "enterprise", want: PlanQuota{MonthlyCredits: 5}},
		{name: "empty plan falls back to free", plan: "", want: PlanQuota{MonthlyCredits: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuotaFor(tt.plan))
		})
	}
}

func TestCostOf(t *testing.T) {
	assert.Equal(t, 1, CostOf(FeatureAINotes))
	assert.Equal(t, 2, CostOf(FeatureAIQuiz))
	assert.Equal(t, 1, CostOf(FeatureGroupJoin))
	assert.Equal(t, 1, CostOf(FeatureFocusPrediction))

	// Unknown features are free by design; see CostOf.
	assert.Equal(t, 0, CostOf("made_up_feature"))
}
