package signup

import (
	"fmt"
	"strings"
)

// Plan тарифный план подписки.
type Plan string

const (
	// PlanStarter базовый план с пробным периодом
	PlanStarter Plan = "starter"
	// PlanPro расширенный план без пробного периода
	PlanPro Plan = "pro"
)

// StarterTrialDays длина пробного периода плана starter.
const StarterTrialDays = 14

// ParsePlan разбирает название плана.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanStarter, PlanPro:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
}

// TrialDays возвращает длину пробного периода плана; 0 означает без пробного периода.
func (p Plan) TrialDays() int64 {
	if p == PlanStarter {
		return StarterTrialDays
	}
	return 0
}

func (s *Service) priceID(p Plan) string {
	if p == PlanPro {
		return s.cfg.ProPriceID
	}
	return s.cfg.StarterPriceID
}
