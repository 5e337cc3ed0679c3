package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// STUDENT LOAN
// =============================================================================

// PlanRepayment is the repayment under one plan.
type PlanRepayment struct {
	Plan            taxyear.StudentLoanPlan
	Threshold       decimal.Decimal
	Rate            decimal.Decimal
	RepayableIncome decimal.Decimal
	Repayment       decimal.Decimal
}

// StudentLoanResult is the total across applicable plans.
type StudentLoanResult struct {
	Total decimal.Decimal
	Plans []PlanRepayment
}

// ParseStudentLoanPlan accepts "plan1", "Plan 1", "1", "pg", "postgraduate".
func ParseStudentLoanPlan(s string) (taxyear.StudentLoanPlan, bool) {
	switch normalizeKey(s) {
	case "plan1", "plan-1", "1":
		return taxyear.Plan1, true
	case "plan2", "plan-2", "2":
		return taxyear.Plan2, true
	case "plan4", "plan-4", "4":
		return taxyear.Plan4, true
	case "plan5", "plan-5", "5":
		return taxyear.Plan5, true
	case "postgrad", "postgraduate", "pg", "pgl":
		return taxyear.Postgrad, true
	default:
		return "", false
	}
}

// StudentLoan computes repayments. A borrower repays under one main plan:
// when several are held, the one with the lowest threshold applies. The
// postgraduate loan is repaid independently and added on.
func StudentLoan(income decimal.Decimal, plans []taxyear.StudentLoanPlan, postgrad bool, table map[taxyear.StudentLoanPlan]taxyear.PlanRate) StudentLoanResult {
	res := StudentLoanResult{Total: decimal.Zero}

	var main taxyear.StudentLoanPlan
	var mainRate taxyear.PlanRate
	for _, p := range plans {
		pr, ok := table[p]
		if !ok || !p.IsMain() {
			continue
		}
		if main == "" || pr.Threshold.LessThan(mainRate.Threshold) {
			main, mainRate = p, pr
		}
	}
	if main != "" {
		res.add(repayment(income, main, mainRate))
	}
	if postgrad {
		if pr, ok := table[taxyear.Postgrad]; ok {
			res.add(repayment(income, taxyear.Postgrad, pr))
		}
	}
	return res
}

func (r *StudentLoanResult) add(p PlanRepayment) {
	r.Plans = append(r.Plans, p)
	r.Total = r.Total.Add(p.Repayment)
}

func repayment(income decimal.Decimal, plan taxyear.StudentLoanPlan, pr taxyear.PlanRate) PlanRepayment {
	repayable := nonNegative(income.Sub(pr.Threshold))
	return PlanRepayment{
		Plan:            plan,
		Threshold:       pr.Threshold,
		Rate:            pr.Rate,
		RepayableIncome: repayable,
		Repayment:       repayable.Mul(pr.Rate),
	}
}
