package service

import (
	"fmt"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
)

// ReconcileResult is the outcome of checking a per-location distribution
// against a project's total quantity (Gesamtmenge).
type ReconcileResult struct {
	DistributedTotal float64  `json:"distributed_total"`
	OverDistributed  bool     `json:"is_over_distributed"`
	Warnings         []string `json:"per_location_warnings,omitempty"`
}

// Reconcile sums the distribution and flags over-distribution. It never
// blocks by itself; the caller decides whether the flags are fatal (initial
// submission) or advisory (corrections).
func Reconcile(total float64, dist entity.Verteilung) ReconcileResult {
	result := ReconcileResult{}
	for name, qty := range dist {
		result.DistributedTotal += qty
		if _, ok := entity.ResolveLocation(name); !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("unbekannter Standort %q", name))
		}
	}
	if result.DistributedTotal > total {
		result.OverDistributed = true
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Verteilung %.2f überschreitet Gesamtmenge %.2f",
				result.DistributedTotal, total))
	}
	return result
}

// validateDistribution enforces the submission rules. blockOver is true on
// the initial creation flow, where over-distribution hard-blocks; in the
// correction flows it is a warning only. This asymmetry is intentional:
// planning corrections may temporarily exceed the original total pending
// sales renegotiation.
func validateDistribution(total float64, dist entity.Verteilung, blockOver bool) (ReconcileResult, error) {
	if total <= 0 {
		return ReconcileResult{}, validationErr("total_quantity", "Gesamtmenge muss positiv sein")
	}

	var positive bool
	for name, qty := range dist {
		if qty < 0 {
			return ReconcileResult{}, validationErr("distribution",
				fmt.Sprintf("Standortmenge für %q darf nicht negativ sein", name))
		}
		if qty > 0 {
			positive = true
		}
	}
	if !positive {
		return ReconcileResult{}, validationErr("distribution",
			"mindestens ein Standort muss eine positive Menge erhalten")
	}

	result := Reconcile(total, dist)
	if result.OverDistributed && blockOver {
		return result, validationErr("distribution",
			fmt.Sprintf("Verteilung %.2f überschreitet Gesamtmenge %.2f",
				result.DistributedTotal, total))
	}
	return result, nil
}
