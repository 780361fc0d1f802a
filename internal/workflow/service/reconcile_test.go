package service

import (
	"testing"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
)

func TestReconcileExactDistribution(t *testing.T) {
	result := Reconcile(1000, entity.Verteilung{"Storkow": 300, "Brenz": 700})

	if result.DistributedTotal != 1000 {
		t.Errorf("DistributedTotal = %v, want 1000", result.DistributedTotal)
	}
	if result.OverDistributed {
		t.Error("OverDistributed = true, want false")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", result.Warnings)
	}
}

func TestReconcileOverDistribution(t *testing.T) {
	result := Reconcile(1000, entity.Verteilung{"Storkow": 300, "Brenz": 800})

	if result.DistributedTotal != 1100 {
		t.Errorf("DistributedTotal = %v, want 1100", result.DistributedTotal)
	}
	if !result.OverDistributed {
		t.Error("OverDistributed = false, want true")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected an over-distribution warning")
	}
}

func TestReconcileUnknownLocationWarns(t *testing.T) {
	result := Reconcile(500, entity.Verteilung{"Storkow": 200, "Hamburg": 100})

	if result.OverDistributed {
		t.Error("under-distribution must not flag OverDistributed")
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want exactly one for the unknown site", result.Warnings)
	}
}

func TestValidateDistribution(t *testing.T) {
	tests := []struct {
		name      string
		total     float64
		dist      entity.Verteilung
		blockOver bool
		wantErr   bool
	}{
		{"valid", 1000, entity.Verteilung{"Storkow": 1000}, true, false},
		{"zero total", 0, entity.Verteilung{"Storkow": 100}, true, true},
		{"negative total", -5, entity.Verteilung{"Storkow": 100}, true, true},
		{"negative share", 1000, entity.Verteilung{"Storkow": -1, "Brenz": 500}, true, true},
		{"all zero", 1000, entity.Verteilung{"Storkow": 0, "Brenz": 0}, true, true},
		{"empty distribution", 1000, entity.Verteilung{}, true, true},
		{"over blocked at submission", 1000, entity.Verteilung{"Storkow": 600, "Brenz": 600}, true, true},
		{"over allowed in corrections", 1000, entity.Verteilung{"Storkow": 600, "Brenz": 600}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validateDistribution(tt.total, tt.dist, tt.blockOver)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("error %v is not a validation error", err)
			}
			if tt.name == "over allowed in corrections" && !result.OverDistributed {
				t.Error("correction path must still flag over-distribution")
			}
		})
	}
}
