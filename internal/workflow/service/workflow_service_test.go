package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/repository"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/testutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	vertriebActor    = Actor{ID: "u-vertrieb", Name: "V. Kaufmann", Role: entity.RoleVertrieb}
	supplyChainActor = Actor{ID: "u-sc", Name: "S. Ketterer", Role: entity.RoleSupplyChain}
	planungActor     = Actor{ID: "u-plan", Name: "P. Langner", Role: entity.RolePlanung}
	adminActor       = Actor{ID: "u-admin", Name: "A. Dmin", Role: entity.RoleAdmin}
)

var projectNumberSeq int64

func newTestWorkflow(t *testing.T) (*WorkflowService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewWorkflowService(db, nil, nil, zap.NewNop()), db
}

func seedProject(t *testing.T, db *gorm.DB, status int, createdBy string, dist entity.Verteilung) *entity.Project {
	t.Helper()
	now := time.Now()
	p := &entity.Project{
		ID:            uuid.New().String()[:32],
		Number:        atomic.AddInt64(&projectNumberSeq, 1),
		Customer:      "Edeka Nord",
		Article:       "Hähnchenbrustfilet 400g",
		TotalQuantity: 1000,
		Distribution:  dist,
		Status:        status,
		CreatedBy:     createdBy,
		CreatorName:   "Seeded Creator",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func historyEntries(t *testing.T, db *gorm.DB, projectID string) []entity.HistoryEntry {
	t.Helper()
	var entries []entity.HistoryEntry
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	return entries
}

func reloadProject(t *testing.T, db *gorm.DB, id string) *entity.Project {
	t.Helper()
	var p entity.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		t.Fatalf("reload project: %v", err)
	}
	return &p
}

func TestSubmitCreatesProjectInSupplyChainReview(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()

	p, err := svc.Submit(ctx, vertriebActor, &SubmitProjectRequest{
		Customer:      "Rewe Süd",
		Article:       "Putenschnitzel 500g",
		TotalQuantity: 1000,
		Distribution:  entity.Verteilung{"Storkow": 300, "Brenz": 700},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if p.Status != entity.StatusPruefungSupplyChain {
		t.Errorf("status = %d, want %d", p.Status, entity.StatusPruefungSupplyChain)
	}
	if p.CreatedBy != vertriebActor.ID {
		t.Errorf("CreatedBy = %q, want %q", p.CreatedBy, vertriebActor.ID)
	}
	if p.Number <= 0 {
		t.Errorf("Number = %d, want a positive sequential number", p.Number)
	}

	entries := historyEntries(t, db, p.ID)
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != entity.ActionCreate || e.FromStatus != entity.StatusErfassung || e.ToStatus != entity.StatusPruefungSupplyChain {
		t.Errorf("history = %s %d→%d, want create 1→3", e.Action, e.FromStatus, e.ToStatus)
	}
	if e.ActorID != vertriebActor.ID {
		t.Errorf("history actor = %q, want %q", e.ActorID, vertriebActor.ID)
	}
}

func TestSubmitAssignsSequentialNumbers(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	ctx := context.Background()

	req := func() *SubmitProjectRequest {
		return &SubmitProjectRequest{
			Customer:      "Kaufland",
			Article:       "Hähnchenkeule 1kg",
			TotalQuantity: 500,
			Distribution:  entity.Verteilung{"Visbek": 500},
		}
	}

	first, err := svc.Submit(ctx, vertriebActor, req())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.Submit(ctx, vertriebActor, req())
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Number != first.Number+1 {
		t.Errorf("numbers = %d, %d; want consecutive", first.Number, second.Number)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	ctx := context.Background()
	first := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	last := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		actor Actor
		req   *SubmitProjectRequest
		check func(error) bool
	}{
		{
			"over-distribution blocks submission",
			vertriebActor,
			&SubmitProjectRequest{Customer: "k", Article: "a", TotalQuantity: 1000,
				Distribution: entity.Verteilung{"Storkow": 300, "Brenz": 800}},
			IsValidation,
		},
		{
			"all-zero distribution blocks",
			vertriebActor,
			&SubmitProjectRequest{Customer: "k", Article: "a", TotalQuantity: 1000,
				Distribution: entity.Verteilung{"Storkow": 0}},
			IsValidation,
		},
		{
			"inverted delivery window blocks",
			vertriebActor,
			&SubmitProjectRequest{Customer: "k", Article: "a", TotalQuantity: 1000,
				FirstDeliveryDate: &first, LastDeliveryDate: &last,
				Distribution: entity.Verteilung{"Storkow": 1000}},
			IsValidation,
		},
		{
			"only vertrieb may submit",
			supplyChainActor,
			&SubmitProjectRequest{Customer: "k", Article: "a", TotalQuantity: 1000,
				Distribution: entity.Verteilung{"Storkow": 1000}},
			func(err error) bool { return errors.Is(err, ErrPermissionDenied) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.actor, tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error class: %v", err)
			}
		})
	}
}

func TestApproveForwardsToPlanning(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()
	p := seedProject(t, db, entity.StatusPruefungSupplyChain, vertriebActor.ID, entity.Verteilung{"Storkow": 1000})

	got, err := svc.Approve(ctx, supplyChainActor, p.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != entity.StatusPruefungPlanung {
		t.Errorf("status = %d, want %d", got.Status, entity.StatusPruefungPlanung)
	}

	entries := historyEntries(t, db, p.ID)
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if entries[0].Action != entity.ActionApprovedForwarded {
		t.Errorf("action = %q, want %q", entries[0].Action, entity.ActionApprovedForwarded)
	}
}

func TestInvalidTransitionsLeaveNoTrace(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		status int
		run    func(projectID string) error
	}{
		{"vertrieb cannot approve supply-chain stage", entity.StatusPruefungSupplyChain,
			func(id string) error { _, err := svc.Approve(ctx, vertriebActor, id); return err }},
		{"planung cannot approve supply-chain stage", entity.StatusPruefungSupplyChain,
			func(id string) error { _, err := svc.Approve(ctx, planungActor, id); return err }},
		{"approve has no rule in planning stage", entity.StatusPruefungPlanung,
			func(id string) error { _, err := svc.Approve(ctx, planungActor, id); return err }},
		{"reject has no rule in planning stage", entity.StatusPruefungPlanung,
			func(id string) error { _, err := svc.Reject(ctx, planungActor, id, "grund"); return err }},
		{"no transitions out of rejected", entity.StatusAbgelehnt,
			func(id string) error { _, err := svc.Approve(ctx, supplyChainActor, id); return err }},
		{"no transitions out of completed", entity.StatusAbgeschlossen,
			func(id string) error { _, err := svc.Reject(ctx, supplyChainActor, id, "grund"); return err }},
		{"correction has no rule in approved state", entity.StatusGenehmigt,
			func(id string) error {
				_, _, err := svc.Correct(ctx, planungActor, id, &CorrectionRequest{
					TotalQuantity: 900, Distribution: entity.Verteilung{"Brenz": 900}, Reason: "grund"})
				return err
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := seedProject(t, db, tt.status, vertriebActor.ID, entity.Verteilung{"Storkow": 1000})
			err := tt.run(p.ID)
			if !errors.Is(err, ErrPermissionDenied) {
				t.Fatalf("err = %v, want permission denied", err)
			}
			if got := reloadProject(t, db, p.ID); got.Status != tt.status {
				t.Errorf("status mutated to %d on a refused transition", got.Status)
			}
			if entries := historyEntries(t, db, p.ID); len(entries) != 0 {
				t.Errorf("refused transition wrote %d history entries", len(entries))
			}
		})
	}
}

func TestRejectBySupplyChain(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()
	p := seedProject(t, db, entity.StatusPruefungSupplyChain, vertriebActor.ID, entity.Verteilung{"Brenz": 1000})

	if _, err := svc.Reject(ctx, supplyChainActor, p.ID, ""); !IsValidation(err) {
		t.Fatalf("empty reason: err = %v, want validation error", err)
	}

	got, err := svc.Reject(ctx, supplyChainActor, p.ID, "Kapazität ausgeschöpft")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != entity.StatusAbgelehnt {
		t.Errorf("status = %d, want %d", got.Status, entity.StatusAbgelehnt)
	}
	if got.RejectionReason != "Kapazität ausgeschöpft" {
		t.Errorf("RejectionReason = %q", got.RejectionReason)
	}

	entries := historyEntries(t, db, p.ID)
	if len(entries) != 1 || entries[0].Action != entity.ActionReject {
		t.Fatalf("history = %+v, want one reject entry", entries)
	}
	if entries[0].Reason != "Kapazität ausgeschöpft" {
		t.Errorf("history reason = %q", entries[0].Reason)
	}
}

func TestCreatorCancellationOfApprovedProject(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()
	p := seedProject(t, db, entity.StatusGenehmigt, vertriebActor.ID, entity.Verteilung{"Storkow": 1000})

	// Only the identity reference counts: another vertrieb user is refused,
	// and so is an admin who is not the creator.
	otherVertrieb := Actor{ID: "u-vertrieb-2", Name: "Z. Weite", Role: entity.RoleVertrieb}
	for _, actor := range []Actor{otherVertrieb, adminActor, supplyChainActor} {
		if _, err := svc.Reject(ctx, actor, p.ID, "storniert"); !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("actor %s: err = %v, want permission denied", actor.ID, err)
		}
	}

	got, err := svc.Reject(ctx, vertriebActor, p.ID, "Kunde hat storniert")
	if err != nil {
		t.Fatalf("creator cancellation: %v", err)
	}
	if got.Status != entity.StatusAbgelehnt {
		t.Errorf("status = %d, want %d", got.Status, entity.StatusAbgelehnt)
	}

	entries := historyEntries(t, db, p.ID)
	if len(entries) != 1 || entries[0].Action != entity.ActionRejected {
		t.Fatalf("history = %+v, want one %q entry", entries, entity.ActionRejected)
	}
}

func TestLocationApprovalFlow(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()
	p := seedProject(t, db, entity.StatusPruefungPlanung, vertriebActor.ID,
		entity.Verteilung{"Storkow (Mark)": 600, "Brenz": 400, "Visbek": 0})

	storkowPlanner := Actor{ID: "u-storkow", Name: "S. Torkow", Role: entity.RolePlanungStorkow}

	// A scoped planner's own site wins over the location parameter.
	got, err := svc.ApproveLocation(ctx, storkowPlanner, p.ID, "brenz")
	if err != nil {
		t.Fatalf("storkow sign-off: %v", err)
	}
	if got.Status != entity.StatusPruefungPlanung {
		t.Errorf("status = %d, project must stay in planning until all sites signed", got.Status)
	}

	var approvals []entity.LocationApproval
	db.Where("project_id = ?", p.ID).Find(&approvals)
	if len(approvals) != 1 || approvals[0].Location != "storkow" {
		t.Fatalf("approvals = %+v, want one for storkow", approvals)
	}

	// Duplicate sign-off for the same site is refused.
	if _, err := svc.ApproveLocation(ctx, storkowPlanner, p.ID, ""); !IsValidation(err) {
		t.Fatalf("duplicate sign-off: err = %v, want validation error", err)
	}

	// A site without a positive share cannot sign.
	visbekPlanner := Actor{ID: "u-visbek", Name: "V. Isbek", Role: entity.RolePlanungVisbek}
	if _, err := svc.ApproveLocation(ctx, visbekPlanner, p.ID, ""); !IsValidation(err) {
		t.Fatalf("zero-share sign-off: err = %v, want validation error", err)
	}

	// Unscoped planung signs for the remaining site by alias spelling; the
	// project becomes GENEHMIGT.
	got, err = svc.ApproveLocation(ctx, planungActor, p.ID, "Brenz")
	if err != nil {
		t.Fatalf("brenz sign-off: %v", err)
	}
	if got.Status != entity.StatusGenehmigt {
		t.Errorf("status = %d, want %d after the last sign-off", got.Status, entity.StatusGenehmigt)
	}

	entries := historyEntries(t, db, p.ID)
	var locationApproved, approved int
	for _, e := range entries {
		switch e.Action {
		case entity.ActionLocationApproved:
			locationApproved++
		case entity.ActionApprove:
			approved++
		}
	}
	if locationApproved != 2 || approved != 1 {
		t.Errorf("history actions: location_approved=%d approve=%d, want 2 and 1", locationApproved, approved)
	}
}

func TestCorrectRollsBackOneStage(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()
	p := seedProject(t, db, entity.StatusPruefungPlanung, vertriebActor.ID,
		entity.Verteilung{"Storkow": 600, "Brenz": 400})

	// A stale sign-off from before the correction.
	db.Create(&entity.LocationApproval{
		ID: uuid.New().String()[:32], ProjectID: p.ID, Location: "storkow",
		ApprovedBy: "u-storkow", CreatedAt: time.Now(),
	})

	got, result, err := svc.Correct(ctx, planungActor, p.ID, &CorrectionRequest{
		TotalQuantity: 1000,
		Distribution:  entity.Verteilung{"Storkow": 700, "Brenz": 500},
		Reason:        "Kapazitätsausgleich Brenz",
	})
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got.Status != entity.StatusPruefungSupplyChain {
		t.Errorf("status = %d, want rollback to %d", got.Status, entity.StatusPruefungSupplyChain)
	}
	if !result.OverDistributed {
		t.Error("over-distribution must be flagged (1200 > 1000), not blocked")
	}

	var approvalCount int64
	db.Model(&entity.LocationApproval{}).Where("project_id = ?", p.ID).Count(&approvalCount)
	if approvalCount != 0 {
		t.Errorf("stale sign-offs = %d, want 0 after correction", approvalCount)
	}

	entries := historyEntries(t, db, p.ID)
	if len(entries) != 1 || entries[0].Action != entity.ActionCorrection {
		t.Fatalf("history = %+v, want one correction entry", entries)
	}
	if entries[0].Diff == nil {
		t.Error("correction entry is missing the before/after diff")
	}
}

func TestCorrectFromSupplyChainRollsBackToVertrieb(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()
	p := seedProject(t, db, entity.StatusPruefungSupplyChain, vertriebActor.ID, entity.Verteilung{"Brenz": 1000})

	got, _, err := svc.Correct(ctx, supplyChainActor, p.ID, &CorrectionRequest{
		TotalQuantity: 800,
		Distribution:  entity.Verteilung{"Brenz": 800},
		Reason:        "Menge reduziert",
	})
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got.Status != entity.StatusPruefungVertrieb {
		t.Errorf("status = %d, want %d", got.Status, entity.StatusPruefungVertrieb)
	}
	if got.TotalQuantity != 800 {
		t.Errorf("TotalQuantity = %v, want 800", got.TotalQuantity)
	}
}

func TestCorrectFixedQuantityBlocksTotalChange(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()
	p := seedProject(t, db, entity.StatusPruefungPlanung, vertriebActor.ID, entity.Verteilung{"Storkow": 1000})
	db.Model(p).Update("quantity_fixed", true)

	_, _, err := svc.Correct(ctx, planungActor, p.ID, &CorrectionRequest{
		TotalQuantity: 900,
		Distribution:  entity.Verteilung{"Storkow": 900},
		Reason:        "weniger",
	})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error for fixed quantity", err)
	}

	// Redistribution at the same total is fine.
	got, _, err := svc.Correct(ctx, planungActor, p.ID, &CorrectionRequest{
		TotalQuantity: 1000,
		Distribution:  entity.Verteilung{"Storkow": 500, "Brenz": 500},
		Reason:        "umverteilt",
	})
	if err != nil {
		t.Fatalf("redistribution: %v", err)
	}
	if got.Status != entity.StatusPruefungSupplyChain {
		t.Errorf("status = %d, want %d", got.Status, entity.StatusPruefungSupplyChain)
	}
}

func TestArchiveIsOrthogonalToStatus(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()

	// Not archivable while under review.
	inReview := seedProject(t, db, entity.StatusPruefungSupplyChain, vertriebActor.ID, entity.Verteilung{"Brenz": 1000})
	if _, err := svc.Archive(ctx, vertriebActor, inReview.ID); !IsValidation(err) {
		t.Fatalf("archive in review: err = %v, want validation error", err)
	}

	rejected := seedProject(t, db, entity.StatusAbgelehnt, vertriebActor.ID, entity.Verteilung{"Brenz": 1000})

	// Only the creator may archive.
	other := Actor{ID: "u-other", Name: "O. Ther", Role: entity.RoleVertrieb}
	if _, err := svc.Archive(ctx, other, rejected.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("non-creator archive: err = %v, want permission denied", err)
	}

	got, err := svc.Archive(ctx, vertriebActor, rejected.ID)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !got.Archived || got.ArchivedAt == nil {
		t.Error("project not marked archived")
	}
	if got.Status != entity.StatusAbgelehnt {
		t.Errorf("status = %d, archiving must not touch the status value", got.Status)
	}

	if _, err := svc.Archive(ctx, vertriebActor, rejected.ID); !IsValidation(err) {
		t.Fatalf("double archive: err = %v, want validation error", err)
	}

	entries := historyEntries(t, db, rejected.ID)
	if len(entries) != 1 || entries[0].Action != entity.ActionArchive {
		t.Fatalf("history = %+v, want one archive entry", entries)
	}
}

func TestAutoCompleteSweep(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()

	past := time.Now().AddDate(0, 0, -2)
	future := time.Now().AddDate(0, 0, 14)

	due := seedProject(t, db, entity.StatusGenehmigt, vertriebActor.ID, entity.Verteilung{"Storkow": 1000})
	db.Model(due).Update("last_delivery_date", past)

	notDue := seedProject(t, db, entity.StatusGenehmigt, vertriebActor.ID, entity.Verteilung{"Brenz": 500})
	db.Model(notDue).Update("last_delivery_date", future)

	noDate := seedProject(t, db, entity.StatusGenehmigt, vertriebActor.ID, entity.Verteilung{"Visbek": 500})

	n, err := svc.AutoComplete(ctx)
	if err != nil {
		t.Fatalf("AutoComplete: %v", err)
	}
	if n != 1 {
		t.Errorf("completed = %d, want 1", n)
	}

	if got := reloadProject(t, db, due.ID); got.Status != entity.StatusAbgeschlossen {
		t.Errorf("due project status = %d, want %d", got.Status, entity.StatusAbgeschlossen)
	}
	if got := reloadProject(t, db, notDue.ID); got.Status != entity.StatusGenehmigt {
		t.Errorf("future project status = %d, must stay approved", got.Status)
	}
	if got := reloadProject(t, db, noDate.ID); got.Status != entity.StatusGenehmigt {
		t.Errorf("dateless project status = %d, must stay approved", got.Status)
	}

	entries := historyEntries(t, db, due.ID)
	if len(entries) != 1 || entries[0].Action != entity.ActionSendToProgress {
		t.Fatalf("history = %+v, want one send_to_progress entry", entries)
	}
	if entries[0].ActorID != entity.SystemActorID {
		t.Errorf("sweep actor = %q, want %q", entries[0].ActorID, entity.SystemActorID)
	}

	// Idempotent: the second run finds nothing and logs nothing.
	n, err = svc.AutoComplete(ctx)
	if err != nil {
		t.Fatalf("second AutoComplete: %v", err)
	}
	if n != 0 {
		t.Errorf("second run completed = %d, want 0", n)
	}

	histRepo := repository.NewHistoryRepository(db)
	count, err := histRepo.CountByProjectAndAction(ctx, due.ID, entity.ActionSendToProgress)
	if err != nil {
		t.Fatalf("count history: %v", err)
	}
	if count != 1 {
		t.Errorf("send_to_progress entries = %d, want exactly 1 after two sweeps", count)
	}
}

func TestTransitionFailsClosedWhenHistoryWriteFails(t *testing.T) {
	svc, db := newTestWorkflow(t)
	ctx := context.Background()

	p := seedProject(t, db, entity.StatusPruefungSupplyChain, "u-vertrieb", entity.Verteilung{"Storkow": 1000})

	// Block all audit-trail inserts: the status mutation must roll back with
	// them, never commit alone.
	if err := db.Exec("ALTER TABLE project_history ADD CONSTRAINT history_write_blocked CHECK (false)").Error; err != nil {
		t.Fatalf("block history writes: %v", err)
	}

	if _, err := svc.Approve(ctx, supplyChainActor, p.ID); err == nil {
		t.Fatal("Approve succeeded although the history write failed")
	}

	got := reloadProject(t, db, p.ID)
	if got.Status != entity.StatusPruefungSupplyChain {
		t.Errorf("status = %d, want %d (mutation must roll back with the history write)",
			got.Status, entity.StatusPruefungSupplyChain)
	}
	if entries := historyEntries(t, db, p.ID); len(entries) != 0 {
		t.Errorf("history entries = %d, want 0", len(entries))
	}
}

func TestCorrectRetryAfterFailedAttempt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rdb := testutil.SetupTestRedis(t)
	svc := NewWorkflowService(db, rdb, nil, zap.NewNop())
	ctx := context.Background()

	p := seedProject(t, db, entity.StatusPruefungPlanung, "u-vertrieb", entity.Verteilung{"Storkow": 1000})
	if err := db.Model(p).Update("quantity_fixed", true).Error; err != nil {
		t.Fatalf("fix quantity: %v", err)
	}

	opID := uuid.New().String()

	// First attempt violates the fixed-quantity rule. The operation id must
	// stay free: nothing was committed under it.
	_, _, err := svc.Correct(ctx, planungActor, p.ID, &CorrectionRequest{
		OperationID:   opID,
		TotalQuantity: 1200,
		Distribution:  entity.Verteilung{"Storkow": 1200},
		Reason:        "Menge angepasst",
	})
	if !IsValidation(err) {
		t.Fatalf("first attempt: err = %v, want validation error", err)
	}

	// Retry with the same id and a valid payload applies the correction.
	corrected, _, err := svc.Correct(ctx, planungActor, p.ID, &CorrectionRequest{
		OperationID:   opID,
		TotalQuantity: 1000,
		Distribution:  entity.Verteilung{"Storkow": 400, "Brenz": 600},
		Reason:        "Menge angepasst",
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if corrected.Status != entity.StatusPruefungSupplyChain {
		t.Errorf("status after retry = %d, want %d", corrected.Status, entity.StatusPruefungSupplyChain)
	}

	// A further retry of the committed correction is deduplicated: no second
	// write, current state reported.
	again, _, err := svc.Correct(ctx, planungActor, p.ID, &CorrectionRequest{
		OperationID:   opID,
		TotalQuantity: 1000,
		Distribution:  entity.Verteilung{"Storkow": 400, "Brenz": 600},
		Reason:        "Menge angepasst",
	})
	if err != nil {
		t.Fatalf("duplicate retry: %v", err)
	}
	if again.Status != entity.StatusPruefungSupplyChain {
		t.Errorf("status after duplicate retry = %d, want %d", again.Status, entity.StatusPruefungSupplyChain)
	}

	count, err := repository.NewHistoryRepository(db).CountByProjectAndAction(ctx, p.ID, entity.ActionCorrection)
	if err != nil {
		t.Fatalf("count corrections: %v", err)
	}
	if count != 1 {
		t.Errorf("correction entries = %d, want exactly 1", count)
	}
}
