package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Lennart897/ProPlan-sub001/internal/shared/notify"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/sse"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor is the authenticated caller as reported by the identity provider.
// ID is the stable identity reference; Name is display-only.
type Actor struct {
	ID   string
	Name string
	Role entity.Role
}

// WorkflowService drives a project through the review stages. Every
// transition is a single transaction covering the status mutation and its
// history entry; a failure of either rolls back both.
type WorkflowService struct {
	db       *gorm.DB
	rdb      *redis.Client
	notifier *notify.Client
	logger   *zap.Logger
}

func NewWorkflowService(db *gorm.DB, rdb *redis.Client, notifier *notify.Client, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{db: db, rdb: rdb, notifier: notifier, logger: logger}
}

// === transition table ===

type transitionRule struct {
	From   int
	Action string
	To     int
	Permit func(actor Actor, p *entity.Project) bool
}

func roleIn(roles ...entity.Role) func(Actor, *entity.Project) bool {
	return func(actor Actor, _ *entity.Project) bool {
		for _, r := range roles {
			if actor.Role == r {
				return true
			}
		}
		return false
	}
}

func planungFamily(actor Actor, _ *entity.Project) bool {
	return actor.Role == entity.RoleAdmin || actor.Role.IsPlanung()
}

// creatorOnly compares the immutable identity reference. Display-name or
// email fields are never consulted for authorization.
func creatorOnly(actor Actor, p *entity.Project) bool {
	return actor.ID != "" && actor.ID == p.CreatedBy
}

var transitions = []transitionRule{
	{From: entity.StatusPruefungSupplyChain, Action: entity.ActionApprove, To: entity.StatusPruefungPlanung, Permit: roleIn(entity.RoleSupplyChain)},
	{From: entity.StatusPruefungSupplyChain, Action: entity.ActionReject, To: entity.StatusAbgelehnt, Permit: roleIn(entity.RoleSupplyChain)},
	{From: entity.StatusPruefungSupplyChain, Action: entity.ActionCorrect, To: entity.StatusPruefungVertrieb, Permit: roleIn(entity.RoleSupplyChain)},
	{From: entity.StatusPruefungPlanung, Action: entity.ActionApprove, To: entity.StatusGenehmigt, Permit: planungFamily},
	{From: entity.StatusPruefungPlanung, Action: entity.ActionCorrect, To: entity.StatusPruefungSupplyChain, Permit: planungFamily},
	{From: entity.StatusGenehmigt, Action: entity.ActionReject, To: entity.StatusAbgelehnt, Permit: creatorOnly},
}

// findRule resolves the transition for (status, action, actor). A nil result
// means the request is rejected before any write happens.
func findRule(from int, action string, actor Actor, p *entity.Project) *transitionRule {
	for i := range transitions {
		rule := &transitions[i]
		if rule.From == from && rule.Action == action && rule.Permit(actor, p) {
			return rule
		}
	}
	return nil
}

// === helpers ===

// applyActorContext publishes the caller's identity to the session so the
// row-level-security policies can evaluate it. set_config with is_local=true
// scopes the values to the surrounding transaction.
func applyActorContext(tx *gorm.DB, actorID string, role entity.Role) error {
	return tx.Exec(
		"SELECT set_config('app.actor_id', ?, true), set_config('app.actor_role', ?, true)",
		actorID, string(role),
	).Error
}

// lockProject loads a project FOR UPDATE inside the given transaction. The
// store's row lock is the sole concurrency control for transitions.
func lockProject(tx *gorm.DB, id string) (*entity.Project, error) {
	var p entity.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("project %s: %w", id, ErrProjectNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func appendHistory(tx *gorm.DB, h *entity.HistoryEntry) error {
	if h.ID == "" {
		h.ID = uuid.New().String()[:32]
	}
	return tx.Create(h).Error
}

// claimOperation reserves a client-supplied operation id so a retried
// correction does not double-log history. Returns false when the id has
// already been used. Without redis (tests, degraded mode) every claim wins.
func (s *WorkflowService) claimOperation(ctx context.Context, operationID string) bool {
	if s.rdb == nil || operationID == "" {
		return true
	}
	ok, err := s.rdb.SetNX(ctx, "workflow:op:"+operationID, 1, 24*time.Hour).Result()
	if err != nil {
		s.logger.Warn("operation id check failed, proceeding without dedup",
			zap.String("operation_id", operationID), zap.Error(err))
		return true
	}
	return ok
}

// releaseOperation frees a claimed operation id again. Called when the
// operation did not commit, so the same id stays usable for a retry; a
// claimed id only ever sticks for work that actually happened.
func (s *WorkflowService) releaseOperation(ctx context.Context, operationID string) {
	if s.rdb == nil || operationID == "" {
		return
	}
	if err := s.rdb.Del(ctx, "workflow:op:"+operationID).Err(); err != nil {
		s.logger.Warn("operation id release failed",
			zap.String("operation_id", operationID), zap.Error(err))
	}
}

func (s *WorkflowService) notify(msg *notify.Message) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, msg); err != nil {
			// Best-effort side channel: log and move on, the transition is
			// already committed.
			s.logger.Error("notification delivery failed",
				zap.String("event", msg.Event),
				zap.String("project_id", msg.ProjectID),
				zap.Error(err))
		}
	}()
}

func snapshot(p *entity.Project) *notify.Snapshot {
	dist := make(map[string]float64, len(p.Distribution))
	for k, v := range p.Distribution {
		dist[k] = v
	}
	return &notify.Snapshot{TotalQuantity: p.TotalQuantity, Distribution: dist}
}

// === operations ===

// SubmitProjectRequest carries a new production request from Vertrieb.
type SubmitProjectRequest struct {
	Customer          string            `json:"customer" binding:"required"`
	Article           string            `json:"article" binding:"required"`
	TotalQuantity     float64           `json:"total_quantity" binding:"required"`
	QuantityFixed     bool              `json:"quantity_fixed"`
	FirstDeliveryDate *time.Time        `json:"first_delivery_date"`
	LastDeliveryDate  *time.Time        `json:"last_delivery_date"`
	Distribution      entity.Verteilung `json:"distribution" binding:"required"`
}

// Submit creates a project and auto-advances it to supply-chain review.
// Over-distribution hard-blocks here, unlike in the correction flows.
func (s *WorkflowService) Submit(ctx context.Context, actor Actor, req *SubmitProjectRequest) (*entity.Project, error) {
	if actor.Role != entity.RoleVertrieb {
		return nil, permissionErr("only vertrieb may submit projects, got role %q", actor.Role)
	}
	if req.FirstDeliveryDate != nil && req.LastDeliveryDate != nil &&
		req.LastDeliveryDate.Before(*req.FirstDeliveryDate) {
		return nil, validationErr("delivery_window", "erster Liefertermin muss vor dem letzten liegen")
	}
	if _, err := validateDistribution(req.TotalQuantity, req.Distribution, true); err != nil {
		return nil, err
	}

	now := time.Now()
	project := &entity.Project{
		ID:                uuid.New().String()[:32],
		Customer:          req.Customer,
		Article:           req.Article,
		TotalQuantity:     req.TotalQuantity,
		QuantityFixed:     req.QuantityFixed,
		FirstDeliveryDate: req.FirstDeliveryDate,
		LastDeliveryDate:  req.LastDeliveryDate,
		Distribution:      req.Distribution,
		Status:            entity.StatusPruefungSupplyChain,
		CreatedBy:         actor.ID,
		CreatorName:       actor.Name,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created := &entity.HistoryEntry{
		ProjectID:  project.ID,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     entity.ActionCreate,
		FromStatus: entity.StatusErfassung,
		ToStatus:   entity.StatusPruefungSupplyChain,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyActorContext(tx, actor.ID, actor.Role); err != nil {
			return err
		}

		var max int64
		if err := tx.Model(&entity.Project{}).
			Select("COALESCE(MAX(number), 0)").Scan(&max).Error; err != nil {
			return err
		}
		project.Number = max + 1

		if err := tx.Create(project).Error; err != nil {
			return err
		}

		return appendHistory(tx, created)
	})
	if err != nil {
		return nil, err
	}

	project.DecorateStatus()
	sse.PublishProjectUpdate(project.ID, entity.ActionCreate)
	sse.PublishHistoryEntry(project.ID, created.ID, created.Action)
	return project, nil
}

// Approve forwards a project from supply-chain review to planning review.
func (s *WorkflowService) Approve(ctx context.Context, actor Actor, projectID string) (*entity.Project, error) {
	var project *entity.Project
	var forwarded *entity.HistoryEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyActorContext(tx, actor.ID, actor.Role); err != nil {
			return err
		}

		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		rule := findRule(p.Status, entity.ActionApprove, actor, p)
		if rule == nil || rule.From != entity.StatusPruefungSupplyChain {
			return permissionErr("role %q may not approve project %d in status %q",
				actor.Role, p.Number, entity.StatusLabel(p.Status))
		}

		from := p.Status
		p.Status = rule.To
		p.UpdatedAt = time.Now()
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		forwarded = &entity.HistoryEntry{
			ProjectID:  p.ID,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			Action:     entity.ActionApprovedForwarded,
			FromStatus: from,
			ToStatus:   p.Status,
		}
		if err := appendHistory(tx, forwarded); err != nil {
			return err
		}

		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	project.DecorateStatus()
	sse.PublishProjectUpdate(project.ID, entity.ActionApprovedForwarded)
	sse.PublishHistoryEntry(project.ID, forwarded.ID, forwarded.Action)
	return project, nil
}

// ApproveLocation records one site's sign-off during planning review. The
// project becomes GENEHMIGT once every site with a positive share has signed
// off. Location-scoped planners may only sign for their own site; unscoped
// planung and admin name the site explicitly.
func (s *WorkflowService) ApproveLocation(ctx context.Context, actor Actor, projectID, location string) (*entity.Project, error) {
	var project *entity.Project
	var fullyApproved bool
	var signOff, approved *entity.HistoryEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyActorContext(tx, actor.ID, actor.Role); err != nil {
			return err
		}

		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		rule := findRule(p.Status, entity.ActionApprove, actor, p)
		if rule == nil || p.Status != entity.StatusPruefungPlanung {
			return permissionErr("role %q may not approve project %d in status %q",
				actor.Role, p.Number, entity.StatusLabel(p.Status))
		}

		if code, scoped := actor.Role.LocationCode(); scoped {
			location = code
		}
		loc, ok := entity.LocationByCode(location)
		if !ok {
			if loc, ok = entity.ResolveLocation(location); !ok {
				return validationErr("location", fmt.Sprintf("unbekannter Standort %q", location))
			}
		}
		if loc.Quantity(p.Distribution) <= 0 {
			return validationErr("location",
				fmt.Sprintf("Standort %s hat keine Menge in diesem Projekt", loc.Name))
		}

		var existing int64
		if err := tx.Model(&entity.LocationApproval{}).
			Where("project_id = ? AND location = ?", p.ID, loc.Code).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return validationErr("location",
				fmt.Sprintf("Standort %s hat bereits freigegeben", loc.Name))
		}

		if err := tx.Create(&entity.LocationApproval{
			ID:           uuid.New().String()[:32],
			ProjectID:    p.ID,
			Location:     loc.Code,
			ApprovedBy:   actor.ID,
			ApproverName: actor.Name,
			CreatedAt:    time.Now(),
		}).Error; err != nil {
			return err
		}

		signOff = &entity.HistoryEntry{
			ProjectID:  p.ID,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			Action:     entity.ActionLocationApproved,
			FromStatus: p.Status,
			ToStatus:   p.Status,
			Reason:     loc.Name,
		}
		if err := appendHistory(tx, signOff); err != nil {
			return err
		}

		remaining, err := unresolvedLocations(tx, p)
		if err != nil {
			return err
		}

		if len(remaining) == 0 {
			from := p.Status
			p.Status = rule.To
			p.UpdatedAt = time.Now()
			if err := tx.Save(p).Error; err != nil {
				return err
			}
			approved = &entity.HistoryEntry{
				ProjectID:  p.ID,
				ActorID:    actor.ID,
				ActorName:  actor.Name,
				Action:     entity.ActionApprove,
				FromStatus: from,
				ToStatus:   p.Status,
			}
			if err := appendHistory(tx, approved); err != nil {
				return err
			}
			fullyApproved = true
		}

		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	project.DecorateStatus()
	sse.PublishProjectUpdate(project.ID, entity.ActionLocationApproved)
	sse.PublishHistoryEntry(project.ID, signOff.ID, signOff.Action)

	if fullyApproved {
		sse.PublishProjectUpdate(project.ID, entity.ActionApprove)
		sse.PublishHistoryEntry(project.ID, approved.ID, approved.Action)
		// The creator gets a direct push on top of the broadcast.
		sse.SendToUser(project.CreatedBy, sse.Event{
			EventType: "project_approved",
			Data:      fmt.Sprintf(`{"project_id":"%s","number":%d}`, project.ID, project.Number),
		})
		s.notify(&notify.Message{
			Event:         "project_approved",
			ProjectID:     project.ID,
			ProjectNumber: project.Number,
			Customer:      project.Customer,
			Article:       project.Article,
			Status:        project.Status,
			ActorID:       actor.ID,
			ActorName:     actor.Name,
			CreatorID:     project.CreatedBy,
		})
	}
	return project, nil
}

// unresolvedLocations returns the sites that hold a positive share but have
// not signed off yet.
func unresolvedLocations(tx *gorm.DB, p *entity.Project) ([]entity.Location, error) {
	var approvals []entity.LocationApproval
	if err := tx.Where("project_id = ?", p.ID).Find(&approvals).Error; err != nil {
		return nil, err
	}
	approved := make(map[string]bool, len(approvals))
	for _, a := range approvals {
		approved[a.Location] = true
	}

	var remaining []entity.Location
	for _, loc := range entity.Locations {
		if loc.Quantity(p.Distribution) > 0 && !approved[loc.Code] {
			remaining = append(remaining, loc)
		}
	}
	return remaining, nil
}

// Reject declines a project. From supply-chain review this is the reviewer's
// rejection; from GENEHMIGT it is the creator's self-service cancellation,
// gated on the identity reference alone. A non-empty reason is required on
// both paths.
func (s *WorkflowService) Reject(ctx context.Context, actor Actor, projectID, reason string) (*entity.Project, error) {
	if reason == "" {
		return nil, validationErr("reason", "Ablehnungsgrund ist erforderlich")
	}

	var project *entity.Project
	var rejected *entity.HistoryEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyActorContext(tx, actor.ID, actor.Role); err != nil {
			return err
		}

		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		rule := findRule(p.Status, entity.ActionReject, actor, p)
		if rule == nil {
			return permissionErr("role %q may not reject project %d in status %q",
				actor.Role, p.Number, entity.StatusLabel(p.Status))
		}

		action := entity.ActionReject
		if p.Status == entity.StatusGenehmigt {
			action = entity.ActionRejected
		}

		from := p.Status
		p.Status = rule.To
		p.RejectionReason = reason
		p.UpdatedAt = time.Now()
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		rejected = &entity.HistoryEntry{
			ProjectID:  p.ID,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			Action:     action,
			FromStatus: from,
			ToStatus:   p.Status,
			Reason:     reason,
		}
		if err := appendHistory(tx, rejected); err != nil {
			return err
		}

		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	project.DecorateStatus()
	sse.PublishProjectUpdate(project.ID, entity.ActionReject)
	sse.PublishHistoryEntry(project.ID, rejected.ID, rejected.Action)
	// The creator gets a direct push on top of the broadcast.
	sse.SendToUser(project.CreatedBy, sse.Event{
		EventType: "project_rejected",
		Data:      fmt.Sprintf(`{"project_id":"%s","number":%d}`, project.ID, project.Number),
	})
	s.notify(&notify.Message{
		Event:         "project_rejected",
		ProjectID:     project.ID,
		ProjectNumber: project.Number,
		Customer:      project.Customer,
		Article:       project.Article,
		Status:        project.Status,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		CreatorID:     project.CreatedBy,
		Reason:        reason,
	})
	return project, nil
}

// CorrectionRequest mutates quantity and distribution while rolling the
// project back one review stage. OperationID is a client-supplied key that
// makes retries safe.
type CorrectionRequest struct {
	OperationID   string            `json:"operation_id"`
	TotalQuantity float64           `json:"total_quantity" binding:"required"`
	Distribution  entity.Verteilung `json:"distribution" binding:"required"`
	Reason        string            `json:"reason" binding:"required"`
}

// Correct applies a correction (Korrektur). Over-distribution is surfaced as
// a warning here, never a block — planning corrections may legitimately
// exceed the original total pending renegotiation.
func (s *WorkflowService) Correct(ctx context.Context, actor Actor, projectID string, req *CorrectionRequest) (*entity.Project, ReconcileResult, error) {
	if req.Reason == "" {
		return nil, ReconcileResult{}, validationErr("reason", "Korrekturgrund ist erforderlich")
	}
	result, err := validateDistribution(req.TotalQuantity, req.Distribution, false)
	if err != nil {
		return nil, result, err
	}

	if !s.claimOperation(ctx, req.OperationID) {
		// Retried operation: report current state without writing anything.
		p, err := s.loadProject(ctx, projectID)
		if err != nil {
			return nil, result, err
		}
		return p, result, nil
	}

	var project *entity.Project
	var planningCorrection bool
	var before *notify.Snapshot
	var correction *entity.HistoryEntry

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyActorContext(tx, actor.ID, actor.Role); err != nil {
			return err
		}

		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		rule := findRule(p.Status, entity.ActionCorrect, actor, p)
		if rule == nil {
			return permissionErr("role %q may not correct project %d in status %q",
				actor.Role, p.Number, entity.StatusLabel(p.Status))
		}
		planningCorrection = p.Status == entity.StatusPruefungPlanung

		if p.QuantityFixed && req.TotalQuantity != p.TotalQuantity {
			return validationErr("total_quantity", "Gesamtmenge ist fixiert und darf nicht geändert werden")
		}

		before = snapshot(p)
		diff := entity.JSONB{
			"before": map[string]interface{}{
				"total_quantity": p.TotalQuantity,
				"distribution":   p.Distribution,
			},
			"after": map[string]interface{}{
				"total_quantity": req.TotalQuantity,
				"distribution":   req.Distribution,
			},
		}

		from := p.Status
		p.TotalQuantity = req.TotalQuantity
		p.Distribution = req.Distribution
		p.Status = rule.To
		p.UpdatedAt = time.Now()
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		// Sign-offs refer to the previous distribution; drop them so the
		// project re-enters planning with a clean slate.
		if err := tx.Where("project_id = ?", p.ID).
			Delete(&entity.LocationApproval{}).Error; err != nil {
			return err
		}

		correction = &entity.HistoryEntry{
			ProjectID:  p.ID,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			Action:     entity.ActionCorrection,
			FromStatus: from,
			ToStatus:   p.Status,
			Reason:     req.Reason,
			Diff:       diff,
		}
		if err := appendHistory(tx, correction); err != nil {
			return err
		}

		project = p
		return nil
	})
	if err != nil {
		// Nothing committed; free the id so the caller can retry.
		s.releaseOperation(ctx, req.OperationID)
		return nil, result, err
	}

	project.DecorateStatus()
	sse.PublishProjectUpdate(project.ID, entity.ActionCorrection)
	sse.PublishHistoryEntry(project.ID, correction.ID, correction.Action)

	if planningCorrection {
		s.notify(&notify.Message{
			Event:         "planning_correction",
			ProjectID:     project.ID,
			ProjectNumber: project.Number,
			Customer:      project.Customer,
			Article:       project.Article,
			Status:        project.Status,
			ActorID:       actor.ID,
			ActorName:     actor.Name,
			CreatorID:     project.CreatedBy,
			Reason:        req.Reason,
			Before:        before,
			After:         snapshot(project),
		})
	}
	return project, result, nil
}

// Archive flips the archived flag on a terminal project. The status value is
// never touched; archiving is orthogonal to the state machine.
func (s *WorkflowService) Archive(ctx context.Context, actor Actor, projectID string) (*entity.Project, error) {
	var project *entity.Project
	var archived *entity.HistoryEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyActorContext(tx, actor.ID, actor.Role); err != nil {
			return err
		}

		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		if actor.Role != entity.RoleVertrieb || !creatorOnly(actor, p) {
			return permissionErr("only the creating vertrieb user may archive project %d", p.Number)
		}
		if !entity.StatusArchivable(p.Status) {
			return validationErr("status",
				fmt.Sprintf("Projekt im Status %q kann nicht archiviert werden", entity.StatusLabel(p.Status)))
		}
		if p.Archived {
			return validationErr("archived", "Projekt ist bereits archiviert")
		}

		now := time.Now()
		p.Archived = true
		p.ArchivedAt = &now
		p.UpdatedAt = now
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		archived = &entity.HistoryEntry{
			ProjectID:  p.ID,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			Action:     entity.ActionArchive,
			FromStatus: p.Status,
			ToStatus:   p.Status,
		}
		if err := appendHistory(tx, archived); err != nil {
			return err
		}

		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	project.DecorateStatus()
	sse.PublishProjectUpdate(project.ID, entity.ActionArchive)
	sse.PublishHistoryEntry(project.ID, archived.ID, archived.Action)
	return project, nil
}

// AutoComplete moves approved projects past their delivery window to
// ABGESCHLOSSEN. The sweep is idempotent: its query only matches GENEHMIGT
// rows, so re-running it against completed projects is a no-op. Returns the
// number of projects completed.
func (s *WorkflowService) AutoComplete(ctx context.Context) (int, error) {
	var candidates []entity.Project
	err := s.db.WithContext(ctx).
		Where("status = ?", entity.StatusGenehmigt).
		Where("last_delivery_date IS NOT NULL AND last_delivery_date < CURRENT_DATE").
		Find(&candidates).Error
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range candidates {
		id := candidates[i].ID
		var sent *entity.HistoryEntry
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := applyActorContext(tx, entity.SystemActorID, entity.RoleAdmin); err != nil {
				return err
			}

			p, err := lockProject(tx, id)
			if err != nil {
				return err
			}
			// Re-check under lock: another run may have completed it.
			if p.Status != entity.StatusGenehmigt {
				return nil
			}

			from := p.Status
			p.Status = entity.StatusAbgeschlossen
			p.UpdatedAt = time.Now()
			if err := tx.Save(p).Error; err != nil {
				return err
			}

			sent = &entity.HistoryEntry{
				ProjectID:  p.ID,
				ActorID:    entity.SystemActorID,
				ActorName:  "System",
				Action:     entity.ActionSendToProgress,
				FromStatus: from,
				ToStatus:   p.Status,
			}
			if err := appendHistory(tx, sent); err != nil {
				return err
			}

			completed++
			return nil
		})
		if err != nil {
			s.logger.Error("auto-complete failed for project",
				zap.String("project_id", id), zap.Error(err))
			continue
		}
		if sent != nil {
			sse.PublishProjectUpdate(id, entity.ActionSendToProgress)
			sse.PublishHistoryEntry(id, sent.ID, sent.Action)
		}
	}

	return completed, nil
}

func (s *WorkflowService) loadProject(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("project %s: %w", id, ErrProjectNotFound)
		}
		return nil, err
	}
	p.DecorateStatus()
	return &p, nil
}
