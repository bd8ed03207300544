// Package assignment moves a complaint from OPEN or REOPENED to IN_PROGRESS
// by handing it to one worker.
//
// An assignment validates everything up front without writing, then commits
// the complaint update and the worker's counter bump in one transaction, and
// only after commit hands the audit entry and notification emails to a
// background runner. The caller gets its result without waiting for them, and
// post-commit failures are logged, never returned.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	complaintstore "github.com/dalemusser/cityfix/internal/app/store/complaints"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/notify"
	"github.com/dalemusser/cityfix/internal/app/system/tasks"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Assignment modes recorded in history and audit.
const (
	ModeManual    = "manual"
	ModeAutomatic = "automatic"
)

// ComplaintRepo is the complaint persistence the coordinator needs.
type ComplaintRepo interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Complaint, error)
	MarkInProgress(ctx context.Context, id primitive.ObjectID, from models.ComplaintStatus, workerID primitive.ObjectID, entry models.HistoryEntry) error
}

// WorkerRepo is the worker persistence the coordinator needs.
type WorkerRepo interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Worker, error)
	FindEligible(ctx context.Context, id primitive.ObjectID, scope models.WorkScope) (models.Worker, bool, error)
	IncrementAssigned(ctx context.Context, id primitive.ObjectID) error
}

// Ranker lists candidates best first.
type Ranker interface {
	Rank(ctx context.Context, scope models.WorkScope, limit int) ([]models.Worker, error)
}

// TxRunner runs fn atomically. *txn.Runner satisfies it.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditSink records completed assignments. *auditlog.Logger satisfies it.
type AuditSink interface {
	ComplaintAssigned(ctx context.Context, actor models.Actor, complaintID, workerID, zoneID primitive.ObjectID, mode string)
}

// Config configures a Coordinator.
type Config struct {
	// CandidateLimit caps the ranked list consulted for automatic choice.
	CandidateLimit int
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Complaints ComplaintRepo
	Workers    WorkerRepo
	Ranker     Ranker
	Tx         TxRunner
	Audit      AuditSink
	Notifier   notify.Notifier
	// Background runs post-commit side effects. Nil gets a private runner
	// bounded by timeouts.Short.
	Background *tasks.Background
}

// Result is the state after a successful assignment.
type Result struct {
	Complaint models.Complaint `json:"complaint"`
	Worker    models.Worker    `json:"worker"`
	Mode      string           `json:"mode"`
}

// Coordinator performs assignments.
type Coordinator struct {
	deps Deps
	cfg  Config
	log  *zap.Logger
	now  func() time.Time
}

// New creates a Coordinator. Audit and Notifier may be nil.
func New(deps Deps, cfg Config, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Background == nil {
		deps.Background = tasks.NewBackground(timeouts.Short, logger)
	}
	return &Coordinator{deps: deps, cfg: cfg, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Candidates returns the ranked candidate list for a complaint without
// changing anything.
func (c *Coordinator) Candidates(ctx context.Context, actor models.Actor, complaintID primitive.ObjectID) ([]models.Worker, error) {
	comp, err := c.load(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}
	scope, err := scopeOf(comp)
	if err != nil {
		return nil, err
	}
	out, err := c.deps.Ranker.Rank(ctx, scope, c.cfg.CandidateLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "rank candidates")
	}
	return out, nil
}

// Assign hands the complaint to a worker. When workerID is nil the best
// ranked candidate is chosen.
func (c *Coordinator) Assign(ctx context.Context, actor models.Actor, complaintID primitive.ObjectID, workerID *primitive.ObjectID) (Result, error) {
	comp, err := c.load(ctx, actor, complaintID)
	if err != nil {
		return Result{}, err
	}
	if !comp.Status.Assignable() {
		return Result{}, apperr.New(apperr.FailedPrecondition,
			"complaint is %s; only OPEN or REOPENED complaints can be assigned", comp.Status)
	}
	scope, err := scopeOf(comp)
	if err != nil {
		return Result{}, err
	}

	candidates, err := c.deps.Ranker.Rank(ctx, scope, c.cfg.CandidateLimit)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.Internal, err, "rank candidates")
	}

	worker, mode, err := c.choose(ctx, scope, candidates, workerID)
	if err != nil {
		return Result{}, err
	}

	entry := models.HistoryEntry{
		Actor:      actor.UID,
		Action:     models.ActionStatusChanged,
		FromStatus: comp.Status,
		ToStatus:   models.StatusInProgress,
		Note:       fmt.Sprintf("assigned to %s (%s assignment)", worker.FullName, mode),
		Timestamp:  c.now(),
	}

	err = c.deps.Tx.Run(ctx, func(txCtx context.Context) error {
		if err := c.deps.Complaints.MarkInProgress(txCtx, comp.ID, comp.Status, worker.ID, entry); err != nil {
			return err
		}
		return c.deps.Workers.IncrementAssigned(txCtx, worker.ID)
	})
	if err != nil {
		if errors.Is(err, complaintstore.ErrStatusChanged) {
			return Result{}, apperr.Wrap(apperr.FailedPrecondition, err, "complaint was changed concurrently")
		}
		c.log.Error("assignment commit failed",
			zap.String("complaint_id", comp.ID.Hex()),
			zap.String("worker_id", worker.ID.Hex()),
			zap.Error(err))
		return Result{}, apperr.Wrap(apperr.Internal, err, "assignment could not be committed")
	}

	res := c.refresh(ctx, comp, worker, entry)
	res.Mode = mode

	var q tasks.Queue
	c.queueSideEffects(&q, actor, res)
	c.deps.Background.Go(ctx, &q)

	c.log.Info("complaint assigned",
		zap.String("complaint_id", comp.ID.Hex()),
		zap.String("worker_id", worker.ID.Hex()),
		zap.String("mode", mode),
		zap.String("actor", actor.UID))
	return res, nil
}

// Drain waits for post-commit side effects already handed off, or for ctx.
func (c *Coordinator) Drain(ctx context.Context) error {
	return c.deps.Background.Wait(ctx)
}

// AssignWithRetry runs Assign and, when it fails with Internal, runs it once
// more from the start so every check is re-evaluated.
func (c *Coordinator) AssignWithRetry(ctx context.Context, actor models.Actor, complaintID primitive.ObjectID, workerID *primitive.ObjectID) (Result, error) {
	res, err := c.Assign(ctx, actor, complaintID, workerID)
	if err == nil || !apperr.Is(err, apperr.Internal) || ctx.Err() != nil {
		return res, err
	}
	c.log.Warn("retrying assignment", zap.String("complaint_id", complaintID.Hex()), zap.Error(err))
	return c.Assign(ctx, actor, complaintID, workerID)
}

func (c *Coordinator) load(ctx context.Context, actor models.Actor, id primitive.ObjectID) (models.Complaint, error) {
	comp, err := c.deps.Complaints.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Complaint{}, apperr.New(apperr.NotFound, "complaint not found")
	}
	if err != nil {
		return models.Complaint{}, apperr.Wrap(apperr.Internal, err, "load complaint")
	}
	if !actor.CanManage(comp.CityID, comp.DepartmentID) {
		return models.Complaint{}, apperr.New(apperr.PermissionDenied, "complaint is outside your scope")
	}
	return comp, nil
}

func scopeOf(comp models.Complaint) (models.WorkScope, error) {
	if comp.ZoneID == nil || comp.CityID == nil {
		return models.WorkScope{}, apperr.New(apperr.FailedPrecondition, "complaint has no zone; attach one before assigning")
	}
	return models.WorkScope{CityID: *comp.CityID, DepartmentID: comp.DepartmentID, ZoneID: *comp.ZoneID}, nil
}

func (c *Coordinator) choose(ctx context.Context, scope models.WorkScope, candidates []models.Worker, requested *primitive.ObjectID) (models.Worker, string, error) {
	if requested == nil {
		if len(candidates) == 0 {
			return models.Worker{}, "", apperr.New(apperr.ResourceExhausted, "no available worker in this zone")
		}
		return candidates[0], ModeAutomatic, nil
	}
	for _, w := range candidates {
		if w.ID == *requested {
			return w, ModeManual, nil
		}
	}
	// outside the top list but may still be eligible
	w, ok, err := c.deps.Workers.FindEligible(ctx, *requested, scope)
	if err != nil {
		return models.Worker{}, "", apperr.Wrap(apperr.Internal, err, "check worker eligibility")
	}
	if !ok {
		return models.Worker{}, "", apperr.New(apperr.InvalidArgument, "worker is not eligible for this complaint")
	}
	return w, ModeManual, nil
}

// refresh reloads both documents. A read failure after commit falls back to
// applying the committed change locally.
func (c *Coordinator) refresh(ctx context.Context, comp models.Complaint, w models.Worker, entry models.HistoryEntry) Result {
	res := Result{}
	if fresh, err := c.deps.Complaints.GetByID(ctx, comp.ID); err == nil {
		res.Complaint = fresh
	} else {
		c.log.Warn("reload complaint after assignment", zap.Error(err))
		comp.Status = models.StatusInProgress
		comp.AssignedTo = &w.ID
		comp.History = append(comp.History, entry)
		comp.UpdatedAt = entry.Timestamp
		res.Complaint = comp
	}
	if fresh, err := c.deps.Workers.GetByID(ctx, w.ID); err == nil {
		res.Worker = fresh
	} else {
		c.log.Warn("reload worker after assignment", zap.Error(err))
		w.AssignedCount++
		res.Worker = w
	}
	return res
}

func (c *Coordinator) queueSideEffects(q *tasks.Queue, actor models.Actor, res Result) {
	comp, w := res.Complaint, res.Worker
	if c.deps.Audit != nil {
		zoneID := primitive.NilObjectID
		if comp.ZoneID != nil {
			zoneID = *comp.ZoneID
		}
		q.Add("audit", func(ctx context.Context) error {
			c.deps.Audit.ComplaintAssigned(ctx, actor, comp.ID, w.ID, zoneID, res.Mode)
			return nil
		})
	}
	if c.deps.Notifier == nil {
		return
	}
	data := map[string]string{
		notify.KeyComplaintID:    comp.ID.Hex(),
		notify.KeyComplaintTitle: comp.Title,
		notify.KeyAddress:        comp.Address,
		notify.KeyWorkerName:     w.FullName,
	}
	if w.Email != "" {
		q.Add("notify worker", func(ctx context.Context) error {
			return c.deps.Notifier.Send(ctx, w.Email, notify.TemplateAssignedWorker, data)
		})
	}
	if comp.ReporterEmail != "" {
		q.Add("notify reporter", func(ctx context.Context) error {
			return c.deps.Notifier.Send(ctx, comp.ReporterEmail, notify.TemplateAssignedCitizen, data)
		})
	}
}
