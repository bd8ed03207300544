package assignment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	complaintstore "github.com/dalemusser/cityfix/internal/app/store/complaints"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memState is an in-memory complaint and worker table with snapshot
// rollback, standing in for a transactional database.
type memState struct {
	mu         sync.Mutex
	complaints map[primitive.ObjectID]models.Complaint
	workers    map[primitive.ObjectID]models.Worker

	failMark      error
	failIncrement error
	failCommits   int
	notSupported  bool
}

func newMemState() *memState {
	return &memState{
		complaints: map[primitive.ObjectID]models.Complaint{},
		workers:    map[primitive.ObjectID]models.Worker{},
	}
}

func cloneComplaint(c models.Complaint) models.Complaint {
	c.History = append([]models.HistoryEntry(nil), c.History...)
	c.Votes = append([]string(nil), c.Votes...)
	return c
}

// --- ComplaintRepo ---

type memComplaints struct{ s *memState }

func (m memComplaints) GetByID(_ context.Context, id primitive.ObjectID) (models.Complaint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.complaints[id]
	if !ok {
		return models.Complaint{}, mongo.ErrNoDocuments
	}
	return cloneComplaint(c), nil
}

func (m memComplaints) MarkInProgress(_ context.Context, id primitive.ObjectID, from models.ComplaintStatus, workerID primitive.ObjectID, entry models.HistoryEntry) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failMark != nil {
		return m.s.failMark
	}
	c, ok := m.s.complaints[id]
	if !ok || c.Status != from {
		return complaintstore.ErrStatusChanged
	}
	c = cloneComplaint(c)
	c.Status = models.StatusInProgress
	w := workerID
	c.AssignedTo = &w
	c.History = append(c.History, entry)
	c.UpdatedAt = entry.Timestamp
	m.s.complaints[id] = c
	return nil
}

// --- WorkerRepo + Ranker ---

type memWorkers struct{ s *memState }

func (m memWorkers) GetByID(_ context.Context, id primitive.ObjectID) (models.Worker, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	w, ok := m.s.workers[id]
	if !ok {
		return models.Worker{}, mongo.ErrNoDocuments
	}
	return w, nil
}

func eligible(w models.Worker, scope models.WorkScope) bool {
	return w.IsAvailable && w.CityID == scope.CityID && w.DepartmentID == scope.DepartmentID && w.ZoneID == scope.ZoneID
}

func (m memWorkers) FindEligible(_ context.Context, id primitive.ObjectID, scope models.WorkScope) (models.Worker, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	w, ok := m.s.workers[id]
	if !ok || !eligible(w, scope) {
		return models.Worker{}, false, nil
	}
	return w, true, nil
}

func (m memWorkers) IncrementAssigned(_ context.Context, id primitive.ObjectID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failIncrement != nil {
		return m.s.failIncrement
	}
	w, ok := m.s.workers[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	w.AssignedCount++
	m.s.workers[id] = w
	return nil
}

func (m memWorkers) Rank(_ context.Context, scope models.WorkScope, limit int) ([]models.Worker, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []models.Worker{}
	for _, w := range m.s.workers {
		if eligible(w, scope) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AssignedCount != b.AssignedCount {
			return a.AssignedCount < b.AssignedCount
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID.Hex() < b.ID.Hex()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- TxRunner ---

var errTransient = errors.New("transient commit failure")

type memTx struct{ s *memState }

func (t memTx) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	t.s.mu.Lock()
	if t.s.notSupported {
		t.s.mu.Unlock()
		return errors.New("transactions not supported by this deployment")
	}
	complaints := make(map[primitive.ObjectID]models.Complaint, len(t.s.complaints))
	for k, v := range t.s.complaints {
		complaints[k] = cloneComplaint(v)
	}
	workers := make(map[primitive.ObjectID]models.Worker, len(t.s.workers))
	for k, v := range t.s.workers {
		workers[k] = v
	}
	failCommit := t.s.failCommits > 0
	if failCommit {
		t.s.failCommits--
	}
	t.s.mu.Unlock()

	err := fn(ctx)
	if err == nil && failCommit {
		err = errTransient
	}
	if err != nil {
		t.s.mu.Lock()
		t.s.complaints = complaints
		t.s.workers = workers
		t.s.mu.Unlock()
	}
	return err
}

// --- AuditSink + Notifier ---

type auditCall struct {
	actor       string
	complaintID primitive.ObjectID
	workerID    primitive.ObjectID
	mode        string
}

type memAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (a *memAudit) ComplaintAssigned(_ context.Context, actor models.Actor, complaintID, workerID, _ primitive.ObjectID, mode string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, auditCall{actor.UID, complaintID, workerID, mode})
}

// stuckAudit blocks until release is closed or its context ends.
type stuckAudit struct {
	release  chan struct{}
	released atomic.Bool
}

func (a *stuckAudit) ComplaintAssigned(ctx context.Context, _ models.Actor, _, _, _ primitive.ObjectID, _ string) {
	select {
	case <-a.release:
		a.released.Store(true)
	case <-ctx.Done():
	}
}

type sent struct {
	to, template string
}

type memNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (n *memNotifier) Send(_ context.Context, recipient, template string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{recipient, template})
	return n.err
}
