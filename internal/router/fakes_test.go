package router

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/repository"
)

// memStore backs every store interface the services need.
type memStore struct {
	mu sync.Mutex

	students    map[int]model.StudentRecord
	risks       map[int]model.RiskFlags
	advisors    map[int]*model.Advisor
	nextAdvisor int
	predictions []model.PredictedStudent
	alerts      []model.AlertLog
	sessions    map[int]string
	jobs        []model.AlertJob
	reserved    map[[2]int]bool
	notes       map[int][]model.Notification
}

func newMemStore() *memStore {
	return &memStore{
		students: map[int]model.StudentRecord{},
		risks:    map[int]model.RiskFlags{},
		advisors: map[int]*model.Advisor{},
		sessions: map[int]string{},
		reserved: map[[2]int]bool{},
		notes:    map[int][]model.Notification{},
	}
}

func sortedIDs(ids []int) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// ─── Students / risks ─────────────────────────────────────────────────

type studentStore struct{ *memStore }

func (s studentStore) GetByID(_ context.Context, id int) (model.StudentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.students[id]
	if !ok {
		return r, repository.ErrNotFound
	}
	return r, nil
}

func (s studentStore) GetByIDs(_ context.Context, ids []int) ([]model.StudentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.StudentRecord{}
	for _, id := range sortedIDs(ids) {
		if r, ok := s.students[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s studentStore) ListAll(ctx context.Context) ([]model.StudentRecord, error) {
	s.mu.Lock()
	ids := []int{}
	for id := range s.students {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	return s.GetByIDs(ctx, ids)
}

func (s studentStore) Upsert(_ context.Context, r model.StudentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[r.StudentID] = r
	return nil
}

func (s studentStore) BulkUpsert(ctx context.Context, xs []model.StudentRecord) (int, error) {
	ids := []int{}
	for _, r := range xs {
		_ = s.Upsert(ctx, r)
		ids = append(ids, r.StudentID)
	}
	return len(sortedIDs(ids)), nil
}

func (s studentStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.students, id)
	delete(s.risks, id)
	return nil
}

type riskStore struct{ *memStore }

func (s riskStore) GetByStudentIDs(_ context.Context, ids []int) ([]model.RiskFlags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.RiskFlags{}
	for _, id := range sortedIDs(ids) {
		if r, ok := s.risks[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s riskStore) ListAll(ctx context.Context) ([]model.RiskFlags, error) {
	s.mu.Lock()
	ids := []int{}
	for id := range s.risks {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	return s.GetByStudentIDs(ctx, ids)
}

func (s riskStore) Upsert(_ context.Context, f model.RiskFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.risks[f.StudentID] = f
	return nil
}

func (s riskStore) BulkUpsert(ctx context.Context, xs []model.RiskFlags) (int, error) {
	ids := []int{}
	for _, f := range xs {
		_ = s.Upsert(ctx, f)
		ids = append(ids, f.StudentID)
	}
	return len(sortedIDs(ids)), nil
}

// ─── Advisors ─────────────────────────────────────────────────────────

type advisorStore struct{ *memStore }

func (s advisorStore) List(_ context.Context) ([]model.Advisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Advisor{}
	for _, a := range s.advisors {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s advisorStore) GetByID(_ context.Context, id int) (*model.Advisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.advisors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s advisorStore) GetByEmail(_ context.Context, email string) (*model.Advisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.advisors {
		if a.Email == strings.ToLower(email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s advisorStore) Create(_ context.Context, a *model.Advisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Email = strings.ToLower(a.Email)
	for _, x := range s.advisors {
		if x.Email == a.Email {
			return repository.ErrDuplicateEmail
		}
	}
	s.nextAdvisor++
	a.ID = s.nextAdvisor
	a.Students = sortedIDs(a.Students)
	cp := *a
	s.advisors[a.ID] = &cp
	return nil
}

func (s advisorStore) Update(_ context.Context, a *model.Advisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.advisors[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Email, cur.Name, cur.Role = strings.ToLower(a.Email), a.Name, a.Role
	if a.PasswordHash != "" {
		cur.PasswordHash = a.PasswordHash
	}
	return nil
}

func (s advisorStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.advisors[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.advisors, id)
	return nil
}

func (s advisorStore) GetRoster(_ context.Context, id int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.advisors[id]; ok {
		return sortedIDs(a.Students), nil
	}
	return []int{}, nil
}

func (s advisorStore) ReplaceRoster(_ context.Context, id int, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.advisors[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Students = sortedIDs(ids)
	return nil
}

func (s advisorStore) AddToRoster(_ context.Context, id, studentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.advisors[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Students = sortedIDs(append(a.Students, studentID))
	return nil
}

func (s advisorStore) RemoveFromRoster(_ context.Context, id, studentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.advisors[id]
	if !ok {
		return repository.ErrNotFound
	}
	for i, x := range a.Students {
		if x == studentID {
			a.Students = append(a.Students[:i:i], a.Students[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ─── Predictions / alerts / sessions / queue ──────────────────────────

type predictionStore struct{ *memStore }

func (s predictionStore) Create(_ context.Context, p *model.PredictedStudent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = len(s.predictions) + 1
	s.predictions = append(s.predictions, *p)
	return nil
}

func (s predictionStore) ListByAdvisor(_ context.Context, advisorID int) ([]model.PredictedStudent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.PredictedStudent{}
	for _, p := range s.predictions {
		if p.AdvisorID == advisorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s predictionStore) DeleteByAdvisor(_ context.Context, advisorID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := []model.PredictedStudent{}
	for _, p := range s.predictions {
		if p.AdvisorID != advisorID {
			kept = append(kept, p)
		}
	}
	n := len(s.predictions) - len(kept)
	s.predictions = kept
	return n, nil
}

type alertStore struct{ *memStore }

func (s alertStore) Create(_ context.Context, l *model.AlertLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, *l)
	return nil
}

func (s alertStore) ListByAdvisor(_ context.Context, advisorID, limit, offset int) ([]model.AlertLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := []model.AlertLog{}
	for _, l := range s.alerts {
		if l.AdvisorID == advisorID {
			all = append(all, l)
		}
	}
	if offset >= len(all) {
		return []model.AlertLog{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

type sessionStore struct{ *memStore }

func (s sessionStore) Save(_ context.Context, id int, jti string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = jti
	return nil
}

func (s sessionStore) Get(_ context.Context, id int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jti, ok := s.sessions[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return jti, nil
}

func (s sessionStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type alertQueue struct{ *memStore }

func (s alertQueue) Enqueue(_ context.Context, job model.AlertJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s alertQueue) Reserve(_ context.Context, advisorID, studentID int, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := [2]int{advisorID, studentID}
	if s.reserved[k] {
		return false, nil
	}
	s.reserved[k] = true
	return true, nil
}

func (s alertQueue) Release(_ context.Context, advisorID, studentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, [2]int{advisorID, studentID})
	return nil
}

func (s alertQueue) Stats(_ context.Context) (repository.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repository.QueueStats{Queued: int64(len(s.jobs))}, nil
}

type notifier struct{ *memStore }

func (s notifier) Publish(_ context.Context, advisorID int, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[advisorID] = append(s.notes[advisorID], n)
	return nil
}

// stubPredictor flags every student whose final grade is below 50.
type stubPredictor struct {
	err error
}

func (p stubPredictor) Predict(_ context.Context, s model.StudentRecord) (model.PredictionResult, error) {
	if p.err != nil {
		return model.PredictionResult{}, p.err
	}
	low := s.FinalGrade < 50
	prob := 0.2
	if low {
		prob = 0.8
	}
	return model.PredictionResult{
		DropoutRisk:             low,
		DropoutProbability:      prob,
		UnderperformRisk:        low,
		UnderperformProbability: prob,
	}, nil
}
