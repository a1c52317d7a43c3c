package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/repository"
)

var nop = zerolog.Nop()

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
}

// ─── Students / risks ─────────────────────────────────────────────────

type fakeStudents struct {
	rows map[int]model.StudentRecord
	err  error
}

func newFakeStudents(xs ...model.StudentRecord) *fakeStudents {
	f := &fakeStudents{rows: map[int]model.StudentRecord{}}
	for _, s := range xs {
		f.rows[s.StudentID] = s
	}
	return f
}

func (f *fakeStudents) GetByID(_ context.Context, id int) (model.StudentRecord, error) {
	s, ok := f.rows[id]
	if !ok {
		return s, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeStudents) GetByIDs(_ context.Context, ids []int) ([]model.StudentRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.StudentRecord{}
	for _, id := range sortedUnique(ids) {
		if s, ok := f.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudents) ListAll(ctx context.Context) ([]model.StudentRecord, error) {
	ids := make([]int, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	return f.GetByIDs(ctx, ids)
}

func (f *fakeStudents) Upsert(_ context.Context, s model.StudentRecord) error {
	f.rows[s.StudentID] = s
	return nil
}

func (f *fakeStudents) BulkUpsert(_ context.Context, xs []model.StudentRecord) (int, error) {
	seen := map[int]struct{}{}
	for _, s := range xs {
		f.rows[s.StudentID] = s
		seen[s.StudentID] = struct{}{}
	}
	return len(seen), nil
}

func (f *fakeStudents) Delete(_ context.Context, id int) error {
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeRisks struct {
	rows map[int]model.RiskFlags
}

func newFakeRisks(xs ...model.RiskFlags) *fakeRisks {
	f := &fakeRisks{rows: map[int]model.RiskFlags{}}
	for _, r := range xs {
		f.rows[r.StudentID] = r
	}
	return f
}

func (f *fakeRisks) GetByStudentIDs(_ context.Context, ids []int) ([]model.RiskFlags, error) {
	out := []model.RiskFlags{}
	for _, id := range sortedUnique(ids) {
		if r, ok := f.rows[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRisks) ListAll(ctx context.Context) ([]model.RiskFlags, error) {
	ids := make([]int, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	return f.GetByStudentIDs(ctx, ids)
}

func (f *fakeRisks) Upsert(_ context.Context, r model.RiskFlags) error {
	f.rows[r.StudentID] = r
	return nil
}

func (f *fakeRisks) BulkUpsert(_ context.Context, xs []model.RiskFlags) (int, error) {
	seen := map[int]struct{}{}
	for _, r := range xs {
		f.rows[r.StudentID] = r
		seen[r.StudentID] = struct{}{}
	}
	return len(seen), nil
}

// ─── Advisors ─────────────────────────────────────────────────────────

type fakeAdvisors struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*model.Advisor
}

func newFakeAdvisors(xs ...model.Advisor) *fakeAdvisors {
	f := &fakeAdvisors{rows: map[int]*model.Advisor{}}
	for i := range xs {
		a := xs[i]
		if a.ID > f.nextID {
			f.nextID = a.ID
		}
		f.rows[a.ID] = &a
	}
	return f
}

func (f *fakeAdvisors) List(_ context.Context) ([]model.Advisor, error) {
	out := []model.Advisor{}
	for _, a := range f.rows {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAdvisors) GetByID(_ context.Context, id int) (*model.Advisor, error) {
	a, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAdvisors) GetByEmail(_ context.Context, email string) (*model.Advisor, error) {
	for _, a := range f.rows {
		if a.Email == strings.ToLower(email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdvisors) Create(_ context.Context, a *model.Advisor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.Email = strings.ToLower(a.Email)
	for _, existing := range f.rows {
		if existing.Email == a.Email {
			return repository.ErrDuplicateEmail
		}
	}
	f.nextID++
	a.ID = f.nextID
	cp := *a
	f.rows[a.ID] = &cp
	return nil
}

func (f *fakeAdvisors) Update(_ context.Context, a *model.Advisor) error {
	cur, ok := f.rows[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range f.rows {
		if id != a.ID && existing.Email == strings.ToLower(a.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	cur.Email, cur.Name, cur.Role = strings.ToLower(a.Email), a.Name, a.Role
	if a.PasswordHash != "" {
		cur.PasswordHash = a.PasswordHash
	}
	return nil
}

func (f *fakeAdvisors) Delete(_ context.Context, id int) error {
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeAdvisors) GetRoster(_ context.Context, advisorID int) ([]int, error) {
	a, ok := f.rows[advisorID]
	if !ok {
		return []int{}, nil
	}
	return sortedUnique(a.Students), nil
}

func (f *fakeAdvisors) ReplaceRoster(_ context.Context, advisorID int, ids []int) error {
	a, ok := f.rows[advisorID]
	if !ok {
		return repository.ErrNotFound
	}
	a.Students = sortedUnique(ids)
	return nil
}

func (f *fakeAdvisors) AddToRoster(_ context.Context, advisorID, studentID int) error {
	a, ok := f.rows[advisorID]
	if !ok {
		return repository.ErrNotFound
	}
	a.Students = sortedUnique(append(a.Students, studentID))
	return nil
}

func (f *fakeAdvisors) RemoveFromRoster(_ context.Context, advisorID, studentID int) error {
	a, ok := f.rows[advisorID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, id := range a.Students {
		if id == studentID {
			a.Students = append(a.Students[:i:i], a.Students[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ─── Predictions / alerts ─────────────────────────────────────────────

type fakePredictions struct {
	nextID int
	rows   []model.PredictedStudent
}

func (f *fakePredictions) Create(_ context.Context, p *model.PredictedStudent) error {
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakePredictions) ListByAdvisor(_ context.Context, advisorID int) ([]model.PredictedStudent, error) {
	out := []model.PredictedStudent{}
	for _, p := range f.rows {
		if p.AdvisorID == advisorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePredictions) DeleteByAdvisor(_ context.Context, advisorID int) (int, error) {
	kept := f.rows[:0]
	n := 0
	for _, p := range f.rows {
		if p.AdvisorID == advisorID {
			n++
			continue
		}
		kept = append(kept, p)
	}
	f.rows = kept
	return n, nil
}

type fakeAlerts struct {
	rows []model.AlertLog
	err  error
}

func (f *fakeAlerts) Create(_ context.Context, l *model.AlertLog) error {
	if f.err != nil {
		return f.err
	}
	l.CreatedAt = time.Now()
	f.rows = append(f.rows, *l)
	return nil
}

func (f *fakeAlerts) ListByAdvisor(_ context.Context, advisorID, limit, offset int) ([]model.AlertLog, int, error) {
	all := []model.AlertLog{}
	for _, l := range f.rows {
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

// ─── Redis-backed collaborators ──────────────────────────────────────

type fakeSessions struct {
	rows map[int]string
}

func newFakeSessions() *fakeSessions { return &fakeSessions{rows: map[int]string{}} }

func (f *fakeSessions) Save(_ context.Context, advisorID int, jti string, _ time.Duration) error {
	f.rows[advisorID] = jti
	return nil
}

func (f *fakeSessions) Get(_ context.Context, advisorID int) (string, error) {
	jti, ok := f.rows[advisorID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return jti, nil
}

func (f *fakeSessions) Delete(_ context.Context, advisorID int) error {
	delete(f.rows, advisorID)
	return nil
}

type fakeQueue struct {
	jobs       []model.AlertJob
	reserved   map[[2]int]bool
	enqueueErr error
}

func newFakeQueue() *fakeQueue { return &fakeQueue{reserved: map[[2]int]bool{}} }

func (f *fakeQueue) Enqueue(_ context.Context, job model.AlertJob) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Reserve(_ context.Context, advisorID, studentID int, _ time.Duration) (bool, error) {
	k := [2]int{advisorID, studentID}
	if f.reserved[k] {
		return false, nil
	}
	f.reserved[k] = true
	return true, nil
}

func (f *fakeQueue) Release(_ context.Context, advisorID, studentID int) error {
	delete(f.reserved, [2]int{advisorID, studentID})
	return nil
}

type fakePredictor struct {
	results map[int]model.PredictionResult
	failOn  int
	calls   []int
}

func (f *fakePredictor) Predict(_ context.Context, s model.StudentRecord) (model.PredictionResult, error) {
	f.calls = append(f.calls, s.StudentID)
	if s.StudentID == f.failOn {
		return model.PredictionResult{}, errors.New("connection refused")
	}
	return f.results[s.StudentID], nil
}

type fakeNotifier struct {
	sent map[int][]model.Notification
	err  error
}

func newFakeNotifier() *fakeNotifier { return &fakeNotifier{sent: map[int][]model.Notification{}} }

func (f *fakeNotifier) Publish(_ context.Context, advisorID int, n model.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent[advisorID] = append(f.sent[advisorID], n)
	return nil
}

type plainHasher struct{}

func (plainHasher) HashPassword(p string) (string, error) { return "hashed:" + p, nil }

// ─── Helpers ──────────────────────────────────────────────────────────

func sortedUnique(ids []int) []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func rec(id int, name string, grade float64) model.StudentRecord {
	return model.StudentRecord{
		StudentID:       id,
		Name:            name,
		Gender:          model.GenderFemale,
		AttendanceRate:  80,
		ParentalSupport: model.ParentalSupportMedium,
		FinalGrade:      grade,
		Email:           strings.ToLower(name) + "@uni.edu",
	}
}

func input(id int, name string, grade float64) model.StudentInput {
	r := rec(id, name, grade)
	return model.StudentInput{
		StudentID:       r.StudentID,
		Name:            r.Name,
		Gender:          r.Gender,
		AttendanceRate:  r.AttendanceRate,
		ParentalSupport: r.ParentalSupport,
		FinalGrade:      r.FinalGrade,
		Email:           r.Email,
	}
}
