package run

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"
)

type mockRepo struct {
	mu         sync.Mutex
	runs       map[int64]*Run
	nextID     int64
	staleCount int64
	staleErr   error
	createErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{runs: make(map[int64]*Run), nextID: 1}
}

func (m *mockRepo) Create(_ context.Context, r *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	r.ID = m.nextID
	m.nextID++
	cp := *r
	m.runs[r.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, r *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.runs[r.ID] = &cp
	return nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "run not found")
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, source string, status Status) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		if source != "" && r.Source != source {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockRepo) FailStale(_ context.Context, _ string) (int64, error) {
	return m.staleCount, m.staleErr
}

func (m *mockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

type mockProcessor struct {
	mu      sync.Mutex
	calls   int
	err     error
	release chan struct{}
}

func (p *mockProcessor) Process(ctx context.Context, r *Run) error {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		r.Status = StatusFailed
		r.Error = p.err.Error()
		return p.err
	}
	r.Status = StatusCompleted
	r.NewCount = 2
	return nil
}

func (p *mockProcessor) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestService_Execute(t *testing.T) {
	repo := newMockRepo()
	proc := &mockProcessor{}
	svc := NewService(repo, proc, "govmu", "https://mauritiusjobs.govmu.org/")

	r, err := svc.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != 1 {
		t.Errorf("expected run id 1, got %d", r.ID)
	}
	if r.RunID == "" {
		t.Error("expected a correlation id")
	}
	if r.Source != "govmu" {
		t.Errorf("expected source govmu, got %s", r.Source)
	}
	if r.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", r.Status)
	}
	if svc.Running() {
		t.Error("service should be idle after Execute")
	}
}

func TestService_Execute_ProcessError(t *testing.T) {
	proc := &mockProcessor{err: errors.New("store unreachable")}
	svc := NewService(newMockRepo(), proc, "govmu", "https://example.com/")

	r, err := svc.Execute(context.Background())
	if err == nil {
		t.Fatal("expected processing error")
	}
	if r == nil || r.Status != StatusFailed {
		t.Fatalf("expected failed run, got %+v", r)
	}
	if svc.Running() {
		t.Error("service should be idle after a failed run")
	}
}

func TestService_Execute_CreateError(t *testing.T) {
	repo := newMockRepo()
	repo.createErr = errors.New("disk full")
	svc := NewService(repo, &mockProcessor{}, "govmu", "https://example.com/")

	if _, err := svc.Execute(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if svc.Running() {
		t.Error("busy flag must be released when the run cannot be created")
	}
}

func TestService_OneRunAtATime(t *testing.T) {
	repo := newMockRepo()
	proc := &mockProcessor{release: make(chan struct{})}
	svc := NewService(repo, proc, "govmu", "https://example.com/")

	first, err := svc.Launch(context.Background())
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if first.Status != StatusRunning {
		t.Errorf("expected running snapshot, got %s", first.Status)
	}

	_, err = svc.Execute(context.Background())
	var ae *apperror.AppError
	if !errors.As(err, &ae) || ae.Code() != apperror.Conflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	close(proc.release)
	svc.Wait()
	if svc.Running() {
		t.Error("service should be idle once the launched run returned")
	}
	if repo.count() != 1 {
		t.Errorf("expected 1 run recorded, got %d", repo.count())
	}
}

func TestService_FailStaleRuns(t *testing.T) {
	repo := newMockRepo()
	repo.staleCount = 3
	svc := NewService(repo, &mockProcessor{}, "govmu", "https://example.com/")

	if err := svc.FailStaleRuns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo.staleErr = errors.New("locked")
	if err := svc.FailStaleRuns(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestService_Get(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockProcessor{}, "govmu", "https://example.com/")
	ctx := context.Background()

	if err := repo.Create(ctx, &Run{RunID: "abc", Source: "govmu", Status: StatusCompleted}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, GetRunRequest{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RunID != "abc" {
		t.Errorf("expected abc, got %s", got.RunID)
	}
}

func TestService_Get_InvalidID(t *testing.T) {
	svc := NewService(newMockRepo(), &mockProcessor{}, "govmu", "https://example.com/")
	_, err := svc.Get(context.Background(), GetRunRequest{ID: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestService_List(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockProcessor{}, "govmu", "https://example.com/")
	ctx := context.Background()

	if err := repo.Create(ctx, &Run{Source: "govmu", Status: StatusCompleted}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, &Run{Source: "govmu", Status: StatusFailed}); err != nil {
		t.Fatal(err)
	}

	runs, err := svc.List(ctx, ListRunsRequest{Status: StatusFailed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}

	if _, err := svc.List(ctx, ListRunsRequest{Status: "paused"}); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}
