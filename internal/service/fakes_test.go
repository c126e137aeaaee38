package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eduassist/eduassist-go/internal/client"
	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/repository"
	"github.com/google/uuid"
)

// fakeStore 内存数据，err 非空时所有查询都失败
type fakeStore struct {
	mu            sync.Mutex
	materials     []model.Material
	assignments   []model.Assignment
	conversations []model.Conversation
	evaluations   []model.MaterialEvaluation
	grades        map[uuid.UUID][2]string
	err           error
	lastSearch    string
	calls         int
}

func (f *fakeStore) hit(term string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastSearch = term
	return f.err
}

func (f *fakeStore) SearchMaterials(_ context.Context, term string) ([]model.Material, error) {
	return f.materials, f.hit(term)
}

func (f *fakeStore) ListMaterials(context.Context) ([]model.Material, error) {
	return f.materials, f.hit("")
}

func (f *fakeStore) MaterialsByCourse(_ context.Context, course string, limit int) ([]model.Material, error) {
	if err := f.hit(course); err != nil {
		return nil, err
	}
	var out []model.Material
	for _, m := range f.materials {
		if m.Course == course && (limit <= 0 || len(out) < limit) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) SearchAssignments(_ context.Context, term string) ([]model.Assignment, error) {
	return f.assignments, f.hit(term)
}

func (f *fakeStore) ListAssignments(context.Context) ([]model.Assignment, error) {
	return f.assignments, f.hit("")
}

func (f *fakeStore) UpcomingAssignments(context.Context) ([]model.Assignment, error) {
	var out []model.Assignment
	for _, a := range f.assignments {
		if a.DueDate != nil {
			out = append(out, a)
		}
	}
	return out, f.hit("")
}

func (f *fakeStore) AssignmentsByStatus(_ context.Context, status string) ([]model.Assignment, error) {
	return f.assignments, f.hit(status)
}

func (f *fakeStore) AssignmentsByCourse(_ context.Context, course string) ([]model.Assignment, error) {
	return f.assignments, f.hit(course)
}

func (f *fakeStore) SaveConversation(_ context.Context, c *model.Conversation) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations = append(f.conversations, *c)
	return nil
}

func (f *fakeStore) GetAssignment(_ context.Context, id uuid.UUID) (*model.Assignment, error) {
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			a := f.assignments[i]
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) UngradedAssignments(_ context.Context, filter repository.UngradedFilter) ([]model.Assignment, error) {
	var out []model.Assignment
	for _, a := range f.assignments {
		if a.Grade != "" {
			continue
		}
		if filter.Course != "" && a.Course != filter.Course {
			continue
		}
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		out = append(out, a)
	}
	return out, f.err
}

func (f *fakeStore) SaveGrade(_ context.Context, id uuid.UUID, grade, remarks string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grades == nil {
		f.grades = make(map[uuid.UUID][2]string)
	}
	f.grades[id] = [2]string{grade, remarks}
	return nil
}

func (f *fakeStore) GetMaterial(_ context.Context, id uuid.UUID) (*model.Material, error) {
	for i := range f.materials {
		if f.materials[i].ID == id {
			m := f.materials[i]
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) SaveEvaluation(_ context.Context, e *model.MaterialEvaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluations = append(f.evaluations, *e)
	return nil
}

// stubGenerator 默认回显提示词
type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	noKey   bool
	prompts []string
	configs []client.GenerationConfig
}

func (g *stubGenerator) Generate(_ context.Context, prompt string, cfg client.GenerationConfig) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.configs = append(g.configs, cfg)
	if g.err != nil {
		return "", g.err
	}
	if g.reply != "" {
		return g.reply, nil
	}
	return prompt, nil
}

func (g *stubGenerator) GenerateWithRetry(ctx context.Context, prompt string, cfg client.GenerationConfig, _ int) (string, error) {
	return g.Generate(ctx, prompt, cfg)
}

func (g *stubGenerator) Model() string { return "gemini-test" }

func (g *stubGenerator) HasAPIKey() bool { return !g.noKey }

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func materialsN(n int) []model.Material {
	out := make([]model.Material, n)
	for i := range out {
		out[i] = model.Material{Course: fmt.Sprintf("Course %d", i+1), FileName: fmt.Sprintf("file%d.pdf", i+1)}
	}
	return out
}

func dueOn(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
