package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eduassist/eduassist-go/internal/client"
	"github.com/eduassist/eduassist-go/internal/document"
	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const gradedJSON = "Here is the grade:\n```json\n" +
	`{"grade":"B","percentage":"82%","remarks":"Solid work","strengths":["clear"],"improvements":["cite sources","check units"]}` +
	"\n```"

var fixedNow = time.Date(2026, 10, 18, 14, 30, 5, 0, time.UTC)

func newTestGradingService(t *testing.T, store *fakeStore, gen *stubGenerator, roots ...string) *GradingService {
	s := NewGradingService(store, gen, document.NewLocator(document.KindAssignments, roots...),
		BatchLimits{Default: 10, Max: 50}, 0, zaptest.NewLogger(t))
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestGradeSavesFormattedRemarks(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{assignments: []model.Assignment{{ID: id, Title: "Lab", Answer: "my answer"}}}
	gen := &stubGenerator{reply: gradedJSON}
	svc := newTestGradingService(t, store, gen)

	res, err := svc.Grade(context.Background(), id, false)
	require.NoError(t, err)

	assert.Equal(t, "B", res.Grade)
	assert.Equal(t, 82, res.Percentage)
	assert.True(t, res.AIGenerated)
	assert.True(t, res.Saved)
	assert.Equal(t, id.String(), res.AssignmentID)
	assert.Equal(t, gradingGeneration, gen.configs[0])

	saved := store.grades[id]
	assert.Equal(t, "B", saved[0])
	assert.Equal(t, "Solid work\n\nStrengths: clear\n\nAreas for improvement: cite sources, check units\n\n[AI Auto-Graded on 2026-10-18 14:30:05]", saved[1])
}

func TestGradePreviewDoesNotSave(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{assignments: []model.Assignment{{ID: id, Title: "Lab"}}}
	svc := newTestGradingService(t, store, &stubGenerator{reply: gradedJSON})

	res, err := svc.Grade(context.Background(), id, true)
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.Empty(t, store.grades)
}

func TestGradeMissingAssignment(t *testing.T) {
	svc := newTestGradingService(t, &fakeStore{}, &stubGenerator{})

	_, err := svc.Grade(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestGradeReadsUploadedFiles(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()
	dir := filepath.Join(root, "assignments", id.String())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "questions.txt"), []byte("Q1: define TCP"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my-answer.txt"), []byte("TCP is reliable"), 0o644))

	store := &fakeStore{assignments: []model.Assignment{{
		ID: id, Title: "Quiz", QuestionsFile: "questions.txt", AnswerFile: "my-answer.txt",
	}}}
	gen := &stubGenerator{reply: gradedJSON}
	svc := newTestGradingService(t, store, gen, root)

	_, err := svc.Grade(context.Background(), id, true)
	require.NoError(t, err)
	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "Questions File Content:\nQ1: define TCP")
	assert.Contains(t, prompt, "Student's Answer File Content:\nTCP is reliable")
	assert.Contains(t, prompt, "IMPORTANT: You have access to both")
}

func TestGradeContinuesWhenFilesMissing(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{assignments: []model.Assignment{{ID: id, AnswerFile: "essay.pptx"}}}
	gen := &stubGenerator{reply: gradedJSON}
	svc := newTestGradingService(t, store, gen, t.TempDir())

	_, err := svc.Grade(context.Background(), id, true)
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt(), "Student's Answer File: File not found: essay.pptx")
}

func TestGradeUnsupportedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "essay.pptx"), []byte("x"), 0o644))
	id := uuid.New()
	store := &fakeStore{assignments: []model.Assignment{{ID: id, AnswerFile: "essay.pptx"}}}
	gen := &stubGenerator{reply: gradedJSON}
	svc := newTestGradingService(t, store, gen, root)

	_, err := svc.Grade(context.Background(), id, true)
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt(), "[Error extracting text: Unsupported file type: pptx]")
}

func TestGradeGenerationFailure(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{assignments: []model.Assignment{{ID: id}}}
	svc := newTestGradingService(t, store, &stubGenerator{err: &client.GenerationError{StatusCode: 500, Body: "x"}})

	_, err := svc.Grade(context.Background(), id, false)
	var genErr *client.GenerationError
	assert.True(t, errors.As(err, &genErr))
	assert.Empty(t, store.grades)
}

func TestParseGradingResponseFallback(t *testing.T) {
	res := ParseGradingResponse("I think this deserves a B")
	assert.Equal(t, "C", res.Grade)
	assert.Equal(t, 75, res.Percentage)
	assert.Equal(t, "AI Analysis: I think this deserves a B", res.Remarks)
	assert.Equal(t, model.StringList{"Unable to parse detailed analysis"}, res.Strengths)
	assert.Equal(t, model.StringList{"Please review manually"}, res.Improvements)

	res = ParseGradingResponse(`{"grade":"A","percentage":94.6,"strengths":"concise"}`)
	assert.Equal(t, "A", res.Grade)
	assert.Equal(t, 94, res.Percentage)
	assert.Equal(t, model.StringList{"concise"}, res.Strengths)
}

func TestSortAssignmentFiles(t *testing.T) {
	tests := []struct {
		name      string
		a         model.Assignment
		questions string
		answers   string
	}{
		{"question hint", model.Assignment{AnswerFile: "Problem_Set.pdf"}, "Problem_Set.pdf", ""},
		{"answer hint", model.Assignment{AnswerFile: "solution.docx"}, "", "solution.docx"},
		{"unknown defaults to answers", model.Assignment{AnswerFile: "week3.pdf"}, "", "week3.pdf"},
		{"explicit questions column wins", model.Assignment{QuestionsFile: "q.pdf", AnswerFile: "task.pdf"}, "q.pdf", "task.pdf"},
		{"nothing", model.Assignment{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, a := SortAssignmentFiles(&tt.a)
			assert.Equal(t, tt.questions, q)
			assert.Equal(t, tt.answers, a)
		})
	}
}

func TestGradeBatchCountsResults(t *testing.T) {
	ok1, ok2, graded := uuid.New(), uuid.New(), uuid.New()
	store := &fakeStore{assignments: []model.Assignment{
		{ID: ok1, Title: "One", Answer: "a"},
		{ID: graded, Title: "Done", Grade: "A"},
		{ID: ok2, Title: "Two", Answer: "b"},
	}}
	svc := newTestGradingService(t, store, &stubGenerator{reply: gradedJSON})

	res, err := svc.GradeBatch(context.Background(), "", "", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ProcessedCount)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Zero(t, res.ErrorCount)
	assert.Equal(t, "One", res.Results[0].Title)
	assert.Len(t, store.grades, 2)
}

func TestGradeBatchRecordsItemErrors(t *testing.T) {
	store := &fakeStore{assignments: []model.Assignment{{ID: uuid.New(), Title: "One"}}}
	svc := newTestGradingService(t, store, &stubGenerator{err: errors.New("quota")})

	res, err := svc.GradeBatch(context.Background(), "", "all", 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ErrorCount)
	assert.False(t, res.Results[0].Success)
	assert.Contains(t, res.Results[0].Error, "quota")
}

func TestGradeBatchKeepsResultsWhenInterrupted(t *testing.T) {
	store := &fakeStore{assignments: []model.Assignment{
		{ID: uuid.New(), Title: "One", Answer: "a"},
		{ID: uuid.New(), Title: "Two", Answer: "b"},
	}}
	svc := newTestGradingService(t, store, &stubGenerator{reply: gradedJSON})
	// 第二项需要等待一小时，超过 ctx 截止时间
	svc.limiter = newBatchLimiter(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := svc.GradeBatch(ctx, "", "", 0, false)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.ProcessedCount)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, "One", res.Results[0].Title)
	assert.Len(t, store.grades, 1)
}

func TestBatchLimitsClamp(t *testing.T) {
	l := BatchLimits{Default: 10, Max: 50}
	assert.Equal(t, 10, l.Clamp(0))
	assert.Equal(t, 7, l.Clamp(7))
	assert.Equal(t, 50, l.Clamp(500))
}
