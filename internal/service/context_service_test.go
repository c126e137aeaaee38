package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var numberedEntry = regexp.MustCompile(`(?m)^\d+\. `)

func newTestContextService(t *testing.T, store *fakeStore) *ContextService {
	return NewContextService(store, zaptest.NewLogger(t))
}

func TestRetrieveGeneralSkipsStore(t *testing.T) {
	store := &fakeStore{}
	rc := newTestContextService(t, store).Retrieve(context.Background(), model.GeneralClassification())

	assert.True(t, rc.IsEmpty())
	assert.Zero(t, store.calls)
}

func TestRetrieveCapsMaterialSummary(t *testing.T) {
	store := &fakeStore{materials: materialsN(13)}
	rc := newTestContextService(t, store).Retrieve(context.Background(),
		model.Classification{ContentType: model.ContentMaterials, QueryType: model.QueryList})

	assert.Equal(t, 13, rc.Count)
	assert.False(t, rc.Searched)
	assert.Contains(t, rc.Text, "DATABASE CONTEXT - All Course Materials:\n")
	assert.Len(t, numberedEntry.FindAllString(rc.Text, -1), 10)
	assert.Contains(t, rc.Text, "... and 3 more materials.\n")
	assert.NotContains(t, rc.Text, "file11.pdf")
}

func TestRetrieveMaterialSearchUsesTerms(t *testing.T) {
	store := &fakeStore{materials: []model.Material{{
		Course: "Networks", FileName: "ipv6.pdf", Description: "Addressing", CreatedBy: "admin",
	}}}
	rc := newTestContextService(t, store).Retrieve(context.Background(), model.Classification{
		ContentType: model.ContentMaterials, QueryType: model.QuerySearch, SearchTerms: "ipv6",
	})

	assert.Equal(t, "ipv6", store.lastSearch)
	assert.True(t, rc.Searched)
	assert.Equal(t,
		"DATABASE CONTEXT - Course Materials (Search: ipv6):\n"+
			"Available Course Materials (matching 'ipv6'):\n\n"+
			"1. Course: Networks\n"+
			"   Material: ipv6.pdf\n"+
			"   Description: Addressing\n"+
			"   Created by: admin\n\n\n",
		rc.Text)
}

func TestRetrieveSearchWithoutTermsListsAll(t *testing.T) {
	store := &fakeStore{}
	rc := newTestContextService(t, store).Retrieve(context.Background(),
		model.Classification{ContentType: model.ContentMaterials, QueryType: model.QuerySearch})

	assert.Contains(t, rc.Text, "DATABASE CONTEXT - All Course Materials:\nNo course materials found.")
}

func TestRetrieveEmptyAssignmentSearchMentionsTerm(t *testing.T) {
	rc := newTestContextService(t, &fakeStore{}).Retrieve(context.Background(), model.Classification{
		ContentType: model.ContentAssignments, QueryType: model.QuerySearch, SearchTerms: "nonexistentterm",
	})

	assert.Contains(t, rc.Text, "No assignments found")
	assert.Contains(t, rc.Text, "nonexistentterm")
	assert.Zero(t, rc.Count)
}

func TestRetrieveUpcomingAssignments(t *testing.T) {
	store := &fakeStore{assignments: []model.Assignment{
		{Title: "Lab 1", DueDate: dueOn(2026, 3, 5)},
		{Title: "No due date"},
		{Title: "Essay", DueDate: dueOn(2026, 3, 9)},
	}}
	rc := newTestContextService(t, store).Retrieve(context.Background(),
		model.Classification{ContentType: model.ContentAssignments, QueryType: model.QueryStatus})

	assert.Equal(t,
		"DATABASE CONTEXT - Upcoming Assignments:\n- Lab 1 (Due: 2026-03-05)\n- Essay (Due: 2026-03-09)\n",
		rc.Text)
}

func TestRetrieveNoUpcomingAssignments(t *testing.T) {
	rc := newTestContextService(t, &fakeStore{}).Retrieve(context.Background(),
		model.Classification{ContentType: model.ContentAssignments, QueryType: model.QueryStatus})

	assert.Contains(t, rc.Text, "No upcoming assignments are due.")
}

func TestAssignmentSummaryOmitsAbsentFields(t *testing.T) {
	got := AssignmentsSummary([]model.Assignment{{
		Title: "Quiz 1", Course: "Java", DueDate: dueOn(2026, 4, 1), Completion: "yes", Grade: "  ",
		Answer: "my answer", TeacherRemarks: "ok",
	}}, "")

	assert.Equal(t,
		"Available Assignments:\n\n"+
			"1. Title: Quiz 1\n"+
			"   Course: Java\n"+
			"   Due Date: 2026-04-01\n"+
			"   Status: yes\n"+
			"   Info: my answer\n"+
			"   Teacher Remarks: ok\n\n",
		got)
}

func TestRetrieveStoreFailureDegrades(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	rc := newTestContextService(t, store).Retrieve(context.Background(),
		model.Classification{ContentType: model.ContentAssignments, QueryType: model.QueryList})

	require.True(t, rc.Failed)
	assert.Equal(t, "DATABASE CONTEXT: Error retrieving data - connection refused\n", rc.Text)
}
