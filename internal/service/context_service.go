package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/eduassist/eduassist-go/internal/model"
	"go.uber.org/zap"
)

// SummaryLimit 摘要中最多展示的记录数
const SummaryLimit = 10

// ContextService 根据分类结果从数据库检索上下文
type ContextService struct {
	store  LearningStore
	logger *zap.Logger
}

// NewContextService 创建上下文检索服务
func NewContextService(store LearningStore, logger *zap.Logger) *ContextService {
	return &ContextService{store: store, logger: logger}
}

// Retrieve 检索并格式化数据库上下文，查询失败时返回错误说明而不是报错
func (s *ContextService) Retrieve(ctx context.Context, c model.Classification) model.RetrievedContext {
	var (
		rc  model.RetrievedContext
		err error
	)
	switch c.ContentType {
	case model.ContentMaterials:
		rc, err = s.materialsContext(ctx, c)
	case model.ContentAssignments:
		rc, err = s.assignmentsContext(ctx, c)
	default:
		return model.RetrievedContext{}
	}

	if err != nil {
		s.logger.Error("检索数据库上下文失败",
			zap.String("contentType", string(c.ContentType)),
			zap.String("queryType", string(c.QueryType)),
			zap.Error(err))
		return model.RetrievedContext{
			Text:     "DATABASE CONTEXT: Error retrieving data - " + err.Error() + "\n",
			Searched: rc.Searched,
			Failed:   true,
		}
	}

	s.logger.Debug("数据库上下文检索完成",
		zap.String("contentType", string(c.ContentType)),
		zap.Int("count", rc.Count))
	return rc
}

func (s *ContextService) materialsContext(ctx context.Context, c model.Classification) (model.RetrievedContext, error) {
	if c.QueryType == model.QuerySearch && c.HasSearchTerms() {
		rc := model.RetrievedContext{Searched: true}
		materials, err := s.store.SearchMaterials(ctx, c.SearchTerms)
		if err != nil {
			return rc, err
		}
		rc.Count = len(materials)
		rc.Text = "DATABASE CONTEXT - Course Materials (Search: " + c.SearchTerms + "):\n" +
			MaterialsSummary(materials, c.SearchTerms) + "\n"
		return rc, nil
	}

	var rc model.RetrievedContext
	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return rc, err
	}
	rc.Count = len(materials)
	rc.Text = "DATABASE CONTEXT - All Course Materials:\n" + MaterialsSummary(materials, "") + "\n"
	return rc, nil
}

func (s *ContextService) assignmentsContext(ctx context.Context, c model.Classification) (model.RetrievedContext, error) {
	var rc model.RetrievedContext
	switch {
	case c.QueryType == model.QueryStatus:
		assignments, err := s.store.UpcomingAssignments(ctx)
		if err != nil {
			return rc, err
		}
		rc.Count = len(assignments)
		rc.Text = "DATABASE CONTEXT - Upcoming Assignments:\n" + UpcomingSummary(assignments)

	case c.QueryType == model.QuerySearch && c.HasSearchTerms():
		rc.Searched = true
		assignments, err := s.store.SearchAssignments(ctx, c.SearchTerms)
		if err != nil {
			return rc, err
		}
		rc.Count = len(assignments)
		rc.Text = "DATABASE CONTEXT - Assignments (Search: " + c.SearchTerms + "):\n" +
			AssignmentsSummary(assignments, c.SearchTerms) + "\n"

	default:
		assignments, err := s.store.ListAssignments(ctx)
		if err != nil {
			return rc, err
		}
		rc.Count = len(assignments)
		rc.Text = "DATABASE CONTEXT - All Assignments:\n" + AssignmentsSummary(assignments, "") + "\n"
	}
	return rc, nil
}

// field 摘要中的一个字段
type field struct {
	label string
	value string
}

// MaterialsSummary 课程资料摘要，最多 10 条
func MaterialsSummary(materials []model.Material, term string) string {
	entries := make([][]field, len(materials))
	for i, m := range materials {
		entries[i] = []field{
			{"Course", m.Course},
			{"Material", m.FileName},
			{"Description", m.Description},
			{"Uploaded", m.UploadedString()},
			{"Created by", m.CreatedBy},
		}
	}
	return summarize("course materials", "Available Course Materials", "materials", term, entries)
}

// AssignmentsSummary 作业摘要，最多 10 条
func AssignmentsSummary(assignments []model.Assignment, term string) string {
	entries := make([][]field, len(assignments))
	for i, a := range assignments {
		entries[i] = []field{
			{"Title", a.Title},
			{"Course", a.Course},
			{"Due Date", a.DueDateString()},
			{"Status", a.Completion},
			{"Grade", a.Grade},
			{"Info", a.Answer},
			{"Teacher Remarks", a.TeacherRemarks},
			{"Created by", a.CreatedBy},
		}
	}
	return summarize("assignments", "Available Assignments", "assignments", term, entries)
}

// UpcomingSummary 近期作业列表
func UpcomingSummary(assignments []model.Assignment) string {
	if len(assignments) == 0 {
		return "No upcoming assignments are due.\n"
	}
	var b strings.Builder
	for _, a := range assignments {
		fmt.Fprintf(&b, "- %s (Due: %s)\n", a.Title, a.DueDateString())
	}
	return b.String()
}

func summarize(noun, heading, moreNoun, term string, entries [][]field) string {
	if len(entries) == 0 {
		if term != "" {
			return fmt.Sprintf("No %s found for: %s.", noun, term)
		}
		return fmt.Sprintf("No %s found.", noun)
	}

	var b strings.Builder
	b.WriteString(heading)
	if term != "" {
		fmt.Fprintf(&b, " (matching '%s')", term)
	}
	b.WriteString(":\n\n")

	for i, entry := range entries {
		if i == SummaryLimit {
			break
		}
		fmt.Fprintf(&b, "%d. ", i+1)
		first := true
		for _, f := range entry {
			value := strings.TrimSpace(f.value)
			if value == "" {
				continue
			}
			if !first {
				b.WriteString("   ")
			}
			fmt.Fprintf(&b, "%s: %s\n", f.label, value)
			first = false
		}
		if first {
			b.WriteString("(no details)\n")
		}
		b.WriteString("\n")
	}

	if len(entries) > SummaryLimit {
		fmt.Fprintf(&b, "... and %d more %s.\n", len(entries)-SummaryLimit, moreNoun)
	}
	return b.String()
}
