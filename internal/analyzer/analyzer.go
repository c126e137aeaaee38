package analyzer

import (
	"regexp"
	"strings"

	"github.com/eduassist/eduassist-go/internal/model"
)

var materialKeywords = []string{
	"course", "courses", "material", "materials", "content", "lesson", "lessons",
	"tutorial", "tutorials", "study", "learning", "module", "modules", "chapter",
	"chapters", "textbook", "textbooks", "resource", "resources", "notes",
	"lecture", "lectures", "reading", "readings", "document", "documents",
}

var assignmentKeywords = []string{
	"assignment", "assignments", "homework", "task", "tasks", "project", "projects",
	"exercise", "exercises", "quiz", "quizzes", "exam", "exams", "test", "tests",
	"due", "deadline", "submit", "submission", "submissions", "work", "activity",
}

var stopWords = toSet([]string{
	"what", "where", "when", "how", "why", "who", "which", "are", "is", "do",
	"does", "can", "could", "would", "should", "will", "the", "a", "an", "and",
	"or", "but", "in", "on", "at", "to", "for", "of", "with", "by", "about",
	"we", "have", "actually",
})

var (
	materialSet   = toSet(materialKeywords)
	assignmentSet = toSet(assignmentKeywords)
)

// 按优先级排列：STATUS > LIST > SEARCH
var queryPatterns = []struct {
	queryType model.QueryType
	patterns  []*regexp.Regexp
}{
	{model.QueryStatus, compile(
		`upcoming.*`, `due.*`, `pending.*`, `active.*`, `current.*`,
		`next.*`, `this.*week`, `today.*`, `tomorrow.*`, `soon.*`,
	)},
	{model.QueryList, compile(
		`what.*do.*have`, `what.*are.*available`, `show.*me`, `list.*`,
		`give.*me.*list`, `what.*courses`, `what.*assignments`, `what.*materials`,
		`all.*`, `any.*`,
	)},
	{model.QuerySearch, compile(
		`find.*`, `search.*`, `look.*for`, `about.*`, `related.*to`, `concerning.*`,
	)},
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Classify 对用户输入做启发式意图分类，纯函数
func Classify(message string) model.Classification {
	if strings.TrimSpace(message) == "" {
		return model.GeneralClassification()
	}
	lower := strings.ToLower(strings.TrimSpace(message))

	contentType := detectContentType(lower)
	return model.Classification{
		ContentType: contentType,
		QueryType:   detectQueryType(lower),
		SearchTerms: extractSearchTerms(lower, contentType),
	}
}

// detectContentType 关键词子串计分，平局时按次级规则裁决
func detectContentType(msg string) model.ContentType {
	materialScore := countMatches(msg, materialKeywords)
	assignmentScore := countMatches(msg, assignmentKeywords)

	switch {
	case assignmentScore > materialScore && assignmentScore > 0:
		return model.ContentAssignments
	case materialScore > assignmentScore && materialScore > 0:
		return model.ContentMaterials
	case materialScore > 0: // 平局
		if containsAny(msg, "due", "submit", "homework") {
			return model.ContentAssignments
		}
		if containsAny(msg, "study", "learn", "read") {
			return model.ContentMaterials
		}
	}
	return model.ContentGeneral
}

func detectQueryType(msg string) model.QueryType {
	for _, group := range queryPatterns {
		for _, p := range group.patterns {
			if p.MatchString(msg) {
				return group.queryType
			}
		}
	}
	return model.QueryGeneral
}

// extractSearchTerms 去掉停用词和触发分类的关键词
func extractSearchTerms(msg string, contentType model.ContentType) string {
	var drop map[string]bool
	switch contentType {
	case model.ContentMaterials:
		drop = materialSet
	case model.ContentAssignments:
		drop = assignmentSet
	}

	var terms []string
	for _, token := range strings.Fields(msg) {
		word := strings.ToLower(nonAlphanumeric.ReplaceAllString(token, ""))
		if len(word) <= 2 || stopWords[word] || drop[word] {
			continue
		}
		terms = append(terms, word)
	}
	return strings.Join(terms, " ")
}

func countMatches(msg string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			n++
		}
	}
	return n
}

func containsAny(msg string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
