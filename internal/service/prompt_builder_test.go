package service

import (
	"strings"
	"testing"

	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestBuildChatPromptIsIdempotent(t *testing.T) {
	c := model.Classification{ContentType: model.ContentMaterials, QueryType: model.QueryList}
	a := BuildChatPrompt("what courses?", "User: hi", "DATABASE CONTEXT - x\n", c)
	b := BuildChatPrompt("what courses?", "User: hi", "DATABASE CONTEXT - x\n", c)
	assert.Equal(t, a, b)
}

func TestBuildChatPromptStructure(t *testing.T) {
	c := model.Classification{ContentType: model.ContentAssignments, QueryType: model.QueryStatus}
	got := BuildChatPrompt("what is due?", "User: hello", "CTX\n", c)

	want := chatPreamble +
		"IMPORTANT: I have retrieved the following current information from the database:\n\n" +
		"CTX\n\n" +
		"Please use this actual database information to answer the user's question accurately. " +
		"Present the information in a helpful, organized way.\n\n" +
		"Previous conversation context:\nUser: hello\n\n" +
		"User's question: what is due?\n\n" +
		"This question is about assignments. " +
		"Use the database information above to provide specific details about assignments, including due dates and status."
	assert.Equal(t, want, got)
}

func TestBuildChatPromptSkipsEmptyBlocks(t *testing.T) {
	got := BuildChatPrompt("hello", " [] ", "", model.GeneralClassification())

	assert.NotContains(t, got, "IMPORTANT:")
	assert.NotContains(t, got, "Previous conversation context")
	assert.True(t, strings.HasSuffix(got, "User's question: hello\n\nPlease provide a helpful response to this educational question."))
}

func TestBuildChatPromptMaterialsWithoutContext(t *testing.T) {
	got := BuildChatPrompt("notes?", "", "", model.Classification{ContentType: model.ContentMaterials})
	assert.True(t, strings.HasSuffix(got,
		"This question is about course materials. Provide general guidance about course materials and suggest checking the learning system."))
}

func TestBuildGradingPrompt(t *testing.T) {
	a := &model.Assignment{Title: "Lab", Course: "Networks", StudentName: "Sam", Answer: "text", AdditionalAnswer: "more"}
	got := BuildGradingPrompt(GradingInput{Assignment: a, QuestionsText: "Q1?", AnswerFileText: "A1"})

	assert.Contains(t, got, "=== ASSIGNMENT DETAILS ===\nTitle: Lab\nCourse: Networks\nStudent: Sam\n")
	assert.Contains(t, got, "Questions File Content:\nQ1?\n\n")
	assert.Contains(t, got, "Student Text Answer: text\n\nAdditional Answer: more\n\n")
	assert.Contains(t, got, "Student's Answer File Content:\nA1\n\n")
	assert.Contains(t, got, "You have access to both the original questions and the student's answers.")
	assert.Contains(t, got, "5. Following assignment requirements and format")
}

func TestBuildGradingPromptMissingFiles(t *testing.T) {
	a := &model.Assignment{Title: "Lab"}
	got := BuildGradingPrompt(GradingInput{Assignment: a, AnswerFileText: "File not found: a.pdf"})

	assert.Contains(t, got, "Questions File: [No questions file provided]")
	assert.Contains(t, got, "Student Text Answer: [No text answer provided]")
	assert.Contains(t, got, "Student's Answer File: File not found: a.pdf")
	assert.NotContains(t, got, "IMPORTANT:")
}

func TestBuildEvaluationPrompt(t *testing.T) {
	long := strings.Repeat("x", ContentTruncateAt+10)
	got := BuildEvaluationPrompt(EvaluationInput{
		Course: "Networks", Filename: "IPv6-basics.pdf", FileContent: long,
		CourseContext: "This is the first material for the course: Networks", PreUpload: true,
	})

	assert.Contains(t, got, "This is a PRE-UPLOAD evaluation")
	assert.Contains(t, got, "Description: No description provided\n")
	assert.Contains(t, got, strings.Repeat("x", ContentTruncateAt)+"...[content truncated]")
	assert.NotContains(t, got, strings.Repeat("x", ContentTruncateAt+1))
	assert.Contains(t, got, "=== NETWORKING CONTENT GUIDANCE ===")
	assert.Contains(t, got, "=== PRE-UPLOAD EVALUATION GUIDANCE ===")
	assert.Contains(t, got, "1. Educational Value (25%)")
}

func TestBuildEvaluationPromptBinaryAndEmpty(t *testing.T) {
	got := BuildEvaluationPrompt(EvaluationInput{FileContent: "[Binary file: slides.pptx]"})
	assert.Contains(t, got, "File Information: [Binary file: slides.pptx]\n")
	assert.NotContains(t, got, "NETWORKING")

	got = BuildEvaluationPrompt(EvaluationInput{})
	assert.Contains(t, got, "[No file content available - evaluation based on description and filename only]")
	assert.Contains(t, got, "Course: Not specified\n")
}
