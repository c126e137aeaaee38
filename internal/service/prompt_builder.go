package service

import (
	"fmt"
	"strings"

	"github.com/eduassist/eduassist-go/internal/model"
)

const chatPreamble = "You are an intelligent educational assistant with access to the EduAssist learning management system database. " +
	"You help students and instructors with questions about courses, assignments, and materials.\n\n"

// BuildChatPrompt 组装聊天提示词，纯函数
func BuildChatPrompt(userMessage, priorConversation, retrieved string, c model.Classification) string {
	var b strings.Builder
	b.WriteString(chatPreamble)

	// 1. 数据库上下文
	hasContext := retrieved != ""
	if hasContext {
		b.WriteString("IMPORTANT: I have retrieved the following current information from the database:\n\n")
		b.WriteString(retrieved)
		b.WriteString("\n")
		b.WriteString("Please use this actual database information to answer the user's question accurately. ")
		b.WriteString("Present the information in a helpful, organized way.\n\n")
	}

	// 2. 历史对话
	if history := strings.TrimSpace(priorConversation); history != "" && history != "[]" {
		b.WriteString("Previous conversation context:\n")
		b.WriteString(priorConversation)
		b.WriteString("\n\n")
	}

	// 3. 用户问题
	b.WriteString("User's question: ")
	b.WriteString(userMessage)
	b.WriteString("\n\n")

	// 4. 按内容类别追加指引
	switch c.ContentType {
	case model.ContentMaterials:
		b.WriteString("This question is about course materials. ")
		if hasContext {
			b.WriteString("Use the database information above to provide specific details about available materials.")
		} else {
			b.WriteString("Provide general guidance about course materials and suggest checking the learning system.")
		}
	case model.ContentAssignments:
		b.WriteString("This question is about assignments. ")
		if hasContext {
			b.WriteString("Use the database information above to provide specific details about assignments, including due dates and status.")
		} else {
			b.WriteString("Provide general guidance about assignments and suggest checking the learning system.")
		}
	default:
		b.WriteString("Please provide a helpful response to this educational question.")
	}

	return b.String()
}

// GradingInput 评分提示词输入
type GradingInput struct {
	Assignment     *model.Assignment
	QuestionsText  string
	AnswerFileText string
}

// BuildGradingPrompt 组装作业评分提示词
func BuildGradingPrompt(in GradingInput) string {
	a := in.Assignment
	var b strings.Builder

	b.WriteString("You are an experienced teacher tasked with grading a student assignment. ")
	b.WriteString("Please analyze the submission and provide a grade and detailed feedback.\n\n")

	b.WriteString("=== ASSIGNMENT DETAILS ===\n")
	fmt.Fprintf(&b, "Title: %s\n", a.Title)
	fmt.Fprintf(&b, "Course: %s\n", a.Course)
	fmt.Fprintf(&b, "Student: %s\n", a.StudentName)

	questions := usableText(in.QuestionsText)
	answers := usableText(in.AnswerFileText)

	b.WriteString("\n=== ASSIGNMENT QUESTIONS (FROM TEACHER) ===\n")
	switch {
	case questions:
		b.WriteString("Questions File Content:\n")
		b.WriteString(in.QuestionsText)
		b.WriteString("\n\n")
	case strings.TrimSpace(in.QuestionsText) != "":
		fmt.Fprintf(&b, "Questions File: %s\n\n", in.QuestionsText)
	default:
		b.WriteString("Questions File: [No questions file provided]\n\n")
	}

	b.WriteString("=== STUDENT SUBMISSION ===\n")
	if text := studentText(a); text != "" {
		fmt.Fprintf(&b, "Student Text Answer: %s\n\n", text)
	} else {
		b.WriteString("Student Text Answer: [No text answer provided]\n\n")
	}
	switch {
	case answers:
		b.WriteString("Student's Answer File Content:\n")
		b.WriteString(in.AnswerFileText)
		b.WriteString("\n\n")
	case strings.TrimSpace(in.AnswerFileText) != "":
		fmt.Fprintf(&b, "Student's Answer File: %s\n\n", in.AnswerFileText)
	default:
		b.WriteString("Student's Answer File: [No answer file uploaded]\n\n")
	}

	b.WriteString("=== GRADING INSTRUCTIONS ===\n")
	b.WriteString("Please evaluate this submission based on:\n")
	b.WriteString("1. Correctness and accuracy of the answers compared to the questions asked\n")
	b.WriteString("2. Completeness - did the student answer all questions?\n")
	b.WriteString("3. Understanding of the topic demonstrated in the answers\n")
	b.WriteString("4. Quality of explanation and reasoning\n")
	b.WriteString("5. Following assignment requirements and format\n\n")

	if questions && answers {
		b.WriteString("IMPORTANT: You have access to both the original questions and the student's answers. ")
		b.WriteString("Please compare the student's responses directly against each question to evaluate accuracy and completeness. ")
		b.WriteString("Provide specific feedback referencing individual questions and answers.\n\n")
	} else if questions {
		b.WriteString("IMPORTANT: You have the original questions but the student may have provided answers in text form or no file was uploaded. ")
		b.WriteString("Evaluate based on the questions provided and any available student responses.\n\n")
	}

	b.WriteString("Provide your response in the following JSON format:\n")
	b.WriteString("{\n")
	b.WriteString("  \"grade\": \"A/B/C/D/F\",\n")
	b.WriteString("  \"percentage\": 85,\n")
	b.WriteString("  \"remarks\": \"Detailed feedback explaining the grade...\",\n")
	b.WriteString("  \"strengths\": [\"List of things done well\"],\n")
	b.WriteString("  \"improvements\": [\"List of areas for improvement\"]\n")
	b.WriteString("}\n\n")
	b.WriteString("Be constructive, specific, and fair in your evaluation. ")
	b.WriteString("Reference specific questions and answers when providing feedback.")

	return b.String()
}

// studentText 文字答案与补充答案
func studentText(a *model.Assignment) string {
	text := strings.TrimSpace(a.Answer)
	if extra := strings.TrimSpace(a.AdditionalAnswer); extra != "" {
		if text == "" {
			return extra
		}
		text += "\n\nAdditional Answer: " + extra
	}
	return text
}

// usableText 文本可用于评分（不是缺失或错误提示）
func usableText(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed != "" &&
		!strings.HasPrefix(trimmed, "File not found:") &&
		!strings.HasPrefix(trimmed, "[Error extracting text:")
}

// ContentTruncateAt 评估时文件内容的最大长度
const ContentTruncateAt = 3000

// EvaluationInput 资料评估提示词输入
type EvaluationInput struct {
	Course        string
	Filename      string
	Description   string
	FileContent   string
	CourseContext string
	PreUpload     bool
}

// BuildEvaluationPrompt 组装资料评估提示词
func BuildEvaluationPrompt(in EvaluationInput) string {
	var b strings.Builder

	b.WriteString("You are an experienced educational content reviewer tasked with evaluating course materials for quality and suitability. ")
	if in.PreUpload {
		b.WriteString("This is a PRE-UPLOAD evaluation to help the teacher improve the material before students access it. ")
	}
	b.WriteString("Please analyze the submitted material and provide a comprehensive evaluation.\n\n")

	b.WriteString("=== MATERIAL DETAILS ===\n")
	fmt.Fprintf(&b, "Course: %s\n", orDefault(in.Course, "Not specified"))
	fmt.Fprintf(&b, "Filename: %s\n", orDefault(in.Filename, "Not provided"))
	fmt.Fprintf(&b, "Description: %s\n", orDefault(in.Description, "No description provided"))
	if in.PreUpload {
		b.WriteString("Evaluation Type: Pre-upload analysis (content read from browser)\n")
	}
	b.WriteString("\n")

	b.WriteString("=== COURSE CONTEXT ===\n")
	b.WriteString(in.CourseContext)
	b.WriteString("\n\n")

	b.WriteString("=== MATERIAL CONTENT ===\n")
	content := in.FileContent
	switch {
	case strings.HasPrefix(content, "File not found:") || strings.HasPrefix(content, "[Error extracting text:"):
		fmt.Fprintf(&b, "File Status: %s\n\n", content)
	case strings.HasPrefix(content, "[Binary file:"):
		fmt.Fprintf(&b, "File Information: %s\n", content)
		b.WriteString("Note: Binary file content cannot be fully analyzed in pre-upload mode. ")
		b.WriteString("Evaluation based on filename, description, and file metadata.\n\n")
	case strings.TrimSpace(content) != "":
		b.WriteString("File Content:\n")
		b.WriteString(truncateContent(content))
		b.WriteString("\n\n")
	default:
		b.WriteString("File Content: [No file content available - evaluation based on description and filename only]\n\n")
	}

	b.WriteString("=== EVALUATION CRITERIA ===\n")
	b.WriteString("Please evaluate this material based on:\n")
	b.WriteString("1. Educational Value (25%) - Does it provide clear learning outcomes?\n")
	b.WriteString("2. Content Quality (25%) - Is the content accurate, well-structured, and comprehensive?\n")
	b.WriteString("3. Student Suitability (20%) - Is it appropriate for the target audience?\n")
	b.WriteString("4. Clarity & Organization (15%) - Is the content well-organized and easy to understand?\n")
	b.WriteString("5. Completeness (15%) - Does it cover the topic adequately?\n\n")

	if in.PreUpload {
		b.WriteString("=== PRE-UPLOAD EVALUATION GUIDANCE ===\n")
		b.WriteString("Since this is a pre-upload evaluation:\n")
		b.WriteString("• Focus on helping the teacher improve the material before students see it\n")
		b.WriteString("• Provide specific, actionable suggestions for enhancement\n")
		b.WriteString("• Consider the educational context and course objectives\n")
		b.WriteString("• Be constructive but thorough in identifying areas for improvement\n\n")
	}

	b.WriteString("=== RECOMMENDATION GUIDELINES ===\n")
	b.WriteString("• 90-100%: Excellent material, ready for immediate use\n")
	b.WriteString("• 80-89%: Good material, minor improvements suggested\n")
	b.WriteString("• 70-79%: Average material, some enhancements needed\n")
	b.WriteString("• 60-69%: Below average, significant improvements required\n")
	b.WriteString("• Below 60%: Poor quality, major revision needed\n\n")
	b.WriteString("IMPORTANT: Materials with less than 80% recommendation should be flagged as requiring enhancement before upload.\n\n")

	if strings.Contains(strings.ToLower(in.Filename), "ipv6") || strings.Contains(strings.ToLower(in.Description), "ipv6") {
		b.WriteString("=== NETWORKING CONTENT GUIDANCE ===\n")
		b.WriteString("This appears to be networking content about IPv6. Consider:\n")
		b.WriteString("• Technical accuracy and current standards\n")
		b.WriteString("• Progression from basic concepts to advanced topics\n")
		b.WriteString("• Practical examples and real-world applications\n")
		b.WriteString("• Comparison with IPv4 where relevant\n")
		b.WriteString("• Hands-on exercises or configuration examples\n\n")
	}

	b.WriteString("Provide your response in the following JSON format:\n")
	b.WriteString("{\n")
	b.WriteString("  \"recommendationPercentage\": 85,\n")
	b.WriteString("  \"overallRating\": \"Good\",\n")
	b.WriteString("  \"isRecommended\": true,\n")
	b.WriteString("  \"evaluationSummary\": \"Brief summary of the evaluation...\",\n")
	b.WriteString("  \"strengths\": [\"List of material strengths\"],\n")
	b.WriteString("  \"improvements\": [\"List of suggested improvements\"],\n")
	b.WriteString("  \"educationalValue\": 85,\n")
	b.WriteString("  \"contentQuality\": 90,\n")
	b.WriteString("  \"studentSuitability\": 80,\n")
	b.WriteString("  \"clarityOrganization\": 85,\n")
	b.WriteString("  \"completeness\": 75,\n")
	b.WriteString("  \"recommendations\": \"Specific recommendations for improvement...\"\n")
	b.WriteString("}\n\n")
	b.WriteString("Be thorough, constructive, and specific in your evaluation. ")
	b.WriteString("Focus on how this material will benefit students and what could make it even better.")

	return b.String()
}

func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= ContentTruncateAt {
		return content
	}
	return string(runes[:ContentTruncateAt]) + "...[content truncated]"
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
