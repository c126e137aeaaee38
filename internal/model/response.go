package model

import "time"

// ServerKind 响应中的服务器标识
const ServerKind = "embedded"

// NullSessionID 未提供会话 ID 时的占位值
const NullSessionID = "null"

// ChatResult 聊天接口的结构化响应，所有字段都会输出
type ChatResult struct {
	Status              string      `json:"status"`
	Response            string      `json:"response"`
	SessionID           string      `json:"sessionId"`
	Timestamp           int64       `json:"timestamp"`
	Model               string      `json:"model"`
	Server              string      `json:"server"`
	Port                int         `json:"port"`
	SavedToDatabase     bool        `json:"savedToDatabase"`
	DatabaseEnhanced    bool        `json:"databaseEnhanced"`
	DetectedContentType ContentType `json:"detectedContentType"`
	DetectedQueryType   QueryType   `json:"detectedQueryType"`
	SearchTerms         string      `json:"searchTerms"`
}

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
	Timestamp int64  `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Status:    "error",
		Message:   message,
		ErrorCode: code,
		Timestamp: NowMillis(),
	}
}

// NowMillis 当前毫秒时间戳
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// CourseStatistics 课程统计
type CourseStatistics struct {
	TotalMaterials       int64    `json:"totalMaterials"`
	TotalAssignments     int64    `json:"totalAssignments"`
	TotalCourses         int      `json:"totalCourses"`
	CoursesList          []string `json:"coursesList"`
	CompletedAssignments int64    `json:"completedAssignments"`
	GradedAssignments    int64    `json:"gradedAssignments"`
}
