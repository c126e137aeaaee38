package model

import (
	"encoding/json"
	"strings"
)

// StringList 兼容字符串或字符串数组的 JSON 字段
type StringList []string

// UnmarshalJSON 同时接受 "a" 与 ["a","b"]
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []interface{}
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case nil:
			default:
				b, _ := json.Marshal(v)
				out = append(out, string(b))
			}
		}
		*l = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*l = []string{trimmed}
		return nil
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = []string{s}
	return nil
}

// Join 以逗号连接
func (l StringList) Join() string {
	return strings.Join(l, ", ")
}

// GradingResult AI 评分结果
type GradingResult struct {
	AssignmentID string     `json:"assignmentId"`
	Grade        string     `json:"grade"`
	Percentage   int        `json:"percentage"`
	Remarks      string     `json:"remarks"`
	Strengths    StringList `json:"strengths"`
	Improvements StringList `json:"improvements"`
	AIGenerated  bool       `json:"aiGenerated"`
	Saved        bool       `json:"saved"`
	Timestamp    int64      `json:"timestamp"`
}

// BatchItemResult 批处理单项结果
type BatchItemResult struct {
	ID      string      `json:"id"`
	Title   string      `json:"title,omitempty"`
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// BatchGradingResult 批量评分汇总
type BatchGradingResult struct {
	ProcessedCount int               `json:"processedCount"`
	SuccessCount   int               `json:"successCount"`
	ErrorCount     int               `json:"errorCount"`
	Results        []BatchItemResult `json:"results"`
}
