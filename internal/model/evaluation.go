package model

// EnhancementThreshold 低于该推荐度需要改进
const EnhancementThreshold = 80

// EvaluationRequest 资料评估请求
type EvaluationRequest struct {
	MaterialID  string `json:"materialId"`
	Course      string `json:"course"`
	Description string `json:"description"`
	Filename    string `json:"filename"`
	FileContent string `json:"fileContent"`
	PreUpload   bool   `json:"preUpload"`
	Preview     bool   `json:"preview"`
}

// EvaluationResult AI 评估结果
type EvaluationResult struct {
	MaterialID               string     `json:"materialId,omitempty"`
	Course                   string     `json:"course"`
	Filename                 string     `json:"filename"`
	RecommendationPercentage int        `json:"recommendationPercentage"`
	OverallRating            string     `json:"overallRating"`
	IsRecommended            bool       `json:"isRecommended"`
	EvaluationSummary        string     `json:"evaluationSummary"`
	Strengths                StringList `json:"strengths"`
	Improvements             StringList `json:"improvements"`
	EducationalValue         int        `json:"educationalValue"`
	ContentQuality           int        `json:"contentQuality"`
	StudentSuitability       int        `json:"studentSuitability"`
	ClarityOrganization      int        `json:"clarityOrganization"`
	Completeness             int        `json:"completeness"`
	Recommendations          string     `json:"recommendations"`
	RequiresEnhancement      bool       `json:"requiresEnhancement"`
	Timestamp                int64      `json:"timestamp"`
}

// BatchEvaluationResult 批量评估汇总
type BatchEvaluationResult struct {
	ProcessedCount        int               `json:"processedCount"`
	RecommendedCount      int               `json:"recommendedCount"`
	NeedsEnhancementCount int               `json:"needsEnhancementCount"`
	ErrorCount            int               `json:"errorCount"`
	Results               []BatchItemResult `json:"results"`
}
