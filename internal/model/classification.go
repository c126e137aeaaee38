package model

// ContentType 内容类别
type ContentType string

const (
	ContentMaterials   ContentType = "MATERIALS"
	ContentAssignments ContentType = "ASSIGNMENTS"
	ContentGeneral     ContentType = "GENERAL"
)

// QueryType 查询模式
type QueryType string

const (
	QueryList    QueryType = "LIST"
	QuerySearch  QueryType = "SEARCH"
	QueryStatus  QueryType = "STATUS"
	QueryGeneral QueryType = "GENERAL"
)

// Classification 意图分类结果，SearchTerms 为空表示没有检索词
type Classification struct {
	ContentType ContentType `json:"contentType"`
	QueryType   QueryType   `json:"queryType"`
	SearchTerms string      `json:"searchTerms"`
}

// GeneralClassification 兜底分类
func GeneralClassification() Classification {
	return Classification{ContentType: ContentGeneral, QueryType: QueryGeneral}
}

// NeedsDatabase 是否需要查询数据库
func (c Classification) NeedsDatabase() bool {
	return c.ContentType != ContentGeneral
}

// HasSearchTerms 是否带有检索词
func (c Classification) HasSearchTerms() bool {
	return c.SearchTerms != ""
}

// RetrievedContext 数据库上下文
type RetrievedContext struct {
	Text     string `json:"text"`
	Count    int    `json:"count"`
	Searched bool   `json:"searched"`
	Failed   bool   `json:"failed"`
}

// IsEmpty 上下文是否为空
func (r RetrievedContext) IsEmpty() bool {
	return r.Text == ""
}
