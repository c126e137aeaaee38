package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrMalformedRequest 请求体无法从连接中读取
var ErrMalformedRequest = errors.New("malformed request")

// PromptKey 用户问题参数名，message/text 会映射到该键
const PromptKey = "userPrompt"

var (
	fieldNamePattern = regexp.MustCompile(`(?:^|[;\s])name="([^"]*)"`)
	promptAliases    = map[string]bool{PromptKey: true, "message": true, "text": true}
)

// Params 扁平化的请求参数
type Params map[string]string

// Get 获取参数，不存在时返回空串
func (p Params) Get(key string) string {
	return p[key]
}

// GetDefault 获取参数，空白时返回默认值
func (p Params) GetDefault(key, def string) string {
	if v := strings.TrimSpace(p[key]); v != "" {
		return v
	}
	return def
}

// Bool 参数是否为 "true"（忽略大小写）
func (p Params) Bool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(p[key]), "true")
}

// Int 解析整数参数，失败时返回默认值
func (p Params) Int(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(p[key]))
	if err != nil {
		return def
	}
	return v
}

// Extractor 请求参数提取器
type Extractor struct {
	// Tolerant 为 true 时，未声明类型但形如 JSON 对象的请求体按 JSON 解析
	Tolerant bool
	logger   *zap.Logger
}

// NewExtractor 创建参数提取器
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// NewTolerantExtractor 创建宽松模式的参数提取器
func NewTolerantExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{Tolerant: true, logger: logger}
}

// FromRequest 从 http.Request 提取参数
func (e *Extractor) FromRequest(r *http.Request) (Params, error) {
	return e.Extract(r.Method, r.Header.Get("Content-Type"), r.URL.RawQuery, r.Body)
}

// Extract 合并查询串与请求体参数，请求体中的同名参数覆盖查询串
func (e *Extractor) Extract(method, contentType, rawQuery string, body io.Reader) (Params, error) {
	p := make(Params)

	// 1. 查询串
	e.parseQuery(rawQuery, p)

	// 2. 请求体（仅 POST/PUT）
	if !hasBody(method) || body == nil {
		return p, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}

	text := string(data)
	lowerType := strings.ToLower(contentType)
	switch {
	case strings.Contains(lowerType, "multipart/form-data"):
		e.parseMultipart(text, contentType, p)
	case strings.Contains(lowerType, "application/json"):
		if err := parseJSON(text, p); err != nil {
			e.logger.Warn("JSON 请求体解析不完整", zap.Error(err))
		}
	case e.Tolerant && strings.HasPrefix(strings.TrimSpace(text), "{"):
		sniffed := make(Params)
		if err := parseJSON(text, sniffed); err != nil {
			e.logger.Debug("请求体不是合法 JSON，按表单解析", zap.Error(err))
			parseForm(text, p)
		} else {
			for k, v := range sniffed {
				p[k] = v
			}
		}
	default:
		parseForm(text, p)
	}

	return p, nil
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

// parseQuery 解析查询串，解码失败的参数对直接跳过
func (e *Extractor) parseQuery(rawQuery string, p Params) {
	if rawQuery == "" {
		return
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		k, err := url.QueryUnescape(key)
		if err != nil {
			e.logger.Warn("查询参数解码失败", zap.String("pair", pair), zap.Error(err))
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			e.logger.Warn("查询参数解码失败", zap.String("pair", pair), zap.Error(err))
			continue
		}
		p[k] = v
	}
}

// parseForm 解析 URL 编码表单，解码失败时保留原始值
func parseForm(body string, p Params) {
	for _, pair := range strings.Split(body, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		p[unescapeOrRaw(key)] = unescapeOrRaw(value)
	}
}

func unescapeOrRaw(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// parseJSON 按键顺序展开 JSON 对象的顶层属性，出错时保留已解析的部分
func parseJSON(body string, p Params) error {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("读取 JSON 失败: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("JSON 请求体不是对象")
	}

	aliased := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("读取 JSON 键失败: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("JSON 键类型错误: %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("读取 JSON 值失败: %w", err)
		}
		value, present := flattenValue(raw)
		if !present {
			continue
		}

		if promptAliases[key] {
			// 最先出现的 userPrompt/message/text 生效
			if !aliased {
				p[PromptKey] = value
				aliased = true
			}
			if key != PromptKey {
				p[key] = value
			}
			continue
		}
		p[key] = value
	}
	return nil
}

// flattenValue 将 JSON 值转为字符串，null 返回 false
func flattenValue(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return "", false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return string(trimmed), true
		}
		return s, true
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return string(trimmed), true
		}
		return buf.String(), true
	default:
		return string(trimmed), true
	}
}

// parseMultipart 按文本方式解析 multipart 表单，不支持二进制内容
func (e *Extractor) parseMultipart(body, contentType string, p Params) {
	boundary := boundaryOf(contentType)
	if boundary == "" {
		e.logger.Warn("multipart 请求缺少 boundary", zap.String("contentType", contentType))
		return
	}

	for _, section := range strings.Split(body, "--"+boundary) {
		trimmed := strings.TrimSpace(section)
		if trimmed == "" || trimmed == "--" {
			continue
		}

		lines := strings.Split(strings.ReplaceAll(section, "\r\n", "\n"), "\n")
		name := ""
		valueStart := -1
		for i, line := range lines {
			if name == "" {
				if n, ok := fieldName(line); ok {
					name = n
				}
				continue
			}
			if strings.TrimSpace(line) == "" {
				valueStart = i + 1
				break
			}
		}
		if name == "" || valueStart < 0 {
			continue
		}

		value := strings.TrimSpace(strings.Join(lines[valueStart:], "\n"))
		value = strings.TrimSpace(strings.TrimSuffix(value, "--"))
		p[name] = value
	}
}

// fieldName 从 Content-Disposition 头中取字段名
func fieldName(line string) (string, bool) {
	lower := strings.ToLower(line)
	if !strings.Contains(lower, "content-disposition") || !strings.Contains(lower, "form-data") {
		return "", false
	}
	m := fieldNamePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// boundaryOf 从 Content-Type 中取 boundary
func boundaryOf(contentType string) string {
	idx := strings.Index(strings.ToLower(contentType), "boundary=")
	if idx < 0 {
		return ""
	}
	b := contentType[idx+len("boundary="):]
	if semi := strings.Index(b, ";"); semi >= 0 {
		b = b[:semi]
	}
	return strings.Trim(strings.TrimSpace(b), `"`)
}
