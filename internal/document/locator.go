package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFileNotFound 所有上传目录下都找不到文件
var ErrFileNotFound = errors.New("File not found")

// 上传文件的分类子目录
const (
	KindAssignments = "assignments"
	KindMaterials   = "materials"
)

// Locator 在上传目录中查找上传文件
type Locator struct {
	kind  string
	roots []string
}

// NewLocator 按顺序搜索给定的上传目录，kind 为分类子目录名
func NewLocator(kind string, roots ...string) *Locator {
	var kept []string
	for _, r := range roots {
		if r != "" {
			kept = append(kept, r)
		}
	}
	return &Locator{kind: kind, roots: kept}
}

// Candidates 文件可能的位置：先找所有目录的 <kind>/<id>，再找 <id>，最后找根目录
func (l *Locator) Candidates(ownerID, name string) []string {
	base := filepath.Base(filepath.Clean("/" + name))
	var out []string
	if ownerID != "" {
		for _, root := range l.roots {
			out = append(out, filepath.Join(root, l.kind, ownerID, base))
		}
		for _, root := range l.roots {
			out = append(out, filepath.Join(root, ownerID, base))
		}
	}
	for _, root := range l.roots {
		out = append(out, filepath.Join(root, base))
	}
	return out
}

// Resolve 返回第一个存在的路径
func (l *Locator) Resolve(ownerID, name string) (string, error) {
	for _, p := range l.Candidates(ownerID, name) {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrFileNotFound, name)
}

// ReadText 查找并提取文件文本
func (l *Locator) ReadText(ownerID, name string) (string, error) {
	path, err := l.Resolve(ownerID, name)
	if err != nil {
		return "", err
	}
	return ExtractText(path)
}
