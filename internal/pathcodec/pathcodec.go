// Package pathcodec 物化路径编码
//
// 路径由定长（5 位，左补零）的兄弟序号用 "/" 拼接而成，例如 "00001/00003"。
// 因为每一段等宽，同一帖子内按字节序比较路径等价于树的先序深度优先遍历顺序。
package pathcodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// RankWidth 单段序号宽度
	RankWidth = 5
	// MaxRank 单段可表示的最大序号
	MaxRank = 99999
	// MaxDepth 最大深度，根为 0
	MaxDepth = 50
	// MaxPathLen 路径列长度上限，恰好容纳 MaxDepth+1 段
	MaxPathLen = (MaxDepth+1)*(RankWidth+1) - 1
	// Separator 段分隔符
	Separator = "/"
)

var (
	// ErrCapacityExceeded 同一父节点下的序号超出定长可表示范围
	ErrCapacityExceeded = errors.New("兄弟序号超出可表示范围")
	// ErrInvalidPath 路径格式非法
	ErrInvalidPath = errors.New("无效的评论路径")
)

// EncodeRank 将序号编码为定长 token
func EncodeRank(n int) (string, error) {
	if n > MaxRank {
		return "", fmt.Errorf("%w: rank %d > %d", ErrCapacityExceeded, n, MaxRank)
	}
	if n < 1 {
		return "", fmt.Errorf("%w: rank %d", ErrInvalidPath, n)
	}
	return fmt.Sprintf("%0*d", RankWidth, n), nil
}

// ParseRank 解析单段 token
func ParseRank(token string) (int, error) {
	if len(token) != RankWidth {
		return 0, fmt.Errorf("%w: token %q", ErrInvalidPath, token)
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return 0, fmt.Errorf("%w: token %q", ErrInvalidPath, token)
		}
	}
	n, _ := strconv.Atoi(token)
	if n < 1 {
		return 0, fmt.Errorf("%w: token %q", ErrInvalidPath, token)
	}
	return n, nil
}

// ChildPath 拼接子节点路径，parentPath 为空表示根评论
func ChildPath(parentPath string, rank int) (string, error) {
	token, err := EncodeRank(rank)
	if err != nil {
		return "", err
	}
	if parentPath == "" {
		return token, nil
	}
	path := parentPath + Separator + token
	if len(path) > MaxPathLen {
		return "", fmt.Errorf("%w: path length %d > %d", ErrInvalidPath, len(path), MaxPathLen)
	}
	return path, nil
}

// DescendantPrefix 返回匹配所有严格后代的前缀
func DescendantPrefix(path string) string {
	return path + Separator
}

// DescendantRange 返回所有严格后代所在的半开区间 [lo, hi)。
// '0' 是 '/' 之后的下一个字节，区间与 DescendantPrefix 的前缀匹配等价，但可以走索引范围扫描。
func DescendantRange(path string) (lo, hi string) {
	return path + Separator, path + "0"
}

// Compare 按字节序比较两条路径
func Compare(a, b string) int {
	return strings.Compare(a, b)
}

// LastRank 返回路径最后一段的序号
func LastRank(path string) (int, error) {
	idx := strings.LastIndex(path, Separator)
	return ParseRank(path[idx+1:])
}

// Depth 返回路径对应的深度，根为 0
func Depth(path string) int {
	if path == "" {
		return -1
	}
	return strings.Count(path, Separator)
}

// Ancestors 返回所有真祖先路径（从根开始，不含自身）
func Ancestors(path string) []string {
	var out []string
	for i := 0; i < len(path); i++ {
		if path[i] == Separator[0] {
			out = append(out, path[:i])
		}
	}
	return out
}

// Valid 校验完整路径格式
func Valid(path string) bool {
	if path == "" || len(path) > MaxPathLen {
		return false
	}
	for _, token := range strings.Split(path, Separator) {
		if _, err := ParseRank(token); err != nil {
			return false
		}
	}
	return true
}
