package pathcodec

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRank(t *testing.T) {
	tests := []struct {
		name    string
		rank    int
		want    string
		wantErr error
	}{
		{"first", 1, "00001", nil},
		{"middle", 420, "00420", nil},
		{"max", MaxRank, "99999", nil},
		{"overflow", MaxRank + 1, "", ErrCapacityExceeded},
		{"zero", 0, "", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeRank(tt.rank)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRank(t *testing.T) {
	n, err := ParseRank("00042")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for _, bad := range []string{"", "42", "000042", "0004a", "00000", "-0001"} {
		_, err := ParseRank(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestChildPath(t *testing.T) {
	root, err := ChildPath("", 1)
	require.NoError(t, err)
	assert.Equal(t, "00001", root)

	child, err := ChildPath(root, 2)
	require.NoError(t, err)
	assert.Equal(t, "00001/00002", child)

	_, err = ChildPath(root, MaxRank+1)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestChildPath_MaxDepthFits(t *testing.T) {
	path := ""
	for depth := 0; depth <= MaxDepth; depth++ {
		var err error
		path, err = ChildPath(path, MaxRank)
		require.NoError(t, err, "depth %d", depth)
	}
	assert.Len(t, path, MaxPathLen)
	assert.Equal(t, MaxDepth, Depth(path))

	_, err := ChildPath(path, 1)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestDescendantPrefixAndRange(t *testing.T) {
	assert.Equal(t, "00001/", DescendantPrefix("00001"))

	lo, hi := DescendantRange("00001")
	inRange := func(p string) bool { return Compare(p, lo) >= 0 && Compare(p, hi) < 0 }

	for _, p := range []string{"00001", "00002", "00010/00001", "00000", "000010"} {
		assert.Equal(t, strings.HasPrefix(p, DescendantPrefix("00001")), inRange(p), p)
	}
	for _, p := range []string{"00001/00001", "00001/99999/00003"} {
		assert.True(t, inRange(p), p)
	}
}

func TestLastRankDepthAncestors(t *testing.T) {
	rank, err := LastRank("00001/00007/00123")
	require.NoError(t, err)
	assert.Equal(t, 123, rank)

	rank, err = LastRank("00009")
	require.NoError(t, err)
	assert.Equal(t, 9, rank)

	assert.Equal(t, 0, Depth("00001"))
	assert.Equal(t, 2, Depth("00001/00007/00123"))

	assert.Nil(t, Ancestors("00001"))
	assert.Equal(t, []string{"00001", "00001/00007"}, Ancestors("00001/00007/00123"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("00001"))
	assert.True(t, Valid("00001/00002"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("00001/"))
	assert.False(t, Valid("1/2"))
	assert.False(t, Valid("00001//00002"))
}

type node struct {
	path     string
	children []*node
}

func preorder(n *node, out *[]string) {
	if n.path != "" {
		*out = append(*out, n.path)
	}
	for _, c := range n.children {
		preorder(c, out)
	}
}

// 随机树：路径字典序必须与先序遍历一致
func TestCompare_MatchesPreorder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	root := &node{}
	all := []*node{root}

	for i := 0; i < 2000; i++ {
		parent := all[rng.Intn(len(all))]
		if Depth(parent.path) >= 8 {
			continue
		}
		// 序号跳跃，模拟删除后留下的空洞
		rank := 1
		if n := len(parent.children); n > 0 {
			last, err := LastRank(parent.children[n-1].path)
			require.NoError(t, err)
			rank = last + 1 + rng.Intn(120)
		}
		p, err := ChildPath(parent.path, rank)
		require.NoError(t, err)
		child := &node{path: p}
		parent.children = append(parent.children, child)
		all = append(all, child)
	}

	var want []string
	preorder(root, &want)

	got := append([]string(nil), want...)
	rng.Shuffle(len(got), func(i, j int) { got[i], got[j] = got[j], got[i] })
	sort.Slice(got, func(i, j int) bool { return Compare(got[i], got[j]) < 0 })

	assert.Equal(t, want, got)
}
