package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"comment-tree-go/internal/api/dto"
	"comment-tree-go/internal/api/handler"
	"comment-tree-go/internal/config"
	"comment-tree-go/internal/position"
	"comment-tree-go/internal/repository"
	"comment-tree-go/internal/service"
	"comment-tree-go/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code int    `json:"code"`
		Type string `json:"type"`
	} `json:"error"`
}

func newTestEngine(t *testing.T, maxDepth int) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := config.CommentConfig{
		MaxDepth:        maxDepth,
		DefaultPageSize: 10,
		MaxPageSize:     100,
		LockBackend:     "local",
		LockTimeout:     5000,
	}

	repo := repository.NewCommentRepository(db)
	alloc := position.NewAllocator(db, position.NewLocalLocker(cfg.LockTimeoutDuration()))
	commentService := service.NewCommentService(repo, alloc, cfg, nil, nil)
	searchService := service.NewSearchService(repo, nil)

	r := New(gin.TestMode)
	Setup(r, handler.NewCommentHandler(commentService, nil), handler.NewSearchHandler(searchService))
	return r, db
}

func do(t *testing.T, r http.Handler, method, target string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func createComment(t *testing.T, r http.Handler, postID int64, parentID *int64) dto.CommentInfo {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/v1/comments", dto.CommentCreateRequest{
		PostID: postID, Content: "hello", ParentID: parentID,
	})
	require.Equal(t, http.StatusCreated, code)
	var info dto.CommentInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	return info
}

func TestCommentRoutes_Lifecycle(t *testing.T) {
	r, _ := newTestEngine(t, 50)

	a := createComment(t, r, 1, nil)
	b := createComment(t, r, 1, nil)
	a1 := createComment(t, r, 1, &a.ID)
	createComment(t, r, 1, &a.ID)
	assert.Equal(t, "00002", b.Path)
	assert.Equal(t, "00001/00001", a1.Path)

	code, env := do(t, r, http.MethodGet, "/api/v1/comments?post_id=1&size=3", nil)
	require.Equal(t, http.StatusOK, code)
	var page dto.CommentPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, []string{"00001", "00001/00001", "00001/00002"}, pathsOf(page.Comments))
	assert.True(t, page.HasMore)
	assert.Equal(t, "00001/00002", page.NextCursor)

	code, env = do(t, r, http.MethodGet, "/api/v1/comments?post_id=1&last_path="+page.NextCursor, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, []string{"00002"}, pathsOf(page.Comments))
	assert.False(t, page.HasMore)

	code, env = do(t, r, http.MethodGet, "/api/v1/comments/count?post_id=1", nil)
	require.Equal(t, http.StatusOK, code)
	var count dto.CommentCountData
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.EqualValues(t, 4, count.Count)

	code, env = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", a.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var deleted dto.CommentDeleteData
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.EqualValues(t, 3, deleted.Deleted)

	code, env = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", a.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFound", env.Error.Type)
}

func TestCommentRoutes_Errors(t *testing.T) {
	r, _ := newTestEngine(t, 1)

	root := createComment(t, r, 1, nil)
	reply := createComment(t, r, 1, &root.ID)

	code, env := do(t, r, http.MethodPost, "/api/v1/comments", dto.CommentCreateRequest{PostID: 1, Content: "x", ParentID: &reply.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "DepthExceeded", env.Error.Type)

	missing := int64(404)
	code, _ = do(t, r, http.MethodPost, "/api/v1/comments", dto.CommentCreateRequest{PostID: 1, Content: "x", ParentID: &missing})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/comments", map[string]interface{}{"post_id": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodGet, "/api/v1/comments", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodGet, "/api/v1/comments?post_id=1&last_path=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodGet, "/api/v1/comments/count?post_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodDelete, "/api/v1/comments/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, http.MethodPost, "/api/v1/comments/export?post_id=1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "ServiceUnavailable", env.Error.Type)
}

func TestCommentRoutes_CapacityExceeded(t *testing.T) {
	r, db := newTestEngine(t, 50)
	testutil.Seed(t, db, 1, "99999")

	code, env := do(t, r, http.MethodPost, "/api/v1/comments", dto.CommentCreateRequest{PostID: 1, Content: "x"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CapacityExceeded", env.Error.Type)
}

func TestSearchRoute_DBFallback(t *testing.T) {
	r, db := newTestEngine(t, 50)
	testutil.Seed(t, db, 1, "00001", "00002")

	code, env := do(t, r, http.MethodGet, "/api/v1/comments/search?post_id=1&q=00002", nil)
	require.Equal(t, http.StatusOK, code)
	var data dto.CommentSearchData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "db", data.Source)
	assert.Equal(t, []string{"00002"}, pathsOf(data.Comments))

	code, _ = do(t, r, http.MethodGet, "/api/v1/comments/search?post_id=1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestEngine(t, 50)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "comment_http_requests_total")
}

func TestRecovery(t *testing.T) {
	r := New(gin.TestMode)
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func pathsOf(items []dto.CommentInfo) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.Path)
	}
	return out
}
