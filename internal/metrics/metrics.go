package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RankAllocations 序号分配次数，按结果分类
	RankAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_rank_allocations_total",
		Help: "Total sibling rank allocations by result",
	}, []string{"result"}) // ok | capacity | error

	// ScopeLockWait 作用域锁等待时长
	ScopeLockWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "comment_scope_lock_wait_seconds",
		Help:    "Time spent waiting for a (post, parent) scope lock",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms ~ 800ms
	}, []string{"backend"})

	// SubtreeDeletedRows 子树删除的行数
	SubtreeDeletedRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "comment_subtree_deleted_rows",
		Help:    "Rows removed per subtree deletion",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	// CountCacheRequests 评论数缓存命中情况
	CountCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_count_cache_requests_total",
		Help: "Comment count cache lookups by result",
	}, []string{"result"}) // hit | miss | error

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "comment_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
