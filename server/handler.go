package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/rectcount/geometry"
	"github.com/wyfcoding/rectcount/health"
	"github.com/wyfcoding/rectcount/response"
	"github.com/wyfcoding/rectcount/service"
	"github.com/wyfcoding/rectcount/xerrors"
)

// CountQuery GET /v1/count 的查询参数。使用指针区分缺失与 0。
type CountQuery struct {
	X *int `form:"x" binding:"required"`
	Y *int `form:"y" binding:"required"`
}

// CountResult 单点查询结果。
type CountResult struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Count int `json:"count"`
}

// BatchRequest POST /v1/count/batch 的请求体。
type BatchRequest struct {
	Points []geometry.Point `json:"points" binding:"required"`
}

// BatchResult 批量查询结果，顺序与请求一致。
type BatchResult struct {
	Counts []int `json:"counts"`
}

// Handler 将计数服务暴露为 HTTP 接口。
type Handler struct {
	svc    *service.QueryService
	checks *health.Registry
}

// NewHandler 创建处理器。checks 为空时健康检查只看索引是否就绪。
func NewHandler(svc *service.QueryService, checks *health.Registry) *Handler {
	if checks == nil {
		checks = health.NewRegistry(0)
		checks.Register("index", health.ReadyChecker(svc.Ready, "index not ready"))
	}
	return &Handler{svc: svc, checks: checks}
}

// Count GET /v1/count?x=&y=
func (h *Handler) Count(c *gin.Context) {
	var q CountQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, xerrors.ErrInvalidPoint.Derive("%v", err))
		return
	}
	p := geometry.Pt(*q.X, *q.Y)
	n, err := h.svc.Count(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, CountResult{X: p.X, Y: p.Y, Count: n})
}

// CountBatch POST /v1/count/batch
func (h *Handler) CountBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, xerrors.ErrInvalidRequest.Derive("%v", err))
		return
	}
	counts, err := h.svc.CountBatch(c.Request.Context(), req.Points)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, BatchResult{Counts: counts})
}

// Info GET /v1/index
func (h *Handler) Info(c *gin.Context) {
	info, err := h.svc.Info()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// Reload POST /v1/index/reload
func (h *Handler) Reload(c *gin.Context) {
	info, err := h.svc.Reload(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// Health GET /healthz，任一检查项失败时返回 503。
func (h *Handler) Health(c *gin.Context) {
	report := h.checks.Check(c.Request.Context())
	if !report.Healthy() {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	response.SuccessWithRawData(c, report)
}
