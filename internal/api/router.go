package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/InkDash/internal/orchestrator"
	"github.com/LJTian/InkDash/internal/render"
)

// Server 对外暴露仪表盘的三种形态：JSON 快照、HTML 页面、墨水屏 PNG
type Server struct {
	orch     *orchestrator.Orchestrator
	renderer *render.Renderer // 渲染未启用时为 nil

	// dashboardURL 渲染流水线回环访问本进程页面的地址
	dashboardURL string
}

func NewServer(orch *orchestrator.Orchestrator, renderer *render.Renderer, dashboardURL string) *Server {
	return &Server{
		orch:         orch,
		renderer:     renderer,
		dashboardURL: dashboardURL,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/dashboard", s.dashboard)
	r.GET("/render", s.renderPNG)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/snapshot", s.snapshot)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// snapshot 聚合快照的 JSON 形态。BuildSnapshot 从不失败，
// 降级域也会带着占位值返回，这里不存在错误分支。
func (s *Server) snapshot(c *gin.Context) {
	snap := s.orch.BuildSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    snap,
	})
}

// dashboard 渲染 HTML 页面，供浏览器与截图流水线使用
func (s *Server) dashboard(c *gin.Context) {
	snap := s.orch.BuildSnapshot()
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"weather":    snap.Weather,
		"calendar":   snap.Calendar,
		"finance":    snap.Finance,
		"news":       snap.News,
		"updated_at": snap.GeneratedAt,
	})
}

// renderPNG 墨水屏帧：截图本进程的 /dashboard 页面并做灰度抖动处理
func (s *Server) renderPNG(c *gin.Context) {
	if s.renderer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "render_disabled",
			"message": "render pipeline is disabled",
		})
		return
	}

	data, err := s.renderer.Render(s.dashboardURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "render failed",
		})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}
