package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterApplianceRoutes /api/{ownerId}/appliances/... 与 /api/{ownerId}/alerts/upcoming
func (r *Router) RegisterApplianceRoutes(h *ApplianceHandler) {
	r.HandleHandler("/api/", h)
}

// RegisterSweepRoutes 手动触发巡检
func (r *Router) RegisterSweepRoutes(h *SweepHandler) {
	r.Handle("/api/v1/alerts/sweep", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.RunSweep(w, req)
	})
}

// RegisterOpsRoutes /healthz 与 /metrics
func (r *Router) RegisterOpsRoutes(health *HealthHandler, metrics http.Handler) {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		health.Check(w, req)
	})
	if metrics != nil {
		r.HandleHandler("/metrics", metrics)
	}
}
