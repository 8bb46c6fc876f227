package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"cache":  s.checkCache(),
		"search": s.checkSearch(),
		"browse": s.checkBrowse(),
	}

	overall := "healthy"
	for _, c := range components {
		switch {
		case c.Status == "unhealthy":
			overall = "unhealthy"
		case c.Status == "degraded" && overall == "healthy":
			overall = "degraded"
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

func (s *Server) checkCache() ComponentHealth {
	if s.services == nil || s.services.Cache == nil {
		return ComponentHealth{Status: "degraded", Message: "response cache not configured"}
	}
	st := s.services.Cache.Stats()
	return ComponentHealth{
		Status:  "healthy",
		Message: fmt.Sprintf("%d entries, %d hits, %d misses", st.Entries, st.Hits, st.Misses),
	}
}

func (s *Server) checkSearch() ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: "degraded", Message: "search service not configured"}
	}
	if !s.services.Search.Ready() {
		return ComponentHealth{Status: "healthy", Message: "index builds on first search"}
	}
	return ComponentHealth{Status: "healthy", Message: "index ready"}
}

func (s *Server) checkBrowse() ComponentHealth {
	if s.services == nil || s.services.Browse == nil {
		return ComponentHealth{Status: "degraded", Message: "browse service not configured"}
	}
	return ComponentHealth{Status: "healthy", Message: formatSessionCount(s.services.Browse.SessionCount())}
}

func formatSessionCount(count int) string {
	switch count {
	case 0:
		return "no open sessions"
	case 1:
		return "1 open session"
	default:
		return fmt.Sprintf("%d open sessions", count)
	}
}
