// Package api exposes the planning request/response interface of spec §6
// over HTTP: a single best-route endpoint and a multi-route endpoint
// backed by the K-consume or K-yen algorithms, plus a Prometheus /metrics
// endpoint.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/asgard/cgr/internal/cgr"
	"github.com/asgard/cgr/internal/platform/observability"
	"github.com/asgard/cgr/internal/planout"
	"github.com/asgard/cgr/internal/utils"
)

// Server holds the contact plan the API plans over. A Server is safe for
// concurrent use: every request builds its own periodized plan, neighbor
// index, and search buffers, matching the kernel's no-shared-state
// resource policy.
type Server struct {
	basePlan cgr.Plan
	period   float64
	tracer   trace.Tracer
}

// NewServer constructs an API server over basePlan. period, if > 0, is
// used to periodize the plan around each request's t0 (see cgr.Periodize);
// a period of 0 disables periodization and the base plan is used as-is.
func NewServer(basePlan cgr.Plan, period float64) *Server {
	return &Server{
		basePlan: basePlan,
		period:   period,
		tracer:   otel.Tracer("cgr/api"),
	}
}

// Routes builds the chi router: CORS for browser-facing deployments, the
// Prometheus HTTP middleware, and the planning endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(observability.HTTPMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/route", s.handleRoute)
		r.Post("/routes", s.handleRoutes)
	})
	r.Get("/metrics", observability.Handler().ServeHTTP)

	return r
}

// requestBody is the wire shape of a planning request per spec §6: a
// source/destination node id, t0, a bundle size, and optional extras.
type requestBody struct {
	Src             int     `json:"src"`
	Dst             int     `json:"dst"`
	T0              float64 `json:"t0"`
	BundleBytes     float64 `json:"bundle_bytes"`
	ExpiryRel       float64 `json:"expiry_rel,omitempty"`
	BannedIDs       []int   `json:"banned_ids,omitempty"`
	ForcedPrefixIDs []int   `json:"forced_prefix_ids,omitempty"`
	K               int     `json:"k,omitempty"`
	KYen            int     `json:"k_yen,omitempty"`
}

func (b requestBody) toRequest() cgr.RouteRequest {
	return cgr.RouteRequest{
		Src:         b.Src,
		Dst:         b.Dst,
		T0:          b.T0,
		BundleBytes: b.BundleBytes,
		ExpiryRel:   b.ExpiryRel,
	}
}

func (b requestBody) toFilters() cgr.Filters {
	f := cgr.Filters{ForcedPrefixIDs: b.ForcedPrefixIDs}
	if len(b.BannedIDs) > 0 {
		f.BannedIDs = make(map[int]struct{}, len(b.BannedIDs))
		for _, id := range b.BannedIDs {
			f.BannedIDs[id] = struct{}{}
		}
	}
	return f
}

func (s *Server) workingPlan(t0 float64) (cgr.Plan, cgr.NeighborIndex) {
	var plan cgr.Plan
	if s.period > 0 {
		plan = cgr.Periodize(s.basePlan, t0, s.period)
	} else {
		plan = s.basePlan.Clone()
	}
	return plan, cgr.BuildNeighborIndex(plan)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "api.route")
	defer span.End()

	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, utils.WrapAPIError(err, utils.ErrBadRequest.Code, "invalid request body", utils.ErrBadRequest.Status))
		return
	}

	plan, idx := s.workingPlan(body.T0)
	start := time.Now()
	rt, err := cgr.FindRoute(plan, idx, body.toRequest(), body.toFilters())
	observability.RecordSearch("dijkstra", time.Since(start), rt.Found)
	if err != nil {
		writeAPIError(w, utils.WrapAPIError(err, utils.ErrBadRequest.Code, "invalid planning request", utils.ErrBadRequest.Status))
		return
	}

	span.SetAttributes(
		attribute.Int("cgr.src", body.Src),
		attribute.Int("cgr.dst", body.Dst),
		attribute.Bool("cgr.found", rt.Found),
	)

	payload, err := planout.RouteJSON(rt, body.T0)
	if err != nil {
		writeAPIError(w, utils.WrapAPIError(err, utils.ErrInternalServer.Code, "failed to encode route", utils.ErrInternalServer.Status))
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "api.routes")
	defer span.End()

	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, utils.WrapAPIError(err, utils.ErrBadRequest.Code, "invalid request body", utils.ErrBadRequest.Status))
		return
	}
	if body.K <= 0 && body.KYen <= 0 {
		writeAPIError(w, utils.NewAPIError(utils.ErrBadRequest.Code, "one of k or k_yen is required", utils.ErrBadRequest.Status))
		return
	}

	plan, idx := s.workingPlan(body.T0)
	req := body.toRequest()
	filters := body.toFilters()

	var routes []cgr.Route
	var err error
	algorithm := "kconsume"
	start := time.Now()
	switch {
	case body.KYen > 0:
		// Diversification takes precedence when both variants are requested.
		algorithm = "kyen"
		routes, err = cgr.KYenRoutes(plan, idx, req, filters, body.KYen)
	default:
		routes, err = cgr.KConsumeRoutes(plan, req, filters, body.K)
	}
	observability.RecordSearch(algorithm, time.Since(start), len(routes) > 0)
	if err != nil {
		writeAPIError(w, utils.WrapAPIError(err, utils.ErrBadRequest.Code, "invalid planning request", utils.ErrBadRequest.Status))
		return
	}

	span.SetAttributes(
		attribute.Int("cgr.src", body.Src),
		attribute.Int("cgr.dst", body.Dst),
		attribute.Int("cgr.routes_found", len(routes)),
	)

	payload, err := planout.RoutesJSON(routes, body.T0)
	if err != nil {
		writeAPIError(w, utils.WrapAPIError(err, utils.ErrInternalServer.Code, "failed to encode routes", utils.ErrInternalServer.Status))
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeAPIError(w http.ResponseWriter, apiErr *utils.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Code: apiErr.Code, Message: apiErr.Error()})
}
