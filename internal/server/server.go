// Package server exposes the estimator over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gyeh/patientcost/internal/cache"
	"github.com/gyeh/patientcost/internal/inference"
	"github.com/gyeh/patientcost/internal/model"
)

// PredictionMessage is the only failure text an estimate caller sees when
// the model cannot score a valid request.
const PredictionMessage = "unable to estimate cost for this request"

// PredictionCache is the subset of cache.Redis the handlers use.
type PredictionCache interface {
	Get(ctx context.Context, key string) (*model.Prediction, bool, error)
	Set(ctx context.Context, key string, p *model.Prediction) error
	Health(ctx context.Context) error
	HitRate() float64
}

// StatsResponse is the body of GET /stats. CacheHitRate is omitted when the
// server runs without a cache.
type StatsResponse struct {
	inference.Stats
	CacheHitRate *float64 `json:"cache_hit_rate,omitempty"`
}

// EstimateResponse is the body of a successful estimate.
type EstimateResponse struct {
	PredictedCost float64            `json:"predicted_cost"`
	Breakdown     map[string]float64 `json:"breakdown"`
	ModelRunID    string             `json:"model_run_id"`
	Cached        bool               `json:"cached"`
	LatencyMs     int64              `json:"latency_ms"`
}

// Server holds the shared estimator and optional cache.
type Server struct {
	est   *inference.Estimator
	cache PredictionCache
	log   zerolog.Logger
}

// New builds a Server. pc may be nil.
func New(est *inference.Estimator, pc PredictionCache, log zerolog.Logger) *Server {
	return &Server{est: est, cache: pc, log: log}
}

// Router returns the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/health", s.health)
	r.GET("/stats", s.stats)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/estimate", s.estimate)
	}
	return r
}

func (s *Server) estimate(c *gin.Context) {
	start := time.Now()

	var req model.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := s.cacheKey(&req)
	if key != "" {
		p, hit, err := s.cache.Get(c.Request.Context(), key)
		if err != nil {
			s.log.Warn().Err(err).Msg("cache lookup failed")
		}
		if hit {
			c.JSON(http.StatusOK, response(p, true, start))
			return
		}
	}

	p, err := s.est.Estimate(&req)
	if err != nil {
		var reqErr *inference.RequestError
		var predErr *inference.PredictionError
		switch {
		case errors.As(err, &reqErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": reqErr.Error()})
		case errors.As(err, &predErr):
			s.log.Error().Err(err).Msg("prediction failed")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": PredictionMessage})
		default:
			s.log.Error().Err(err).Msg("estimate failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	if key != "" {
		if err := s.cache.Set(c.Request.Context(), key, p); err != nil {
			s.log.Warn().Err(err).Msg("cache store failed")
		}
	}
	c.JSON(http.StatusOK, response(p, false, start))
}

func (s *Server) cacheKey(req *model.PatientRequest) string {
	if s.cache == nil {
		return ""
	}
	key, err := cache.Key(s.est.RunID(), req)
	if err != nil {
		s.log.Warn().Err(err).Msg("cache key failed")
		return ""
	}
	return key
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":       "healthy",
		"model_run_id": s.est.RunID().String(),
		"features":     len(s.est.Schema()),
	}
	code := http.StatusOK
	if s.cache != nil {
		ok := s.cache.Health(c.Request.Context()) == nil
		body["redis"] = ok
		if !ok {
			body["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, body)
}

func (s *Server) stats(c *gin.Context) {
	resp := StatsResponse{Stats: s.est.Stats()}
	if s.cache != nil {
		rate := s.cache.HitRate()
		resp.CacheHitRate = &rate
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func response(p *model.Prediction, cached bool, start time.Time) EstimateResponse {
	return EstimateResponse{
		PredictedCost: p.PredictedCost,
		Breakdown:     p.BreakdownMap(),
		ModelRunID:    p.ModelRunID,
		Cached:        cached,
		LatencyMs:     time.Since(start).Milliseconds(),
	}
}
