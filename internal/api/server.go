package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lox/crimelens/internal/analysis"
	"github.com/lox/crimelens/internal/dataset"
	"github.com/lox/crimelens/internal/heatmap"
	"github.com/lox/crimelens/internal/store"
)

const defaultCacheTTL = 5 * time.Minute

// Options configures the HTTP layer.
type Options struct {
	Addr        string
	CORSOrigins []string
	CacheTTL    time.Duration
	// Metrics mounts /metrics on the API handler. Leave it off when a
	// separate metrics listener is used.
	Metrics bool
}

type frequencies = map[string]map[string]int

type Server struct {
	table    *dataset.Table
	store    *store.Store
	pipeline *analysis.Pipeline
	log      *zap.Logger
	opts     Options

	points      []heatmap.Point
	freqCache   *ttlcache.Cache[string, frequencies]
	heatmapPNGs *ttlcache.Cache[string, []byte]
}

func NewServer(table *dataset.Table, st *store.Store, pipeline *analysis.Pipeline, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	return &Server{
		table:    table,
		store:    st,
		pipeline: pipeline,
		log:      log,
		opts:     opts,
		points:   heatmap.Points(table),
		freqCache: ttlcache.New[string, frequencies](
			ttlcache.WithTTL[string, frequencies](opts.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, frequencies](),
			ttlcache.WithCapacity[string, frequencies](256),
		),
		heatmapPNGs: ttlcache.New[string, []byte](
			ttlcache.WithTTL[string, []byte](opts.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
			ttlcache.WithCapacity[string, []byte](32),
		),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /health", s.handleHealth)
	s.route(mux, "GET /data", s.handleData)

	s.route(mux, "POST /spatial_analysis", s.handleSpatialAnalysis)
	s.route(mux, "POST /beatwise_analysis", s.handleBeatwiseAnalysis)
	s.route(mux, "POST /crime_prediction", s.handleCrimePrediction)
	s.route(mux, "POST /deployment_plan", s.handleDeploymentPlan)
	s.route(mux, "POST /crime_analysis", s.handleCrimeAnalysis)

	s.route(mux, "GET /api/districts", s.handleDistricts)
	s.route(mux, "GET /api/units/{district}", s.handleUnits)
	s.route(mux, "GET /api/beats/{unit}", s.handleBeats)
	s.route(mux, "GET /api/data-by-beat/{beat}", s.handleDataByBeat)
	s.route(mux, "GET /api/crime-by-time/{district}/{unit}", s.handleCrimeByTime)
	s.route(mux, "GET /api/crime-by-month/{district}/{unit}", s.handleCrimeByMonth)
	s.route(mux, "GET /api/crime-by-week/{district}/{unit}", s.handleCrimeByWeek)
	s.route(mux, "POST /api/details", s.handleDetails)
	s.route(mux, "POST /api/data-frequency", s.handleDataFrequency)

	s.route(mux, "GET /heatmap.png", s.handleHeatmap)
	if s.opts.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return s.withRequestID(s.withCORS(mux))
}

// route registers h under pattern with per-route logging and metrics.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.freqCache.Start()
	go s.heatmapPNGs.Start()
	defer s.freqCache.Stop()
	defer s.heatmapPNGs.Stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", zap.String("addr", s.opts.Addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
