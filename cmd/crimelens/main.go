package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lox/crimelens/internal/analysis"
	"github.com/lox/crimelens/internal/api"
	"github.com/lox/crimelens/internal/apperr"
	"github.com/lox/crimelens/internal/config"
	"github.com/lox/crimelens/internal/dataset"
	"github.com/lox/crimelens/internal/httputil"
	"github.com/lox/crimelens/internal/llm"
	"github.com/lox/crimelens/internal/metrics"
	"github.com/lox/crimelens/internal/prompt"
	"github.com/lox/crimelens/internal/store"
)

type CLI struct {
	Serve  ServeCmd  `cmd:"" default:"withargs" help:"Load the dataset and serve the HTTP API."`
	Prompt PromptCmd `cmd:"" help:"Render an analysis prompt to stdout without generating."`
}

type ServeCmd struct {
	Config config.Config `embed:""`
}

func (c *ServeCmd) Run() error {
	cfg := c.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	profiles, err := config.LoadProfiles(cfg.Profiles, analysis.DefaultProfiles())
	if err != nil {
		return err
	}

	src, err := dataset.ParseSource(cfg.Dataset, dataset.SourceOptions{Timeout: cfg.FetchTimeout})
	if err != nil {
		return apperr.Configuration("dataset", err)
	}
	logger.Info("loading dataset", zap.Stringer("source", src))
	table, err := dataset.Load(ctx, src)
	if err != nil {
		return err
	}
	metrics.DatasetRows.Set(float64(table.Len()))
	metrics.DatasetRowsDropped.Set(float64(table.Dropped()))
	logger.Info("dataset loaded",
		zap.Int("rows", table.Len()),
		zap.Int("dropped", table.Dropped()),
		zap.Int("columns", len(table.Columns())),
	)

	db, err := store.OpenMemory()
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer db.Close()

	st := store.New(db, logger.Named("store"))
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := st.Index(ctx, table); err != nil {
		return fmt.Errorf("index dataset: %w", err)
	}

	var streamer llm.Streamer
	if cfg.DryRun {
		logger.Warn("dry run: prompts are echoed, the generation service is never called")
		streamer = llm.EchoStreamer{}
	} else {
		streamer, err = llm.NewOpenAIStreamer(llm.OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			HTTPClient: httputil.NewClient(cfg.GenerationTimeout),
		})
		if err != nil {
			return apperr.Configuration("HUGGINGFACE_API_KEY", err)
		}
	}

	invoker := llm.NewInvoker(streamer, cfg.GenerationTimeout, logger.Named("llm"))
	pipeline := analysis.NewPipeline(invoker, profiles, logger.Named("analysis"))
	server := api.NewServer(table, st, pipeline, logger.Named("api"), api.Options{
		Addr:        cfg.Addr,
		CORSOrigins: cfg.CORSOrigins,
		CacheTTL:    cfg.CacheTTL,
		Metrics:     cfg.MetricsAddr == "",
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return runMetrics(gctx, cfg.MetricsAddr, logger) })
	}
	return g.Wait()
}

func runMetrics(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

type PromptCmd struct {
	Kind     string `arg:"" enum:"spatial,beatwise,prediction,deployment,general" help:"Analysis kind."`
	Text     string `arg:"" help:"Analysis text, or - to read it from stdin."`
	District string `help:"District name."`
	Unit     string `help:"Unit or police station name."`
	Beat     string `help:"Beat name."`
}

func (c *PromptCmd) Run() error {
	text := c.Text
	if text == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(b), "\n")
	}

	pipeline := analysis.NewPipeline(nil, nil, nil)
	out, err := pipeline.Prompt(analysis.Request{
		Kind:         prompt.Kind(c.Kind),
		AnalysisText: text,
		District:     c.District,
		Unit:         c.Unit,
		Beat:         c.Beat,
	})
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func main() {
	_ = godotenv.Load() // ignore missing file

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("crimelens"),
		kong.Description("Crime dataset explorer with LLM-generated analyses."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
