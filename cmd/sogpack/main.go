// Command sogpack packs splat table snapshots into a SOG archive.
//
//	sogpack -in a.sogt,b.sogt -out scene.sog
//	sogpack -in scene.sogt -out s3://bucket/scenes/scene.sog -select "0:0-9999"
//	sogpack -synth 100000 -out synthetic.sogt
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/sog"
	"github.com/hupe1980/sog/blobstore"
	"github.com/hupe1980/sog/internal/config"
	"github.com/hupe1980/sog/internal/synth"
	"github.com/hupe1980/sog/nearest"
	"github.com/hupe1980/sog/observability"
	"github.com/hupe1980/sog/resource"
	"github.com/hupe1980/sog/table"
	"github.com/hupe1980/sog/tablefile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "sogpack: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	in        string
	out       string
	selection string
	invert    bool
	cfgPath   string
	progress  bool
	synth     int
	flags     config.Config
}

func parseFlags(args []string, stderr io.Writer) (*cli, error) {
	c := &cli{}
	fs := flag.NewFlagSet("sogpack", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&c.in, "in", "", "comma separated input snapshots (path, s3:// or minio://)")
	fs.StringVar(&c.out, "out", "", "output archive (path, s3:// or minio://)")
	fs.StringVar(&c.selection, "select", "", `rows to export, e.g. "0:0-99,150;1:7"`)
	fs.BoolVar(&c.invert, "invert", false, "export the rows not matched by -select")
	fs.StringVar(&c.cfgPath, "config", "", "JSON config file")
	fs.BoolVar(&c.progress, "progress", false, "print stage progress to stderr")
	fs.IntVar(&c.synth, "synth", 0, "write a synthetic snapshot with this many splats to -out and exit")

	iterations := fs.Int("iterations", 0, "Lloyd steps per clustering call")
	bands := fs.Int("sh-bands", 3, "maximum spherical-harmonic bands (0-3)")
	seed := fs.Int64("seed", 0, "random seed")
	workers := fs.Int("workers", 0, "search goroutines")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	logFormat := fs.String("log-format", "text", "text or json")
	compression := fs.String("compression", "zstd", "snapshot compression for -synth (none, zstd, s2, lz4)")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	minioEndpoint := fs.String("minio-endpoint", "", "MinIO endpoint host:port")
	timeout := fs.Duration("timeout", 0, "abort the export after this duration")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Only explicitly set flags override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "iterations":
			c.flags.Iterations = config.Ptr(*iterations)
		case "sh-bands":
			c.flags.MaxSHBands = config.Ptr(*bands)
		case "seed":
			c.flags.Seed = config.Ptr(*seed)
		case "workers":
			c.flags.Workers = config.Ptr(*workers)
		case "log-level":
			c.flags.LogLevel = config.Ptr(*logLevel)
		case "log-format":
			c.flags.LogFormat = config.Ptr(*logFormat)
		case "compression":
			c.flags.Compression = config.Ptr(*compression)
		case "metrics-addr":
			c.flags.MetricsAddr = config.Ptr(*metricsAddr)
		case "minio-endpoint":
			c.flags.MinioEndpoint = config.Ptr(*minioEndpoint)
		case "timeout":
			c.flags.Timeout = config.Ptr(timeout.String())
		}
	})

	if c.out == "" {
		return nil, errors.New("-out is required")
	}
	if c.in == "" && c.synth <= 0 {
		return nil, errors.New("-in is required")
	}
	return c, nil
}

func (c *cli) config() (*config.Config, error) {
	cfg := &config.Config{}
	if c.cfgPath != "" {
		loaded, err := config.Load(c.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Merge(&c.flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}

	if d := cfg.GetTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	out, err := parseTarget(c.out)
	if err != nil {
		return fmt.Errorf("-out: %w", err)
	}
	store, name, err := out.open(ctx, cfg)
	if err != nil {
		return err
	}

	if c.synth > 0 {
		return writeSynthetic(ctx, store, name, c.synth, cfg)
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	rc := resource.NewController(cfg.Resources())
	sources, err := loadSources(ctx, strings.Split(c.in, ","), cfg, rc)
	if err != nil {
		return err
	}

	caps := nearest.DetectCapabilities()
	logger.Debug("sources loaded", "sources", len(sources), "simd", caps.String(), "kernel", caps.Best().String())

	var filter sog.Filter
	if c.selection != "" {
		bitmaps, err := parseSelection(c.selection, sources)
		if err != nil {
			return err
		}
		filter = sog.Bitmaps(bitmaps)
	}
	if c.invert {
		filter = sog.Not(filter)
	}

	opts := append(cfg.Options(), sog.WithLogger(logger))
	if c.progress {
		opts = append(opts, sog.WithProgress(func(stage sog.Stage, step, total int) {
			if total == 0 {
				fmt.Fprintf(stderr, "%-8s\n", stage)
				return
			}
			fmt.Fprintf(stderr, "%-8s %d/%d\n", stage, step, total)
		}))
	}

	reg := prometheus.NewRegistry()
	opts = append(opts, sog.WithMetricsCollector(observability.NewPrometheusCollector(reg)))

	exporter := sog.New(append(opts, sog.WithController(rc))...)

	if cfg.MetricsAddr != nil && *cfg.MetricsAddr != "" {
		observability.RegisterController(reg, exporter.Controller())
		srv := &http.Server{
			Addr:              *cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	res, err := exporter.ExportTo(ctx, store, name, sources, filter)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %s: %d splats, %dx%d, %d SH bands, %d bytes in %s\n",
		out, res.Count, res.Width, res.Height, res.SHBands, res.Bytes, res.Duration.Round(time.Millisecond))
	return nil
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(reg))
	return mux
}

func newLogger(cfg *config.Config, w io.Writer) (*sog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat != nil && *cfg.LogFormat == "json" {
		return sog.NewLogger(slog.NewJSONHandler(w, hopts)), nil
	}
	return sog.NewLogger(slog.NewTextHandler(w, hopts)), nil
}

func loadSources(ctx context.Context, inputs []string, cfg *config.Config, rc *resource.Controller) ([]sog.Source, error) {
	sources := make([]sog.Source, 0, len(inputs))
	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		t, err := parseTarget(in)
		if err != nil {
			return nil, fmt.Errorf("-in: %w", err)
		}
		store, name, err := t.open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		tbl, err := readSnapshot(ctx, store, name, rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", t, err)
		}
		sources = append(sources, tbl)
	}
	return sources, nil
}

func readSnapshot(ctx context.Context, store blobstore.Store, name string, rc *resource.Controller) (*table.Table, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	body, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	var opts []tablefile.ReadOption
	if limit := rc.MemoryLimit(); limit > 0 {
		opts = append(opts, tablefile.WithMaxBytes(limit))
	}
	return tablefile.Read(bufio.NewReader(resource.NewRateLimitedReader(ctx, body, rc)), opts...)
}

func writeSynthetic(ctx context.Context, store blobstore.Store, name string, n int, cfg *config.Config) error {
	var seed int64 = 1
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	bands := 3
	if cfg.MaxSHBands != nil {
		bands = *cfg.MaxSHBands
	}

	tbl := synth.Splats(rand.New(rand.NewSource(seed)), n, synth.Options{SHBands: bands})

	wb, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(wb)
	if _, err := tablefile.Write(bw, tbl, cfg.GetCompression()); err != nil {
		_ = wb.Abort()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = wb.Abort()
		return err
	}
	return wb.Close()
}
