package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/akhenakh/inview"
	"github.com/akhenakh/inview/batch"
	"github.com/akhenakh/inview/catalog"
	"github.com/akhenakh/inview/internal/config"
	"github.com/akhenakh/inview/internal/logging"
	"github.com/akhenakh/inview/internal/metrics"
	"github.com/akhenakh/inview/internal/tracing"
	"github.com/akhenakh/inview/propagation"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration (default ./inview.yaml or ./configs/inview.yaml)")
	startFlag := flag.String("start", "", "start of the span, RFC 3339 (default now, or query.start)")
	hours := flag.Int("hours", 0, "length of the span in hours (default query.horizon_hours)")
	refetch := flag.Bool("refetch", false, "ignore cached element sets")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *startFlag != "" {
		cfg.Query.Start = *startFlag
	}
	if *hours > 0 {
		cfg.Query.HorizonHours = *hours
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := logging.New(os.Stderr, logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *refetch, logger, os.Stdout); err != nil {
		logger.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, refetch bool, logger *slog.Logger, out io.Writer) error {
	shutdown, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
		Writer:      os.Stderr,
	}, logger)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer tracing.ShutdownWithTimeout(context.Background(), shutdown, logger)

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", slog.String("addr", cfg.Metrics.Addr))
	}

	var cache catalog.Cache = catalog.NewMemoryCache(cfg.Catalog.CacheTTL)
	if cfg.Catalog.ValkeyAddr != "" {
		vc, err := catalog.NewValkeyCache(cfg.Catalog.ValkeyAddr, cfg.Catalog.CacheTTL)
		if err != nil {
			return err
		}
		defer vc.Close()
		cache = vc
	}
	cat := catalog.New(cache, catalog.WithLogger(logger))

	var sats []*inview.TwoLineElement
	for _, rec := range cfg.SatelliteRecords() {
		started := time.Now()
		lookup := cat.Lookup
		if refetch {
			lookup = cat.Refetch
		}
		el, err := lookup(ctx, rec)
		collector.Observe(metrics.KindLookup, started, err)
		if err != nil {
			logger.Warn("skipping satellite", slog.Int("norad_id", rec.Number), slog.Any("error", err))
			continue
		}
		sats = append(sats, el)
	}
	stations := cfg.GroundStations()
	if len(sats) == 0 || len(stations) == 0 {
		return fmt.Errorf("nothing to compute: %d satellites, %d stations", len(sats), len(stations))
	}

	constructor, err := propagation.ByName(cfg.Propagator)
	if err != nil {
		return err
	}
	runner := batch.NewRunner(
		batch.WithWorkers(cfg.Workers),
		batch.WithConstructor(constructor),
		batch.WithMetrics(collector),
		batch.WithLogger(logger),
	)

	start, end := cfg.Span(time.Now())
	results, err := runner.Run(ctx, batch.Pairs(sats, stations), batch.Request{
		Start:       start,
		End:         end,
		StepSeconds: cfg.Query.StepSeconds,
		AzEls:       cfg.Query.AzEls,
		Sun:         cfg.Query.Sun,
	})
	for _, res := range results {
		printResult(out, res)
	}
	return err
}

func printResult(w io.Writer, res batch.Result) {
	sat, gs := res.Pair.Satellite, res.Pair.Station
	fmt.Fprintf(w, "\n%s (%d) over %s\n", sat.Name(), sat.SatelliteNumber(), gs.Name())
	if res.Err != nil {
		fmt.Fprintf(w, "  failed: %v\n", res.Err)
		return
	}

	if len(res.Inviews) == 0 {
		fmt.Fprintln(w, "  No inviews found in the given time window.")
	}
	rx, hasRx := sat.ReceiveFrequency()
	for i, pass := range res.Inviews {
		tz := gs.TimeZone()
		fmt.Fprintf(w, "  Inview %d:\n", i+1)
		fmt.Fprintf(w, "    Rise: %s\n", pass.Rise.In(tz).Format(time.DateTime))
		fmt.Fprintf(w, "    Max Elevation: %.1f° at %s\n", pass.MaxElevation, pass.MaxElevationTime.In(tz).Format(time.DateTime))
		fmt.Fprintf(w, "    Set: %s\n", pass.Set.In(tz).Format(time.DateTime))
		fmt.Fprintf(w, "    Duration: %v\n", pass.Duration())
	}

	if len(res.AzEls) > 0 {
		fmt.Fprintf(w, "  %-20s %8s %8s %10s %10s %12s %s\n", "Time (UTC)", "Az", "El", "Range", "RangeRate", "Rx (MHz)", "Sector")
		for _, s := range res.AzEls {
			rate, freq := "-", "-"
			if s.RangeRate != nil {
				rate = fmt.Sprintf("%.3f", *s.RangeRate)
				if hasRx {
					freq = fmt.Sprintf("%.6f", inview.DownlinkFrequency(rx, *s.RangeRate))
				}
			}
			fmt.Fprintf(w, "  %-20s %8.2f %8.2f %10.1f %10s %12s %s\n",
				s.Time.Format(time.DateTime), s.Azimuth, s.Elevation, s.Range, rate, freq, gs.SectorStatus(s.Azimuth, s.Elevation))
		}
	}

	if res.Sun != nil {
		for _, win := range res.Sun.All() {
			fmt.Fprintf(w, "  %-8s %s to %s\n", win.State, win.Enter.Format(time.DateTime), win.Exit.Format(time.DateTime))
		}
		lit := inview.IntersectAll(inview.InviewIntervals(res.Inviews), inview.SunIntervals(res.Sun.Sun))
		for _, iv := range lit {
			fmt.Fprintf(w, "  Sunlit inview: %s to %s\n", iv.Start.Format(time.DateTime), iv.End.Format(time.DateTime))
		}
	}
}
