package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"runtime"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/archive"
	"main/internal/book"
	"main/internal/feed"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/pipeline"
	"main/internal/pool"
	"main/internal/ring"
	"main/internal/router"
	"main/internal/schema"
	"main/internal/symidx"
)

func main() {
	if err := run(); err != nil {
		log.Printf("mdp: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	records := flag.Int("records", 0, "Override synthetic record count (0=config)")
	statsInterval := flag.Duration("stats-interval", 15*time.Second, "Metrics report interval")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *records > 0 {
		cfg.Feed.Records = *records
	}

	if cfg.Profiling.Enabled {
		appName := cfg.Profiling.AppName
		if appName == "" {
			appName = "mdp"
		}
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: appName,
			ServerAddress:   cfg.Profiling.ServerAddress,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	books := pool.New[book.Book](cfg.Pipeline.PoolCapacity, nil, nil)
	index := symidx.New[book.Book](cfg.Pipeline.IndexCapacity)
	rt := router.New(index, books, router.Config{
		MaxDepth:          cfg.Pipeline.MaxDepth,
		DefaultPriceScale: cfg.DefaultPriceScale,
		PriceScales:       cfg.PriceScales,
	})
	metrics := obs.NewMetrics()

	var p *pipeline.Pipeline
	if cfg.Pipeline.RingMode == ops.RingModeMPSC {
		p = pipeline.New(ring.NewMPSC[schema.Record](cfg.Pipeline.RingCapacity), rt, metrics)
	} else {
		p = pipeline.New(ring.NewSPSC[schema.Record](cfg.Pipeline.RingCapacity), rt, metrics)
	}

	gen, err := feed.NewGenerator(cfg.Symbols, cfg.Feed.BasePrice, cfg.Feed.BaseQty, cfg.Feed.Spread, cfg.Feed.Depth)
	if err != nil {
		return err
	}

	var sink *archive.PgSink
	if cfg.Archive.PostgresDSN != "" {
		sink, err = archive.NewPgSink(cfg.Archive.PostgresDSN)
		if err != nil {
			return err
		}
		defer func() {
			_ = sink.Close()
		}()
	}
	if cfg.Archive.Dir != "" || sink != nil {
		arch := archive.New(rt, cfg.Archive.Dir, time.Duration(cfg.Archive.IntervalSec)*time.Second, sink, metrics)
		go arch.Run(ctx)
	}

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		p.Run(ctx)
	}()
	go reportStats(ctx, metrics, *statsInterval)

	logs.Infof("pipeline started, symbols: %d, records: %d, ring: %s",
		len(cfg.Symbols), cfg.Feed.Records, cfg.Pipeline.RingMode)

	if err := produce(ctx, gen, p, cfg.Feed.Records); err != nil {
		cancel()
		<-consumerDone
		return err
	}

	for p.Backlog() > 0 {
		select {
		case <-sys.Shutdown():
			cancel()
			<-consumerDone
			return nil
		default:
			runtime.Gosched()
		}
	}
	cancel()
	<-consumerDone

	report(rt, metrics)
	return nil
}

// produce pushes the full synthetic stream, spinning while the ring is full.
func produce(ctx context.Context, gen *feed.Generator, p *pipeline.Pipeline, records int) error {
	for i := 0; i < records; i++ {
		rec := gen.Next(time.Now())
		for p.Submit(rec) != nil {
			select {
			case <-sys.Shutdown():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			default:
				runtime.Gosched()
			}
		}
	}
	return nil
}

func reportStats(ctx context.Context, metrics *obs.Metrics, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := metrics.Snapshot()
			logs.Infof("applied: %d, ring drops: %d, route drops: %d, apply avg: %s",
				snap.RecordsApplied, snap.RingDrops, snap.RouteDrops, snap.ApplyLatency.Avg)
		}
	}
}

func report(rt *router.Router, metrics *obs.Metrics) {
	snap := metrics.Snapshot()
	logs.Infof("done, applied: %d, books: %d, ring drops: %d, route drops: %d",
		snap.RecordsApplied, rt.BookCount(), snap.RingDrops, snap.RouteDrops)
	logs.Infof("apply latency, min: %s, avg: %s, max: %s",
		snap.ApplyLatency.Min, snap.ApplyLatency.Avg, snap.ApplyLatency.Max)

	rt.Range(func(symbol schema.SymbolKey, b *book.Book) bool {
		s := b.Snapshot()
		logs.Infof("%s bid: %d, ask: %d, mid: %.4f, spread: %.2fbps",
			symbol.String(), s.BestBid(), s.BestAsk(), s.Mid(), s.SpreadBps())
		return true
	})
}

const defaultConfigJSON = `{
	"symbols": [
		{"name": "BTCUSDT", "tickSize": "0.01"},
		{"name": "ETHUSDT", "tickSize": "0.01"},
		{"name": "SOLUSDT", "tickSize": "0.001"}
	]
}`

func loadConfig(path string) (ops.Loaded, error) {
	if path != "" {
		return ops.Load(path)
	}
	var cfg ops.FileConfig
	if err := json.Unmarshal([]byte(defaultConfigJSON), &cfg); err != nil {
		return ops.Loaded{}, err
	}
	return ops.Resolve(cfg)
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
