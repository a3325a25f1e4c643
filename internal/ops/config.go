package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yanun0323/decimal"

	"main/internal/bits"
	"main/internal/book"
	"main/internal/schema"
)

// Ring consumption modes.
const (
	RingModeSPSC = "spsc"
	RingModeMPSC = "mpsc"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Pipeline  PipelineConfig  `json:"pipeline"`
	Symbols   []SymbolConfig  `json:"symbols"`
	Feed      FeedConfig      `json:"feed"`
	Archive   ArchiveConfig   `json:"archive"`
	Profiling ProfilingConfig `json:"profiling"`
}

// PipelineConfig sizes the data-plane structures.
type PipelineConfig struct {
	PoolCapacity  int    `json:"poolCapacity"`
	IndexCapacity int    `json:"indexCapacity"`
	RingCapacity  int    `json:"ringCapacity"`
	RingMode      string `json:"ringMode"`
	MaxDepth      int    `json:"maxDepth"`
}

// SymbolConfig describes one instrument and its price granularity.
type SymbolConfig struct {
	Name     string          `json:"name"`
	TickSize decimal.Decimal `json:"tickSize"`
}

// FeedConfig tunes the synthetic feed.
type FeedConfig struct {
	BasePrice schema.Price    `json:"basePrice"`
	BaseQty   schema.Quantity `json:"baseQty"`
	Spread    schema.Price    `json:"spread"`
	Depth     int             `json:"depth"`
	Records   int             `json:"records"`
}

// ArchiveConfig controls snapshot persistence.
type ArchiveConfig struct {
	Dir         string `json:"dir"`
	IntervalSec int    `json:"intervalSec"`
	PostgresDSN string `json:"postgresDsn"`
}

// ProfilingConfig enables the pyroscope agent.
type ProfilingConfig struct {
	Enabled       bool   `json:"enabled"`
	ServerAddress string `json:"serverAddress"`
	AppName       string `json:"appName"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Pipeline          PipelineSpec
	Symbols           []string
	PriceScales       map[schema.SymbolKey]int
	DefaultPriceScale int
	Feed              FeedSpec
	Archive           ArchiveSpec
	Profiling         ProfilingConfig
}

// PipelineSpec is the validated pipeline sizing.
type PipelineSpec struct {
	PoolCapacity  int
	IndexCapacity int
	RingCapacity  int
	RingMode      string
	MaxDepth      int
}

// FeedSpec is the validated feed definition.
type FeedSpec struct {
	BasePrice schema.Price
	BaseQty   schema.Quantity
	Spread    schema.Price
	Depth     int
	Records   int
}

// ArchiveSpec is the validated archive definition.
type ArchiveSpec struct {
	Dir         string
	IntervalSec int
	PostgresDSN string
}

// Load reads a JSON config file and validates it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a parsed config and applies defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	pipeline, err := resolvePipeline(cfg.Pipeline)
	if err != nil {
		return Loaded{}, err
	}
	if len(cfg.Symbols) == 0 {
		return Loaded{}, fmt.Errorf("config has no symbols")
	}
	symbols := make([]string, 0, len(cfg.Symbols))
	scales := make(map[schema.SymbolKey]int, len(cfg.Symbols))
	defaultScale := -1
	for _, sym := range cfg.Symbols {
		if sym.Name == "" {
			return Loaded{}, fmt.Errorf("symbol name is empty")
		}
		if len(sym.Name) > schema.SymbolKeyCap {
			return Loaded{}, fmt.Errorf("symbol name too long: %s", sym.Name)
		}
		scale, err := scaleFromTick(sym.TickSize)
		if err != nil {
			return Loaded{}, fmt.Errorf("invalid tickSize for %s: %w", sym.Name, err)
		}
		symbols = append(symbols, sym.Name)
		scales[schema.NewSymbolKey(sym.Name)] = scale
		if defaultScale < 0 {
			defaultScale = scale
		}
	}
	feed := resolveFeed(cfg.Feed)
	archive, err := resolveArchive(cfg.Archive)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{
		Pipeline:          pipeline,
		Symbols:           symbols,
		PriceScales:       scales,
		DefaultPriceScale: defaultScale,
		Feed:              feed,
		Archive:           archive,
		Profiling:         cfg.Profiling,
	}, nil
}

func resolvePipeline(cfg PipelineConfig) (PipelineSpec, error) {
	if cfg.PoolCapacity == 0 {
		cfg.PoolCapacity = 1024
	}
	if cfg.IndexCapacity == 0 {
		cfg.IndexCapacity = 1024
	}
	if cfg.RingCapacity == 0 {
		cfg.RingCapacity = 4096
	}
	if cfg.RingMode == "" {
		cfg.RingMode = RingModeSPSC
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = book.DepthCap
	}
	if cfg.PoolCapacity < 0 || !bits.IsPowerOfTwo(uint64(cfg.PoolCapacity)) {
		return PipelineSpec{}, fmt.Errorf("poolCapacity must be a power of two, got %d", cfg.PoolCapacity)
	}
	if cfg.IndexCapacity < 0 || !bits.IsPowerOfTwo(uint64(cfg.IndexCapacity)) {
		return PipelineSpec{}, fmt.Errorf("indexCapacity must be a power of two, got %d", cfg.IndexCapacity)
	}
	if cfg.RingCapacity < 2 || !bits.IsPowerOfTwo(uint64(cfg.RingCapacity)) {
		return PipelineSpec{}, fmt.Errorf("ringCapacity must be a power of two >= 2, got %d", cfg.RingCapacity)
	}
	if cfg.RingMode != RingModeSPSC && cfg.RingMode != RingModeMPSC {
		return PipelineSpec{}, fmt.Errorf("ringMode must be %q or %q, got %q", RingModeSPSC, RingModeMPSC, cfg.RingMode)
	}
	if cfg.MaxDepth < 1 || cfg.MaxDepth > book.DepthCap {
		return PipelineSpec{}, fmt.Errorf("maxDepth must be in [1, %d], got %d", book.DepthCap, cfg.MaxDepth)
	}
	return PipelineSpec{
		PoolCapacity:  cfg.PoolCapacity,
		IndexCapacity: cfg.IndexCapacity,
		RingCapacity:  cfg.RingCapacity,
		RingMode:      cfg.RingMode,
		MaxDepth:      cfg.MaxDepth,
	}, nil
}

// scaleFromTick derives the integer price scale from a decimal tick size.
// "0.01" resolves to scale 2, "1" to scale 0.
func scaleFromTick(tick decimal.Decimal) (int, error) {
	s := strings.TrimSpace(tick.String())
	if s == "" || s == "0" || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("tickSize must be > 0, got %q", s)
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0, nil
	}
	frac := strings.TrimRight(s[dot+1:], "0")
	if frac == "" && strings.Trim(s[:dot], "0") == "" {
		return 0, fmt.Errorf("tickSize must be > 0, got %q", s)
	}
	return len(frac), nil
}

func resolveFeed(cfg FeedConfig) FeedSpec {
	if cfg.BasePrice == 0 {
		cfg.BasePrice = 1_000_000
	}
	if cfg.BaseQty == 0 {
		cfg.BaseQty = 100
	}
	if cfg.Depth == 0 {
		cfg.Depth = 8
	}
	if cfg.Records == 0 {
		cfg.Records = 100_000
	}
	return FeedSpec{
		BasePrice: cfg.BasePrice,
		BaseQty:   cfg.BaseQty,
		Spread:    cfg.Spread,
		Depth:     cfg.Depth,
		Records:   cfg.Records,
	}
}

func resolveArchive(cfg ArchiveConfig) (ArchiveSpec, error) {
	if cfg.IntervalSec < 0 {
		return ArchiveSpec{}, fmt.Errorf("archive intervalSec must be >= 0, got %d", cfg.IntervalSec)
	}
	if cfg.IntervalSec == 0 {
		cfg.IntervalSec = 10
	}
	return ArchiveSpec{
		Dir:         cfg.Dir,
		IntervalSec: cfg.IntervalSec,
		PostgresDSN: cfg.PostgresDSN,
	}, nil
}
