package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopharvest/browser"
	"shopharvest/config"
	"shopharvest/ingest"
	"shopharvest/models"
	"shopharvest/pipeline"
	"shopharvest/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("HARVEST_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid HARVEST_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("HARVEST_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("HARVEST_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	urls := flag.String("urls", "", "Comma-separated list of shop/category URLs to harvest")
	urlsFile := flag.String("urls-file", "", "File with one URL per line")
	payloadFiles := flag.String("payload-files", "", "Comma-separated files holding captured JSON payloads (skips the browser)")
	renderMode := flag.String("render", defaultCfg.RenderMode, "Render mode: browser or static")
	autoPaginate := flag.Bool("paginate", defaultCfg.AutoPaginate, "Walk consecutive result pages per URL")
	maxPages := flag.Int("pages", pagesDefault, "Safety ceiling on pages per URL")
	politenessMs := flag.Int("politeness", int(defaultCfg.PolitenessDelay/time.Millisecond), "Politeness delay between pages (milliseconds)")
	navTimeoutSec := flag.Int("nav-timeout", int(defaultCfg.NavigationTimeout/time.Second), "Navigation timeout (seconds)")
	settleMs := flag.Int("settle", int(defaultCfg.SettleInterval/time.Millisecond), "Scroll settle interval (milliseconds)")
	stableThreshold := flag.Int("stable", defaultCfg.StableThreshold, "Consecutive unchanged counts ending stabilization")
	maxScrollIters := flag.Int("max-scrolls", defaultCfg.MaxScrollIters, "Scroll-stabilization iteration ceiling")
	headless := flag.Bool("headless", defaultCfg.Headless, "Run the browser headless")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, xlsx, or all")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.RenderMode = strings.ToLower(*renderMode)
	cfg.AutoPaginate = *autoPaginate
	cfg.MaxPages = *maxPages
	cfg.PolitenessDelay = time.Duration(*politenessMs) * time.Millisecond
	cfg.NavigationTimeout = time.Duration(*navTimeoutSec) * time.Second
	cfg.SettleInterval = time.Duration(*settleMs) * time.Millisecond
	cfg.StableThreshold = *stableThreshold
	cfg.MaxScrollIters = *maxScrollIters
	cfg.Headless = *headless
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	if *payloadFiles != "" {
		runIngest(strings.Split(*payloadFiles, ","), writer, cfg)
		return
	}

	inputURLs, err := collectURLs(*urls, *urlsFile)
	if err != nil {
		slog.Error("collecting input urls", slog.Any("error", err))
		os.Exit(1)
	}
	if len(inputURLs) == 0 {
		slog.Error("no input urls; pass -urls, -urls-file, or -payload-files")
		os.Exit(1)
	}

	runHarvest(ctx, inputURLs, writer, cfg)
}

func runHarvest(ctx context.Context, urls []string, writer pipeline.OutputWriter, cfg *config.Config) {
	metrics := scraper.NewMetrics()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	newSession := func(ctx context.Context) (browser.Session, error) {
		return browser.NewChromeSession(ctx, browser.Options{
			Headless:          cfg.Headless,
			UserAgent:         cfg.UserAgent,
			NavigationTimeout: cfg.NavigationTimeout,
		})
	}
	coordinator := scraper.NewCoordinator(cfg, metrics, newSession)

	slog.Info("starting harvest",
		slog.Int("urls", len(urls)),
		slog.String("render", cfg.RenderMode),
		slog.Bool("paginate", cfg.AutoPaginate),
		slog.Int("max_pages", cfg.MaxPages),
	)

	p := pipeline.NewPipeline(writer)
	p.Start(1)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	startTime := time.Now()
	result, err := coordinator.RunBatch(ctx, urls)
	if err != nil {
		slog.Error("harvest failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := p.Process(result.AllRecords); err != nil && err != pipeline.ErrPipelineClosed {
		slog.Error("pipeline process error", slog.Any("error", err))
	}
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	// Closing the writer appends the TOTAL row and finalizes file formats.
	if err := writer.Close(); err != nil {
		slog.Error("closing output", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	exported, _ := p.GetMetrics()["processed_records"].(int64)
	printBatchSummary(result, exported, time.Since(startTime), cfg.OutputFile)

	// Zero total records is a request-level failure; partial results are not.
	if result.Stats.TotalRecords == 0 {
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func runIngest(files []string, writer pipeline.OutputWriter, cfg *config.Config) {
	payloads := make([]string, 0, len(files))
	for _, path := range files {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("reading payload file", slog.String("path", path), slog.Any("error", err))
			os.Exit(1)
		}
		payloads = append(payloads, string(data))
	}

	result := ingest.ParsePayloads(payloads)

	p := pipeline.NewPipeline(writer)
	p.Start(1)
	if err := p.Process(result.Records); err != nil && err != pipeline.ErrPipelineClosed {
		slog.Error("pipeline process error", slog.Any("error", err))
	}
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("closing output", slog.Any("error", err))
		os.Exit(1)
	}

	exported, _ := p.GetMetrics()["processed_records"].(int64)
	printIngestSummary(result, exported, cfg.OutputFile)

	if result.Stats.TotalRecords == 0 {
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func collectURLs(commaList, file string) ([]string, error) {
	var urls []string
	for _, u := range strings.Split(commaList, ",") {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read urls file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				urls = append(urls, trimmed)
			}
		}
	}
	return urls, nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "xlsx":
		return pipeline.NewXLSXWriter(filename)
	case "all":
		base := strings.TrimSuffix(filename, ".csv")
		csvWriter, err := pipeline.NewCSVWriter(base + ".csv")
		if err != nil {
			return nil, err
		}
		jsonWriter, err := pipeline.NewJSONWriter(base + ".json")
		if err != nil {
			csvWriter.Close()
			return nil, err
		}
		xlsxWriter, err := pipeline.NewXLSXWriter(base + ".xlsx")
		if err != nil {
			csvWriter.Close()
			jsonWriter.Close()
			return nil, err
		}
		return pipeline.NewMultiWriter(csvWriter, jsonWriter, xlsxWriter), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printBatchSummary(result *models.BatchResult, exported int64, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Harvest complete")
	fmt.Printf("  Total records: %d\n", result.Stats.TotalRecords)
	fmt.Printf("  Exported:      %d (after validation and URL dedup)\n", exported)
	fmt.Printf("  URLs:          %d (%d failed)\n", len(result.Runs), len(result.Errors))
	for reason, count := range result.Stats.ByReason {
		fmt.Printf("  %-14s %d\n", string(reason)+":", count)
	}
	if len(result.Errors) > 0 {
		fmt.Println("  Failed URLs:")
		for url, message := range result.Errors {
			fmt.Printf("    %s: %s\n", url, message)
		}
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func printIngestSummary(result *models.ParseResult, exported int64, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Payload ingestion complete")
	fmt.Printf("  Total records: %d\n", result.Stats.TotalRecords)
	fmt.Printf("  Exported:      %d (after validation and URL dedup)\n", exported)
	fmt.Printf("  Available:     %d\n", result.Stats.Available)
	fmt.Printf("  Sold out:      %d\n", result.Stats.SoldOut)
	for i, count := range result.Stats.PerInput {
		fmt.Printf("  Input %d:       %d records\n", i+1, count)
	}
	if len(result.Errors) > 0 {
		fmt.Println("  Parse errors:")
		for _, message := range result.Errors {
			fmt.Printf("    %s\n", message)
		}
	}
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
