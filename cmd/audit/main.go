// Command audit runs a one-shot website audit from the terminal and prints
// the module scores.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/analyzer"
	"github.com/webpulse/webpulse/internal/collector"
	"github.com/webpulse/webpulse/internal/config"
	"github.com/webpulse/webpulse/internal/domain"
	"github.com/webpulse/webpulse/internal/llm"
	"github.com/webpulse/webpulse/internal/nlp"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	bold   = color.New(color.Bold)
	dim    = color.New(color.Faint)
)

func main() {
	godotenv.Load()

	targetURL := flag.String("url", "", "URL to audit")
	mobile := flag.Bool("mobile", false, "Audit with mobile thresholds and viewport")
	module := flag.String("module", "", "Audit a single module (performance|seo|ux|content)")
	reduced := flag.Bool("reduced", false, "Reduced-cost audit: no browser, no AI enhancement")
	verbose := flag.Bool("verbose", false, "Verbose output")

	flag.Parse()

	if *targetURL == "" {
		red.Println("✗ -url is required")
		flag.Usage()
		os.Exit(1)
	}

	var logger *zap.Logger
	if *verbose {
		logger, _ = zap.NewDevelopment()
	} else {
		lcfg := zap.NewProductionConfig()
		lcfg.OutputPaths = []string{"/dev/null"}
		logger, _ = lcfg.Build()
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		red.Printf("✗ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	svc := buildAnalyzer(cfg, *reduced, logger)

	cyan.Println("WebPulse website health audit")
	fmt.Printf("Target: %s\n", *targetURL)
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	opts := analyzer.Options{EmulateMobile: *mobile, ReducedCost: *reduced}
	started := time.Now()

	if *module != "" {
		result, err := runWithSpinner("Auditing "+*module+"...", func() (*domain.ModuleResult, error) {
			return svc.AnalyzeModule(ctx, *targetURL, domain.Module(*module), opts)
		})
		if err != nil {
			red.Printf("✗ Audit failed: %v\n", err)
			os.Exit(1)
		}
		printModule(result)
		dim.Printf("\nDone in %s\n", time.Since(started).Round(time.Millisecond))
		return
	}

	report, err := runWithSpinner("Auditing...", func() (*domain.AuditReport, error) {
		return svc.Analyze(ctx, *targetURL, opts)
	})
	if err != nil {
		red.Printf("✗ Audit failed: %v\n", err)
		os.Exit(1)
	}

	printReport(report)
	dim.Printf("\nDone in %s\n", time.Since(started).Round(time.Millisecond))
}

// buildAnalyzer wires the audit service for a single run. Browser capture is
// attempted unless reduced mode asked for the HTTP collector only.
func buildAnalyzer(cfg *config.Config, reduced bool, logger *zap.Logger) *analyzer.Service {
	var providers []llm.Provider
	if cfg.Anthropic.APIKey != "" {
		if p, err := llm.NewAnthropicProvider(llm.AnthropicConfig{
			APIKey:  cfg.Anthropic.APIKey,
			BaseURL: cfg.Anthropic.BaseURL,
			Model:   cfg.Anthropic.Model,
			Timeout: cfg.Anthropic.Timeout,
		}); err == nil {
			providers = append(providers, p)
		}
	}
	if cfg.OpenAI.APIKey != "" {
		if p, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
		}); err == nil {
			providers = append(providers, p)
		}
	}
	providers = append(providers, llm.NewStaticProvider(""))

	chain := llm.NewChain(llm.ChainConfig{
		AttemptTimeout:  cfg.Providers.AttemptTimeout,
		RateLimitRPM:    cfg.Providers.RateLimitRPM,
		BreakerCooldown: cfg.Providers.BreakerCooldown,
	}, logger, providers...)

	httpCollector := collector.NewHTTPCollector(logger)
	var full collector.Collector
	if !reduced && cfg.Browser.Enabled {
		if browser, err := collector.NewPlaywrightCollector(collector.PlaywrightConfig{
			Headless:    cfg.Browser.Headless,
			NavTimeout:  cfg.Browser.NavTimeout,
			SettleDelay: cfg.Browser.SettleDelay,
		}, logger); err == nil {
			full = browser
		} else {
			yellow.Println("⚠ Browser unavailable, falling back to HTTP capture")
		}
	}

	orchestrator := nlp.NewOrchestrator(chain, nlp.NewCache(cfg.NLP.CacheTTL, cfg.NLP.CacheSize), logger)
	return analyzer.NewService(full, httpCollector, chain, orchestrator, nil, nil, logger)
}

// runWithSpinner shows an indeterminate spinner while fn runs.
func runWithSpinner[T any](description string, fn func() (T, error)) (T, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("   "+description),
		progressbar.OptionSpinnerType(14),
	)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				bar.Add(1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()

	result, err := fn()
	close(done)
	bar.Finish()
	fmt.Println()
	return result, err
}

func printReport(report *domain.AuditReport) {
	bold.Printf("Health score: ")
	scoreColor(report.HealthScore()).Printf("%d/100\n", report.HealthScore())
	fmt.Println()

	for _, m := range domain.Modules {
		result, ok := report.Modules[m]
		if !ok {
			continue
		}
		printModule(result)
		fmt.Println()
	}

	if report.Aggregate != nil && len(report.Aggregate.RiskDomains) > 0 {
		yellow.Printf("Risk domains: %s\n", strings.Join(report.Aggregate.RiskDomains, ", "))
	}

	if report.Insights != nil {
		fmt.Println()
		bold.Println("Insights")
		fmt.Printf("   %s\n", report.Insights.Summary)
		for _, p := range report.Insights.StrategicPriorities {
			fmt.Printf("   • %s\n", p)
		}
		if !report.Insights.AIGenerated {
			dim.Println("   (rule-based summary; AI providers unavailable)")
		}
	}
}

func printModule(result *domain.ModuleResult) {
	bold.Printf("%-12s ", result.Module)
	scoreColor(result.Score).Printf("%3d/100", result.Score)
	fmt.Printf("  risk=%s  %s\n", result.RiskLevel, result.Recommendation)

	for _, issue := range result.Issues {
		fmt.Printf("   [%s] %s\n", issue.Severity, issue.Description)
	}
	for _, fix := range result.Fixes {
		dim.Printf("   fix: %s\n", fix.Title)
	}
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return green
	case score >= 50:
		return yellow
	default:
		return red
	}
}
