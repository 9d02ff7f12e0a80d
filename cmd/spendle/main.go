package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/KenCariquitan/Receipt-Spendle/internal/brands"
	"github.com/KenCariquitan/Receipt-Spendle/internal/logger"
	"github.com/KenCariquitan/Receipt-Spendle/internal/receipt"
	"github.com/KenCariquitan/Receipt-Spendle/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// providerConfig holds the per-provider flags
type providerConfig struct {
	geminiKey     *string
	geminiModel   *string
	ollamaURL     *string
	ollamaModel   *string
	ocrSpaceKey   *string
	ocrSpaceURL   *string
	ocrSpaceLang  *string
	tesseractLang *string
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("spendle")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		dbPath          = fs.StringLong("db", "spendle.db", "Database file path")
		storagePath     = fs.StringLong("storage", "./receipts", "Storage directory path")
		providers       = fs.StringLong("providers", "tesseract,ocr_space", "Comma-separated OCR providers that always run")
		fallbacks       = fs.StringLong("fallback-providers", "gemini", "Comma-separated OCR providers used when the primary results are weak")
		providerTimeout = fs.DurationLong("provider-timeout", scanning.DefaultTimeout, "Timeout for a single OCR provider call")
		brandsPath      = fs.StringLong("brands", "", "JSON file extending the built-in brand dictionary")
		fuzzyThreshold  = fs.Float64Long("fuzzy-threshold", brands.DefaultThreshold, "Minimum similarity for a fuzzy brand match")
		snapThreshold   = fs.Float64Long("snap-threshold", receipt.DefaultSnapThreshold, "Minimum brand match score that replaces the store name")
		fallbackBelow   = fs.Float64Long("fallback-below", receipt.DefaultFallbackBelow, "Primary OCR confidence under which fallback providers run")
		visionBelow     = fs.Float64Long("vision-below", receipt.DefaultVisionBelow, "Tesseract confidence under which a vision provider's fields win")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel        = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFormat       = fs.StringLong("log-format", "text", "Log format: text or json")
		showVersion     = fs.BoolLong("version", "Show version information")
	)
	cfg := providerConfig{
		geminiKey:     fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)"),
		geminiModel:   fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name"),
		ollamaURL:     fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL"),
		ollamaModel:   fs.StringLong("ollama-model", "llava", "Ollama vision model name"),
		ocrSpaceKey:   fs.StringLong("ocrspace-key", "", "OCR.space API key"),
		ocrSpaceURL:   fs.StringLong("ocrspace-url", "https://api.ocr.space/parse/image", "OCR.space endpoint"),
		ocrSpaceLang:  fs.StringLong("ocrspace-language", "eng", "OCR.space language code"),
		tesseractLang: fs.StringLong("tesseract-lang", "eng", "Tesseract languages, joined with +"),
	}

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SPENDLE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger.Init(os.Stderr, *logLevel, *logFormat)

	if *cfg.geminiKey == "" {
		*cfg.geminiKey = os.Getenv("GEMINI_API_KEY")
	}

	matcher, err := loadMatcher(*brandsPath, *fuzzyThreshold)
	if err != nil {
		slog.Error("Failed to load brand dictionary", "path", *brandsPath, "error", err)
		os.Exit(1)
	}

	primary, fallback, err := startRecognizers(cfg, *providers, *fallbacks)
	defer closeAll(primary)
	defer closeAll(fallback)
	if err != nil {
		slog.Error("Failed to initialize OCR providers", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing database...", "path", *dbPath)
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := receipt.NewService(db, store, receipt.Options{
		Primary:         primary,
		Fallback:        fallback,
		Matcher:         matcher,
		ProviderTimeout: *providerTimeout,
		SnapThreshold:   *snapThreshold,
		FallbackBelow:   *fallbackBelow,
		VisionBelow:     *visionBelow,
	})
	server := receipt.NewServer(service, receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shut down")
}

// loadMatcher builds the brand matcher, extending the built-in dictionary
// from path when one is given
func loadMatcher(path string, threshold float64) (*brands.Matcher, error) {
	if path == "" {
		return brands.NewMatcher(nil, threshold), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening brand dictionary: %w", err)
	}
	defer f.Close()

	dict, err := brands.LoadDictionary(f)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded brand dictionary", "path", path, "brands", len(dict.Entries()))
	return brands.NewMatcher(dict, threshold), nil
}

// startRecognizers builds both provider sets. Either set may come up empty;
// only having no provider at all is an error.
func startRecognizers(cfg providerConfig, providers, fallbacks string) (primary, fallback []scanning.Recognizer, err error) {
	primary, err = buildRecognizers(cfg, providers)
	if err != nil {
		slog.Warn("Running without primary OCR providers", "error", err)
	}
	fallback, err = buildRecognizers(cfg, fallbacks)
	if err != nil {
		slog.Warn("Running without fallback OCR providers", "error", err)
	}
	if len(primary)+len(fallback) == 0 {
		return nil, nil, errors.New("no OCR providers configured")
	}
	return primary, fallback, nil
}

// buildRecognizers creates the providers named in a comma-separated list.
// Providers that cannot start are skipped with a warning so one missing API
// key does not take the others down.
func buildRecognizers(cfg providerConfig, list string) ([]scanning.Recognizer, error) {
	var (
		out  []scanning.Recognizer
		errs []error
	)
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		r, err := newRecognizer(cfg, name)
		if err != nil {
			slog.Warn("OCR provider unavailable", "provider", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		slog.Info("OCR provider ready", "provider", name)
		out = append(out, r)
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func newRecognizer(cfg providerConfig, name string) (scanning.Recognizer, error) {
	switch name {
	case scanning.SourceTesseract:
		return scanning.NewTesseract(strings.Split(*cfg.tesseractLang, "+")...)
	case scanning.SourceOCRSpace:
		return scanning.NewOCRSpace(*cfg.ocrSpaceKey, *cfg.ocrSpaceURL, *cfg.ocrSpaceLang)
	case scanning.SourceGemini:
		return scanning.NewGemini(*cfg.geminiKey, *cfg.geminiModel)
	case scanning.SourceOllama:
		return scanning.NewOllama(*cfg.ollamaURL, *cfg.ollamaModel)
	}
	return nil, fmt.Errorf("unknown provider %q (valid: tesseract, ocr_space, gemini, ollama)", name)
}

func closeAll(recognizers []scanning.Recognizer) {
	for _, r := range recognizers {
		if err := r.Close(); err != nil {
			slog.Warn("Failed to close OCR provider", "provider", r.Name(), "error", err)
		}
	}
}
