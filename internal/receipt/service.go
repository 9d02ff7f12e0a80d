package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KenCariquitan/Receipt-Spendle/internal/brands"
	"github.com/KenCariquitan/Receipt-Spendle/internal/fields"
	"github.com/KenCariquitan/Receipt-Spendle/internal/reconcile"
	"github.com/KenCariquitan/Receipt-Spendle/internal/scanning"
)

// Pipeline defaults
const (
	DefaultSnapThreshold = 0.86
	DefaultFallbackBelow = 55.0
	DefaultVisionBelow   = 50.0

	DefaultLowConfidence = 0.6

	defaultCorrectionLimit    = 200
	maxCorrectionLimit        = 1000
	defaultLowConfidenceLimit = 50
	maxLowConfidenceLimit     = 200

	ruleConfidence   = 0.99
	reasonClassifier = "classifier"
	reasonManual     = "manual"
)

var (
	// ErrScanFailed is returned when no OCR provider produced a payload
	ErrScanFailed = errors.New("no ocr provider produced text")

	// ErrInvalidUpdate is returned when a correction breaks a field invariant
	ErrInvalidUpdate = errors.New("invalid receipt update")
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Classifier assigns a category when no rule applies. Implementations return
// one of brands.Categories and a confidence between 0 and 1.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, float64, error)
}

// Options configures the scanning pipeline. Zero values use the defaults.
type Options struct {
	// Primary recognizers always run
	Primary []scanning.Recognizer
	// Fallback recognizers run when the primary results look weak
	Fallback []scanning.Recognizer

	Matcher    *brands.Matcher
	Resolver   *reconcile.Resolver
	Classifier Classifier

	ProviderTimeout time.Duration
	// SnapThreshold is the brand match score above which the store is
	// replaced by the canonical brand name
	SnapThreshold float64
	// FallbackBelow is the best primary confidence under which the fallback
	// recognizers run
	FallbackBelow float64
	// VisionBelow is the tesseract confidence under which a vision model's
	// fields replace the resolved ones
	VisionBelow float64
}

// Resolution is the result of running the extraction pipeline over a set of
// payloads
type Resolution struct {
	reconcile.Resolved

	Brand              brands.Match `json:"brand"`
	Category           string       `json:"category,omitempty"`
	CategoryReason     string       `json:"category_reason,omitempty"`
	CategorySource     string       `json:"category_source,omitempty"`
	CategoryConfidence float64      `json:"category_confidence,omitempty"`

	Text          string         `json:"text,omitempty"`
	OCRConfidence *float64       `json:"ocr_confidence,omitempty"`
	Sources       []SourceReport `json:"sources"`
}

// Service handles receipt operations
type Service struct {
	db          DB
	storage     Storage
	primary     []scanning.Recognizer
	fallback    []scanning.Recognizer
	matcher     *brands.Matcher
	categorizer *brands.Categorizer
	resolver    *reconcile.Resolver
	classifier  Classifier
	timeout     time.Duration
	snapAt      float64
	fallbackAt  float64
	visionAt    float64
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with uuid IDs and the wall clock
func NewService(db DB, storage Storage, opts Options) *Service {
	return NewServiceWithDeps(db, storage, opts, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, opts Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	if opts.Matcher == nil {
		opts.Matcher = brands.NewMatcher(nil, 0)
	}
	if opts.Resolver == nil {
		opts.Resolver = reconcile.NewResolver(nil, nil)
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = scanning.DefaultTimeout
	}
	if opts.SnapThreshold <= 0 {
		opts.SnapThreshold = DefaultSnapThreshold
	}
	if opts.FallbackBelow <= 0 {
		opts.FallbackBelow = DefaultFallbackBelow
	}
	if opts.VisionBelow <= 0 {
		opts.VisionBelow = DefaultVisionBelow
	}
	return &Service{
		db:          db,
		storage:     storage,
		primary:     opts.Primary,
		fallback:    opts.Fallback,
		matcher:     opts.Matcher,
		categorizer: brands.NewCategorizer(opts.Matcher),
		resolver:    opts.Resolver,
		classifier:  opts.Classifier,
		timeout:     opts.ProviderTimeout,
		snapAt:      opts.SnapThreshold,
		fallbackAt:  opts.FallbackBelow,
		visionAt:    opts.VisionBelow,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// visionSources are the providers that read the image with a vision model
var visionSources = map[string]bool{
	scanning.SourceGemini: true,
	scanning.SourceOllama: true,
}

var (
	reUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters and truncates phone-generated
// names
func sanitizeFilename(filename string) string {
	ext := reUnsafeChars.ReplaceAllString(filepath.Ext(filename), "")
	if ext != "" {
		ext = "." + strings.ToLower(ext)
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = reUnsafeChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(reSpaces.ReplaceAllString(base, " "))

	const maxLen = 50
	if len(base) > maxLen {
		base = strings.TrimSpace(base[:maxLen])
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// ProcessReceipt stores an upload, runs it through every configured OCR
// provider and saves the resolved receipt
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	payloads := s.scan(ctx, scanning.Image{Data: data, ContentType: contentType})
	if !slices.ContainsFunc(payloads, func(p scanning.Payload) bool { return p.OK }) {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"providers", len(payloads),
		)
		s.removeFile(savedPath)
		return nil, fmt.Errorf("scanning receipt: %w", scanFailure(payloads))
	}

	res := s.ResolvePayloads(ctx, payloads)
	receipt := &Receipt{
		ID:                 id,
		Store:              res.Store,
		StoreNormalized:    res.StoreNormalized,
		Total:              res.Total,
		Date:               res.Date,
		SourceTag:          res.SourceTag,
		Category:           res.Category,
		CategoryReason:     res.CategoryReason,
		CategorySource:     res.CategorySource,
		CategoryConfidence: res.CategoryConfidence,
		OCRConfidence:      res.OCRConfidence,
		Text:               res.Text,
		Sources:            res.Sources,
		Filename:           savedPath,
		ContentType:        contentType,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.removeFile(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	slog.Info("Processed receipt",
		"id", id,
		"store", receipt.Store,
		"total", receipt.Total,
		"date", receipt.Date,
		"source", receipt.SourceTag,
		"category", receipt.Category,
	)
	return receipt, nil
}

// scan runs the primary recognizers and, when their output is weak, the
// fallback recognizers as well
func (s *Service) scan(ctx context.Context, img scanning.Image) []scanning.Payload {
	payloads := scanning.FanOut(ctx, s.primary, img, s.timeout)
	if s.needsFallback(payloads) {
		slog.Debug("Running fallback ocr providers", "count", len(s.fallback))
		payloads = append(payloads, scanning.FanOut(ctx, s.fallback, img, s.timeout)...)
	}
	return payloads
}

// needsFallback reports whether no primary payload found all three fields or
// the most confident one is below the fallback threshold
func (s *Service) needsFallback(payloads []scanning.Payload) bool {
	if len(s.fallback) == 0 {
		return false
	}
	complete := false
	best := -1.0
	for _, p := range payloads {
		if !p.OK {
			continue
		}
		f := fields.Extract(p)
		if f.Found() == 3 {
			complete = true
		}
		best = max(best, s.resolver.Candidate(p.Source, f, p.Confidence).Confidence)
	}
	return !complete || best < s.fallbackAt
}

// ResolvePayloads extracts fields from every OK payload, reconciles them, snaps
// the store to a known brand and categorizes the receipt. It performs no I/O
// apart from the optional classifier.
func (s *Service) ResolvePayloads(ctx context.Context, payloads []scanning.Payload) Resolution {
	var candidates []reconcile.Candidate
	extracted := make([]fields.Fields, len(payloads))
	reports := make([]SourceReport, 0, len(payloads))
	for i, p := range payloads {
		report := SourceReport{
			Name:       p.Source,
			OK:         p.OK,
			Error:      p.Error,
			Confidence: p.Confidence,
			DurationMS: p.Duration.Milliseconds(),
		}
		if p.OK {
			f := fields.Extract(p)
			extracted[i] = f
			report.Store, report.Total, report.Date = f.Store, f.Total, f.Date
			candidates = append(candidates, s.resolver.Candidate(p.Source, f, p.Confidence))
		}
		reports = append(reports, report)
	}

	res := Resolution{
		Resolved: s.resolver.Resolve(candidates),
		Sources:  reports,
	}
	s.preferVision(&res, payloads, extracted)

	if res.Store != "" {
		res.Brand = s.matcher.Match(res.Store)
		if res.Brand.Matched() && res.Brand.Score >= s.snapAt {
			res.Store = res.Brand.Brand
			res.StoreNormalized = res.Brand.Brand
		}
	}

	if p, ok := s.primaryPayload(payloads); ok {
		res.Text = p.Text
		res.OCRConfidence = p.Confidence
		if res.OCRConfidence == nil {
			res.OCRConfidence = scanning.Confidence(scanning.HeuristicConfidence(p.Text))
		}
	}

	c := s.classify(ctx, res.Text, res.Store)
	res.Category = c.Category
	res.CategoryReason = c.Reason
	res.CategorySource = c.Source
	res.CategoryConfidence = c.Confidence
	return res
}

// preferVision replaces the resolved fields with a vision model's when a
// tesseract pass ran but read the receipt poorly. A failed tesseract pass
// counts as zero confidence.
func (s *Service) preferVision(res *Resolution, payloads []scanning.Payload, extracted []fields.Fields) {
	tesseract := slices.IndexFunc(payloads, func(p scanning.Payload) bool {
		return p.Source == scanning.SourceTesseract
	})
	if tesseract < 0 {
		return
	}
	if p := payloads[tesseract]; p.OK && p.Confidence != nil && *p.Confidence >= s.visionAt {
		return
	}

	vision := -1
	for i, p := range payloads {
		if !p.OK || strings.TrimSpace(p.Text) == "" || !visionSources[p.Source] || extracted[i].Found() == 0 {
			continue
		}
		if vision < 0 || s.resolver.Rank(p.Source) < s.resolver.Rank(payloads[vision].Source) {
			vision = i
		}
	}
	if vision < 0 {
		return
	}

	f := extracted[vision]
	if f.Store != "" {
		res.Store = f.Store
		res.StoreNormalized = brands.Normalize(f.Store)
	}
	if f.Total != nil {
		res.Total = f.Total
	}
	if f.Date != "" {
		res.Date = f.Date
	}
	res.SourceTag = payloads[vision].Source
	slog.Debug("Preferring vision fields over low-confidence tesseract", "source", res.SourceTag)
}

// primaryPayload is the first OK payload in source evaluation order
func (s *Service) primaryPayload(payloads []scanning.Payload) (scanning.Payload, bool) {
	var (
		best  scanning.Payload
		found bool
	)
	for _, p := range payloads {
		if !p.OK {
			continue
		}
		if !found || s.resolver.Rank(p.Source) < s.resolver.Rank(best.Source) {
			best, found = p, true
		}
	}
	return best, found
}

// ClassifyText categorizes raw receipt text with the rules, then the
// classifier. An empty Category means neither could decide.
func (s *Service) ClassifyText(ctx context.Context, text string) Classification {
	return s.classify(ctx, text, "")
}

func (s *Service) classify(ctx context.Context, text, store string) Classification {
	if c := s.categorizer.Categorize(text, store); c.Category != "" {
		return Classification{
			Category:   c.Category,
			Reason:     c.Reason,
			Source:     CategoryRule,
			Confidence: ruleConfidence,
		}
	}
	if s.classifier == nil || strings.TrimSpace(text) == "" {
		return Classification{}
	}

	category, conf, err := s.classifier.Classify(ctx, text)
	if err != nil {
		slog.Warn("Classifier failed", "error", err)
		return Classification{}
	}
	if !slices.Contains(brands.Categories, category) {
		slog.Warn("Classifier returned unknown category", "category", category)
		return Classification{}
	}
	return Classification{
		Category:   category,
		Reason:     reasonClassifier,
		Source:     CategoryClassifier,
		Confidence: conf,
	}
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, newest first
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// UpdateReceipt applies a manual correction. The store is re-normalized, the
// total must not be negative, the date must be a real YYYY-MM-DD date and the
// category must be a known one. Empty strings clear a field.
func (s *Service) UpdateReceipt(id string, u Update) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt for update: %w", err)
	}

	before := correctable(receipt)

	if u.Store != nil {
		receipt.Store = strings.TrimSpace(*u.Store)
		receipt.StoreNormalized = brands.Normalize(receipt.Store)
	}
	if u.Total != nil {
		if u.Total.IsNegative() {
			return nil, fmt.Errorf("%w: negative total %s", ErrInvalidUpdate, u.Total)
		}
		total := u.Total.Round(2)
		receipt.Total = &total
	}
	if u.Date != nil {
		date := strings.TrimSpace(*u.Date)
		if date != "" && !fields.ValidDate(date) {
			return nil, fmt.Errorf("%w: bad date %q", ErrInvalidUpdate, date)
		}
		receipt.Date = date
	}
	if u.Category != nil {
		category := strings.TrimSpace(*u.Category)
		if category != "" && !slices.Contains(brands.Categories, category) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidUpdate, category)
		}
		receipt.Category = category
		receipt.CategoryReason = reasonManual
		receipt.CategorySource = CategoryManual
		receipt.CategoryConfidence = 1
	}
	receipt.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveReceipt(receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}

	if corrections := s.corrections(receipt, before, u); len(corrections) > 0 {
		if err := s.db.SaveCorrections(corrections); err != nil {
			slog.Warn("Failed to log corrections", "id", id, "error", err)
		}
	}
	return receipt, nil
}

// correctable returns the manually editable fields as strings
func correctable(r *Receipt) map[string]string {
	total := ""
	if r.Total != nil {
		total = r.Total.StringFixed(2)
	}
	return map[string]string{
		"store":    r.Store,
		"date":     r.Date,
		"total":    total,
		"category": r.Category,
	}
}

// corrections lists the fields an update actually changed
func (s *Service) corrections(r *Receipt, before map[string]string, u Update) []Correction {
	after := correctable(r)
	touched := map[string]bool{
		"store":    u.Store != nil,
		"date":     u.Date != nil,
		"total":    u.Total != nil,
		"category": u.Category != nil,
	}

	var out []Correction
	for _, field := range []string{"store", "date", "total", "category"} {
		if !touched[field] || before[field] == after[field] {
			continue
		}
		kind := CorrectionOCR
		if field == "category" {
			kind = CorrectionCategory
		}
		out = append(out, Correction{
			ReceiptID: r.ID,
			Field:     field,
			Old:       before[field],
			New:       after[field],
			Type:      kind,
			LoggedAt:  r.UpdatedAt,
		})
	}
	return out
}

// ListCorrections returns the manual correction log, newest first
func (s *Service) ListCorrections(receiptID string, limit int) ([]Correction, error) {
	if limit <= 0 {
		limit = defaultCorrectionLimit
	}
	limit = min(limit, maxCorrectionLimit)

	corrections, err := s.db.ListCorrections(receiptID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing corrections: %w", err)
	}
	return corrections, nil
}

// LowConfidence returns receipts whose category confidence is missing or
// below threshold (0-1), newest first
func (s *Service) LowConfidence(threshold float64, limit int) ([]*Receipt, error) {
	threshold = min(max(threshold, 0), 1)
	if limit <= 0 {
		limit = defaultLowConfidenceLimit
	}
	limit = min(limit, maxLowConfidenceLimit)

	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}
	out := make([]*Receipt, 0, limit)
	for _, r := range receipts {
		if len(out) == limit {
			break
		}
		if r.CategoryConfidence == 0 || r.CategoryConfidence < threshold {
			out = append(out, r)
		}
	}
	return out, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	s.removeFile(receipt.Filename)

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the file data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

func (s *Service) removeFile(name string) {
	if err := s.storage.Delete(name); err != nil {
		slog.Warn("Failed to delete file", "filename", name, "error", err)
	}
}

func scanFailure(payloads []scanning.Payload) error {
	msgs := make([]string, 0, len(payloads))
	for _, p := range payloads {
		msgs = append(msgs, fmt.Sprintf("%s: %s", p.Source, p.Error))
	}
	if len(msgs) == 0 {
		return fmt.Errorf("%w: no providers configured", ErrScanFailed)
	}
	return fmt.Errorf("%w: %s", ErrScanFailed, strings.Join(msgs, "; "))
}
