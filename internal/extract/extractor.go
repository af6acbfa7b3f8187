package extract

import (
	"log/slog"
	"math/rand"
)

// Extractor applies an ordered rule set to normalized caption text. It is
// deterministic for fixed input aside from the placeholder generator, which
// only runs when no tracking-like token exists anywhere in the text.
type Extractor struct {
	rules       []Rule
	placeholder func() string
	logger      *slog.Logger
}

type Option func(*Extractor)

// WithRules replaces the default rule set.
func WithRules(rules []Rule) Option {
	return func(e *Extractor) {
		if len(rules) > 0 {
			e.rules = rules
		}
	}
}

// WithPlaceholder replaces the fallback tracking-number generator. Tests use
// it to pin a fixed value.
func WithPlaceholder(fn func() string) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.placeholder = fn
		}
	}
}

func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		rules:       DefaultRules(),
		placeholder: randomPlaceholder,
		logger:      logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract normalizes raw provider output and runs every rule over it. A rule
// that finds nothing leaves its field empty; that is the expected common case,
// not an error.
func (e *Extractor) Extract(raw any) (*ShippingRecord, error) {
	caption, err := NormalizeOutput(raw)
	if err != nil {
		return nil, err
	}

	rec := &ShippingRecord{RawCaption: caption}
	text := cleanText(caption)
	for _, rule := range e.rules {
		rule.Apply(text, rec)
	}

	// A renderable barcode must always exist, so synthesize one when nothing
	// in the text looked like a tracking number.
	if rec.TrackingNumber == "" {
		rec.TrackingNumber = e.placeholder()
		rec.TrackingGenerated = true
	}

	e.logger.Info("extract.ok",
		"caption_bytes", len(caption),
		"tracking", rec.TrackingNumber,
		"tracking_generated", rec.TrackingGenerated,
		"sender", rec.SenderName,
		"recipient", rec.RecipientName,
		"state", rec.State,
		"zip", rec.Zip,
	)
	return rec, nil
}

// randomPlaceholder emits a 12-digit numeric stand-in for a tracking number.
func randomPlaceholder() string {
	digits := make([]byte, 12)
	for i := range digits {
		digits[i] = '0' + byte(rand.Intn(10))
	}
	return string(digits)
}
