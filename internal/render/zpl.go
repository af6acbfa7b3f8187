// Package render turns a ShippingRecord into ZPL for a 4x6 thermal label.
// Sections live at fixed coordinates so omitting one never moves another,
// and the output is byte-stable for a fixed record and clock.
package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/fidoogle/process-label/internal/extract"
)

// RenderedLabel is the printer document plus a human-readable summary.
type RenderedLabel struct {
	Markup      string
	Description string
}

// Field text wider than lineWidth characters wraps onto continuation lines
// rather than running off the label.
const lineWidth = 80

const descriptionLimit = 200

// Fixed layout. One y origin per section; continuation lines step by lineStep
// within their own section only.
const (
	yBanner    = 40
	yBarcode   = 100
	yTracking  = 250
	ySender    = 300
	yRecipient = 350
	yService   = 400
	yWeight    = 450
	yAddress   = 500
	yCityLine  = 530
	yPermit    = 580
	yReference = 610
	yProcessed = 660

	xMargin  = 50
	lineStep = 30
)

type Renderer struct {
	now func() time.Time
}

type Option func(*Renderer)

// WithClock replaces the processed-at timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render emits the label document. Field contents are printed as-is; this is
// a formatter, not a validator.
func (r *Renderer) Render(rec *extract.ShippingRecord) *RenderedLabel {
	var b strings.Builder
	b.WriteString("^XA\n")
	b.WriteString("^CF0,30\n")

	if rec.CompanyName != "" {
		writeText(&b, xMargin, yBanner, "^A0N,45,45", rec.CompanyName)
	}
	if rec.TrackingNumber != "" {
		b.WriteString(field(xMargin, yBarcode) + "^BY3^BCN,120,N,N,N^FD" + rec.TrackingNumber + "^FS\n")
		writeText(&b, xMargin, yTracking, "^A0N,28,28", "TRACKING# "+rec.TrackingNumber)
	}
	if rec.SenderName != "" {
		writeText(&b, xMargin, ySender, "^A0N,28,28", "FROM: "+rec.SenderName)
	}
	if rec.RecipientName != "" {
		writeText(&b, xMargin, yRecipient, "^A0N,28,28", "TO: "+rec.RecipientName)
	}
	if rec.ServiceType != "" {
		writeText(&b, xMargin, yService, "^A0N,28,28", "SERVICE: "+rec.ServiceType)
	}
	if rec.Weight != "" {
		writeText(&b, xMargin, yWeight, "^A0N,28,28", "WEIGHT: "+rec.Weight)
	}
	if rec.AddressLine != "" {
		writeText(&b, xMargin, yAddress, "^A0N,28,28", rec.AddressLine)
	}
	if city := cityLine(rec); city != "" {
		writeText(&b, xMargin, yCityLine, "^A0N,28,28", city)
	}
	if rec.PermitNumber != "" {
		writeText(&b, xMargin, yPermit, "^A0N,24,24", "PERMIT "+rec.PermitNumber)
	}
	if rec.ReferenceNumber != "" {
		writeText(&b, xMargin, yReference, "^A0N,24,24", "REF "+rec.ReferenceNumber)
	}
	writeText(&b, xMargin, yProcessed, "^A0N,20,20", "PROCESSED "+r.now().UTC().Format(time.RFC3339))

	b.WriteString("^XZ\n")

	return &RenderedLabel{
		Markup:      b.String(),
		Description: describe(rec.RawCaption),
	}
}

func writeText(b *strings.Builder, x, y int, font, text string) {
	for i, line := range wrap(text, lineWidth) {
		b.WriteString(field(x, y+i*lineStep) + font + "^FD" + line + "^FS\n")
	}
}

func field(x, y int) string {
	return "^FO" + strconv.Itoa(x) + "," + strconv.Itoa(y)
}

func cityLine(rec *extract.ShippingRecord) string {
	parts := make([]string, 0, 3)
	if rec.City != "" {
		parts = append(parts, rec.City+",")
	}
	if rec.State != "" {
		parts = append(parts, rec.State)
	}
	if rec.Zip != "" {
		parts = append(parts, rec.Zip)
	}
	return strings.Join(parts, " ")
}

// wrap hard-splits s into chunks of at most width characters.
func wrap(s string, width int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	var lines []string
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	return append(lines, string(runes))
}

func describe(caption string) string {
	runes := []rune(caption)
	if len(runes) <= descriptionLimit {
		return caption
	}
	return string(runes[:descriptionLimit]) + "..."
}
