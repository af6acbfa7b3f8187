package extract

import (
	"regexp"
	"strings"
)

// Rule is one independent best-effort matcher. Rules never fail: no match
// simply leaves the record's field empty. Order in DefaultRules is the fixed
// field priority; rules do not short-circuit each other.
type Rule struct {
	Name  string
	Apply func(text string, rec *ShippingRecord)
}

// DefaultRules returns the standard rule set in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "tracking_number", Apply: matchTracking},
		{Name: "sender_name", Apply: matchSender},
		{Name: "recipient_name", Apply: matchRecipient},
		{Name: "service_type", Apply: matchService},
		{Name: "weight", Apply: matchWeight},
		{Name: "address_line", Apply: matchAddress},
		{Name: "city_state_zip", Apply: matchCityStateZip},
		{Name: "company_name", Apply: matchCompany},
		{Name: "permit_number", Apply: matchPermit},
		{Name: "reference_number", Apply: matchReference},
	}
}

// Carrier formats, most specific first. The bare digit run is a last resort
// shared by several carriers.
var (
	reTrackingUPS     = regexp.MustCompile(`\b1Z[0-9A-Z]{8,18}\b`)
	reTrackingGrouped = regexp.MustCompile(`\b\d{4}(?:[ ]\d{4}){4}\b|\b\d{20,22}\b`)
	reTrackingBare    = regexp.MustCompile(`\b\d{12,14}\b`)
	reTrackingIntl    = regexp.MustCompile(`\b[A-Z]{2}\d{9}[A-Z]{2}\b`)
	reDigitRun        = regexp.MustCompile(`\d{6,}`)
)

func matchTracking(text string, rec *ShippingRecord) {
	for _, re := range []*regexp.Regexp{reTrackingUPS, reTrackingGrouped, reTrackingBare, reTrackingIntl} {
		if m := re.FindString(text); m != "" {
			rec.TrackingNumber = strings.ReplaceAll(m, " ", "")
			return
		}
	}
	if m := reDigitRun.FindString(text); m != "" {
		rec.TrackingNumber = m
	}
}

var (
	reSender    = regexp.MustCompile(`(?im)^[ \t]*(?:ship[ \t]*from|from|sender)[ \t]*:[ \t]*(.+)$`)
	reRecipient = regexp.MustCompile(`(?im)^[ \t]*(?:ship[ \t]*to|to|recipient)[ \t]*:[ \t]*(.+)$`)
)

func matchSender(text string, rec *ShippingRecord) {
	if m := reSender.FindStringSubmatch(text); m != nil {
		rec.SenderName = strings.TrimSpace(m[1])
	}
}

func matchRecipient(text string, rec *ShippingRecord) {
	if m := reRecipient.FindStringSubmatch(text); m != nil {
		rec.RecipientName = strings.TrimSpace(m[1])
	}
}

var (
	reService     = regexp.MustCompile(`(?im)^[ \t]*service(?:[ \t]*type)?[ \t]*:[ \t]*(.+)$`)
	reWeightLabel = regexp.MustCompile(`(?im)^[ \t]*weight[ \t]*:[ \t]*(.+)$`)
	reWeightBare  = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?[ \t]*(?:lbs?|kg|oz)\b`)
)

func matchService(text string, rec *ShippingRecord) {
	if m := reService.FindStringSubmatch(text); m != nil {
		rec.ServiceType = strings.TrimSpace(m[1])
	}
}

func matchWeight(text string, rec *ShippingRecord) {
	if m := reWeightLabel.FindStringSubmatch(text); m != nil {
		rec.Weight = strings.TrimSpace(m[1])
		return
	}
	if m := reWeightBare.FindString(text); m != "" {
		rec.Weight = strings.TrimSpace(m)
	}
}

var reAddress = regexp.MustCompile(`(?im)^[ \t]*(\d+[0-9A-Za-z .,#'-]*?[ \t](?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|circle|cir|place|pl|way|parkway|pkwy|highway|hwy)\.?)[ \t]*$`)

func matchAddress(text string, rec *ShippingRecord) {
	if m := reAddress.FindStringSubmatch(text); m != nil {
		rec.AddressLine = strings.TrimSpace(m[1])
	}
}

var (
	reCityStateZip = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z][A-Za-z .'-]*?),?[ \t]+([A-Z]{2})[ \t]+(\d{5}(?:-\d{4})?)[ \t]*$`)
	reStateZip     = regexp.MustCompile(`\b([A-Z]{2})[ \t]+(\d{5}(?:-\d{4})?)\b`)
)

func matchCityStateZip(text string, rec *ShippingRecord) {
	if m := reCityStateZip.FindStringSubmatch(text); m != nil {
		rec.City = strings.TrimSpace(m[1])
		rec.State = m[2]
		rec.Zip = m[3]
		return
	}
	if m := reStateZip.FindStringSubmatch(text); m != nil {
		rec.State = m[1]
		rec.Zip = m[2]
	}
}

var (
	reCompanySuffix = regexp.MustCompile(`\b([A-Z][A-Za-z0-9&' ,.-]{0,60}?(?:Incorporated|Corporation|Company|Inc|LLC|Corp|Ltd)(?:\.|\b))`)
	reCompanyCaps   = regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z0-9&.'-]+(?:[ \t]+[A-Z][A-Za-z0-9&.'-]+)+)[ \t]*$`)
)

func matchCompany(text string, rec *ShippingRecord) {
	if m := reCompanySuffix.FindStringSubmatch(text); m != nil {
		rec.CompanyName = strings.TrimSpace(m[1])
		return
	}
	if m := reCompanyCaps.FindStringSubmatch(text); m != nil {
		rec.CompanyName = strings.TrimSpace(m[1])
	}
}

var (
	rePermit    = regexp.MustCompile(`(?i)\bpermit[ \t]*(?:no\.?|#)?[ \t]*:?[ \t]*([A-Za-z0-9-]+)`)
	reReference = regexp.MustCompile(`(?i)\b(?:reference|ref)[ \t]*(?:no\.?|#)?[ \t]*:[ \t]*([A-Za-z0-9-]+)`)
)

func matchPermit(text string, rec *ShippingRecord) {
	if m := rePermit.FindStringSubmatch(text); m != nil {
		rec.PermitNumber = strings.TrimSpace(m[1])
	}
}

func matchReference(text string, rec *ShippingRecord) {
	if m := reReference.FindStringSubmatch(text); m != nil {
		rec.ReferenceNumber = strings.TrimSpace(m[1])
	}
}
