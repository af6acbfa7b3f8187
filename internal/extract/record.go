package extract

// ShippingRecord is the structured set of fields heuristically pulled from a
// free-text caption. Every field except RawCaption is best-effort; empty
// means the caption simply did not contain it.
type ShippingRecord struct {
	RawCaption      string `json:"raw_caption"`
	TrackingNumber  string `json:"tracking_number,omitempty"`
	SenderName      string `json:"sender_name,omitempty"`
	RecipientName   string `json:"recipient_name,omitempty"`
	ServiceType     string `json:"service_type,omitempty"`
	Weight          string `json:"weight,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
	AddressLine     string `json:"address_line,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Zip             string `json:"zip,omitempty"`
	PermitNumber    string `json:"permit_number,omitempty"`
	ReferenceNumber string `json:"reference_number,omitempty"`

	// TrackingGenerated marks a synthesized placeholder tracking number, so
	// consumers never mistake it for a real carrier id.
	TrackingGenerated bool `json:"tracking_generated,omitempty"`
}
