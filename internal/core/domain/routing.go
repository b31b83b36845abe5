package domain

type Destination string

const (
	DestOpenPayable      Destination = "open_payable"
	DestClosedPayable    Destination = "closed_payable"
	DestOpenReceivable   Destination = "open_receivable"
	DestClosedReceivable Destination = "closed_receivable"
)

// Destinations lists all four billing destinations in scoring order.
func Destinations() []Destination {
	return []Destination{
		DestOpenPayable,
		DestClosedPayable,
		DestOpenReceivable,
		DestClosedReceivable,
	}
}

// IsOpen reports whether the destination files documents that still owe or
// are owed money.
func (d Destination) IsOpen() bool {
	return d == DestOpenPayable || d == DestOpenReceivable
}

// IsPayable reports whether the destination is on the payable side.
func (d Destination) IsPayable() bool {
	return d == DestOpenPayable || d == DestClosedPayable
}

// DocumentContext is assembled by the processor before routing; scoped to a
// single routing call.
type DocumentContext struct {
	DocumentID       string                  `json:"document_id"`
	DocumentType     DocumentType            `json:"document_type,omitempty"`
	VendorName       string                  `json:"vendor_name,omitempty"`
	CustomerName     string                  `json:"customer_name,omitempty"`
	Amount           *float64                `json:"amount,omitempty"`
	GLAccount        *ClassificationResult   `json:"gl_account,omitempty"`
	PaymentConsensus *PaymentConsensusResult `json:"payment_consensus,omitempty"`
	TenantID         string                  `json:"tenant_id,omitempty"`
}

// RoutingDecision is the terminal artifact of the pipeline for one document.
type RoutingDecision struct {
	DocumentID     string         `json:"document_id"`
	Destination    Destination    `json:"destination"`
	Confidence     float64        `json:"confidence"`
	Reasoning      string         `json:"reasoning"`
	Factors        map[string]any `json:"factors,omitempty"`
	ManualOverride bool           `json:"manual_override"`
}

// RoutingStats is a snapshot of the router's cross-call counters.
type RoutingStats struct {
	TotalRouted   int64                 `json:"total_routed"`
	ByDestination map[Destination]int64 `json:"by_destination"`
	Overrides     int64                 `json:"manual_overrides"`
	Fallbacks     int64                 `json:"fallback_routes"`
}
