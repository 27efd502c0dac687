package event

const AuditQueue string = "core_audit_events"

// AuditEvent is published for every committed state mutation; external
// indexers consume the queue. Failed calls publish nothing.
type AuditEvent struct {
	ID        string         `json:"id"`
	Component string         `json:"component"`
	Action    string         `json:"action"`
	EntityID  string         `json:"entity_id"`
	Actor     string         `json:"actor"`
	Amount    int64          `json:"amount,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

const (
	ComponentPolicy   = "policy-ledger"
	ComponentClaims   = "claims-processor"
	ComponentPool     = "risk-pool"
	ComponentTreasury = "treasury"
)
