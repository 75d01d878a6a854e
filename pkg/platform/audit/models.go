package audit

import (
	"time"

	id "registrar/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention (e.g., 7 years).
	// Examples: registration creation, certificate number assignment.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and forensics.
	// These feed into SIEM systems and alerting pipelines.
	// Examples: duplicate number rejections, malformed verification input.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational visibility.
	// These can be sampled or aggregated with shorter retention.
	// Examples: certificate verifications, legacy number canonicalization.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Reference is the citizen application reference the event concerns.
	// Empty for anonymous verification traffic.
	Reference id.Reference
	// Subject identifies the entity acted on, typically a registration ID.
	Subject string
	// Number is the certificate number involved, in the form it was
	// presented. For verification events this is the caller's raw input
	// after normalization, not the canonical re-encoding.
	Number string
	// Format is the detected certificate number format for verification
	// and canonicalization events: "delimited", "compact" or "unknown".
	Format    string
	Action    string
	Reason    string
	RequestID string
	ClientIP  string
}

type AuditEvent string

const (
	// Registration events
	EventRegistrationCreated AuditEvent = "registration_created"
	EventNumberAssigned      AuditEvent = "number_assigned"
	EventDuplicateRejected   AuditEvent = "duplicate_rejected"

	// Certificate events
	EventCertificateVerified      AuditEvent = "certificate_verified"
	EventCertificateCanonicalized AuditEvent = "certificate_canonicalized"
	EventDecodeDefaulted          AuditEvent = "certificate_decode_defaulted"
)

// eventCategories maps each audit event to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: security monitoring, SIEM integration, alerting.
// Operations: debugging, operational visibility, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - require tamper-proof storage. Number assignment
	// is the legally binding act, so both sides of it are compliance.
	EventRegistrationCreated: CategoryCompliance,
	EventNumberAssigned:      CategoryCompliance,

	// Security events - feed into SIEM and alerting
	EventDuplicateRejected: CategorySecurity,
	EventDecodeDefaulted:   CategorySecurity,

	// Operations events - routine activity, can be sampled
	EventCertificateVerified:      CategoryOperations,
	EventCertificateCanonicalized: CategoryOperations,
}

// Category returns the category for this audit event.
// Defaults to operations for unknown events.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
