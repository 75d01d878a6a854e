// Package certificate renders stored certificate numbers for display and
// migration. It is the decode-side collaborator: registration mints
// numbers, this package makes sense of the ones already out there,
// whatever generation they were issued in.
package certificate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"registrar/pkg/certno"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/requestcontext"
)

var (
	fieldsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_certificate_fields_total",
		Help: "Certificate field renderings by detected format",
	}, []string{"format"})

	canonicalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registrar_certificates_canonicalized_total",
		Help: "Legacy certificate numbers recoded to the compact form",
	})
)

// Fields is the renderable form of a stored certificate number. Decode is
// total, so Fields exists for any input; Defaulted marks the ones that
// carried no usable value.
type Fields struct {
	Number    certno.Number
	Format    certno.Format
	Display   string
	Canonical string
	Defaulted bool
}

// AuditPublisher records domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service decodes and renders certificate numbers.
type Service struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// New constructs a Service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fields decodes a stored number of any generation into its renderable
// form. Legacy inputs pick up their compact re-encoding on the way.
func (s *Service) Fields(ctx context.Context, raw string) Fields {
	input := certno.Normalize(raw)
	number := certno.Decode(input)
	format := certno.DetectFormat(input)

	f := Fields{
		Number:    number,
		Format:    format,
		Defaulted: number.IsDefault(),
		Display:   Display(number),
	}
	if !f.Defaulted {
		f.Canonical, _ = s.Canonicalize(ctx, input)
	}

	fieldsRendered.WithLabelValues(format.String()).Inc()
	return f
}

// Canonicalize re-encodes a stored number of any generation into the
// current compact form. It reports false when the input is not decodable,
// or when the compact spelling would decode to different fields than the
// input carries; migrations skip both kinds and flag them for manual
// review. Recoding a legacy value leaves an operations audit event;
// re-presenting an already compact number is a no-op and leaves none.
func (s *Service) Canonicalize(ctx context.Context, raw string) (string, bool) {
	input := certno.Normalize(raw)
	number := certno.Decode(input)
	if number.IsDefault() {
		return "", false
	}
	canonical := certno.Encode(number)
	if canonical == "" {
		return "", false
	}
	if certno.Decode(canonical) != number {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "legacy number has no faithful compact spelling", "number", input)
		}
		return "", false
	}

	if format := certno.DetectFormat(input); format == certno.FormatDelimited {
		canonicalized.Inc()
		event := audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Number:    input,
			Format:    format.String(),
			Action:    string(audit.EventCertificateCanonicalized),
			Reason:    canonical,
			RequestID: requestcontext.RequestID(ctx),
			ClientIP:  requestcontext.ClientIP(ctx),
		}
		if s.auditPublisher != nil {
			if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "record canonicalization", "number", input, "error", err)
			}
		}
	}

	return canonical, true
}

// Display renders a number the way certificates print it:
// "Volume 1-C/2024, Serial 16/2025, Page 21". Optional fields disappear
// with their punctuation. A defaulted number renders the empty string; the
// caller decides what an unreadable certificate looks like on screen.
func Display(n certno.Number) string {
	if n.IsDefault() || !n.IsComplete() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Volume ")
	b.WriteString(n.Volume)
	if n.VolumeLetter != "" {
		b.WriteString("-")
		b.WriteString(n.VolumeLetter)
	}
	if n.VolumeYear != "" {
		b.WriteString("/")
		b.WriteString(n.VolumeYear)
	}
	fmt.Fprintf(&b, ", Serial %s", n.Serial)
	if n.SerialYear != "" {
		b.WriteString("/")
		b.WriteString(n.SerialYear)
	}
	fmt.Fprintf(&b, ", Page %s", n.Page)
	return b.String()
}
