// Package service orchestrates certificate number assignment and
// verification. It owns no number semantics itself; pkg/certno is the
// authority on encoding and the store's unique index is the authority on
// uniqueness. Everything here is sequencing: validate, check, persist,
// audit, count.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"registrar/internal/registration/metrics"
	"registrar/internal/registration/models"
	"registrar/pkg/certno"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

var tracer = otel.Tracer("registrar/internal/registration/service")

// Store is the registration persistence the service depends on.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, regID id.RegistrationID) (*models.Registration, error)
	FindByNumber(ctx context.Context, encoded string) (*models.Registration, error)
	FindByReference(ctx context.Context, ref id.Reference) (*models.Registration, error)
}

// DuplicateChecker reports whether a certificate number is already assigned
// to a different application reference. It is advisory: it shortens the
// window in which a clerk can submit a number that will lose the race, but
// the store's unique index has the final word.
type DuplicateChecker interface {
	IsAssigned(ctx context.Context, encoded string, ref id.Reference) (bool, error)
}

// AuditPublisher records domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TxRunner executes a function inside a database transaction so the
// registration row and its compliance audit events commit together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service assigns certificate numbers to marriage applications and verifies
// presented numbers of any generation.
type Service struct {
	store          Store
	dupes          DuplicateChecker
	txRunner       TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDuplicateChecker installs the advisory pre-insert duplicate check.
func WithDuplicateChecker(checker DuplicateChecker) Option {
	return func(s *Service) {
		s.dupes = checker
	}
}

// WithTxRunner makes Assign transactional. Without it the registration row
// and the audit trail are written independently, which is acceptable only
// for the in-memory store.
func WithTxRunner(runner TxRunner) Option {
	return func(s *Service) {
		s.txRunner = runner
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assign mints a certificate number for a marriage application. The number
// arrives as the seven form fields; assignment validates them, rejects
// numbers already held by another application, persists the registration
// and writes the compliance audit trail in the same transaction.
func (s *Service) Assign(ctx context.Context, req *models.AssignRequest) (*models.Registration, error) {
	ctx, span := tracer.Start(ctx, "registration.assign")
	defer span.End()
	start := time.Now()

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reg, err := models.NewRegistration(id.NewRegistrationID(), req.ParsedReference(), req.Number(), requestcontext.Now(ctx))
	if err != nil {
		// Convert invariant violations to validation errors for API response
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if s.dupes != nil {
		assigned, err := s.dupes.IsAssigned(ctx, reg.Encoded, reg.Reference)
		if err != nil {
			// Advisory check only; the unique index below still protects
			// the invariant.
			s.logWarn(ctx, "duplicate check unavailable", "encoded", reg.Encoded, "error", err)
		} else if assigned {
			return nil, s.rejectDuplicate(ctx, reg)
		}
	}

	if err := s.persist(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, s.rejectDuplicate(ctx, reg)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}

	if s.metrics != nil {
		s.metrics.IncrementAssigned(reg.Number.Book)
		s.metrics.ObserveAssignLatency(time.Since(start))
	}
	s.logInfo(ctx, "certificate number assigned",
		"registration_id", reg.ID.String(),
		"reference", reg.Reference.String(),
		"encoded", reg.Encoded,
	)

	return reg, nil
}

// persist writes the registration and its compliance events. With a
// TxRunner both land in one transaction; a failed audit write rolls the
// registration back, keeping the trail complete by construction.
func (s *Service) persist(ctx context.Context, reg *models.Registration) error {
	write := func(ctx context.Context) error {
		if err := s.store.Create(ctx, reg); err != nil {
			return err
		}
		if err := s.emit(ctx, s.assignmentEvent(ctx, reg, audit.EventRegistrationCreated, "")); err != nil {
			return err
		}
		return s.emit(ctx, s.assignmentEvent(ctx, reg, audit.EventNumberAssigned, ""))
	}

	if s.txRunner == nil {
		return write(ctx)
	}
	return s.txRunner.RunInTx(ctx, write)
}

// rejectDuplicate records the rejection and returns the conflict the caller
// reports to the clerk. Rejection events are best effort; there is no
// transaction to tie them to.
func (s *Service) rejectDuplicate(ctx context.Context, reg *models.Registration) error {
	if s.metrics != nil {
		s.metrics.IncrementDuplicateRejected()
	}
	event := s.assignmentEvent(ctx, reg, audit.EventDuplicateRejected, "certificate number already assigned")
	if err := s.emit(ctx, event); err != nil {
		s.logWarn(ctx, "record duplicate rejection", "encoded", reg.Encoded, "error", err)
	}
	s.logInfo(ctx, "duplicate certificate number rejected",
		"reference", reg.Reference.String(),
		"encoded", reg.Encoded,
	)
	return dErrors.New(dErrors.CodeConflict, "certificate number is already assigned to another application")
}

// Preview renders the compact encoding of a partially filled assignment
// form. An incomplete form previews to the empty string; nothing is
// persisted and nothing is audited.
func (s *Service) Preview(ctx context.Context, req *models.PreviewRequest) (string, error) {
	if req == nil {
		return "", dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	encoded := certno.Encode(req.Number())
	if s.metrics != nil {
		s.metrics.IncrementPreview(encoded != "")
	}
	return encoded, nil
}

// Verify checks a presented certificate number of any generation. It never
// fails on malformed input: the decoder degrades to defaults and the result
// reports that instead. Only infrastructure failures surface as errors.
func (s *Service) Verify(ctx context.Context, raw string) (*models.Verification, error) {
	ctx, span := tracer.Start(ctx, "registration.verify")
	defer span.End()

	input := certno.Normalize(raw)
	number := certno.Decode(input)

	verification := &models.Verification{
		Input:     input,
		Format:    certno.DetectFormat(input),
		Number:    number,
		Defaulted: number.IsDefault(),
	}
	span.SetAttributes(attribute.String("certno.format", verification.Format.String()))
	if !verification.Defaulted {
		verification.Canonical = certno.Encode(number)
	}

	if verification.Canonical != "" {
		reg, err := s.store.FindByNumber(ctx, verification.Canonical)
		switch {
		case err == nil:
			verification.Registered = true
			verification.Registration = reg
		case errors.Is(err, sentinel.ErrNotFound):
			// Decodable but never assigned.
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up certificate number")
		}
	}

	s.recordVerification(ctx, verification)
	return verification, nil
}

func (s *Service) recordVerification(ctx context.Context, v *models.Verification) {
	outcome := "unregistered"
	switch {
	case v.Defaulted:
		outcome = "defaulted"
	case v.Registered:
		outcome = "registered"
	}
	if s.metrics != nil {
		s.metrics.IncrementVerification(v.Format.String(), outcome)
		if v.Defaulted {
			s.metrics.IncrementDecodeDefaulted()
		}
	}

	event := audit.Event{
		Number: v.Input,
		Format: v.Format.String(),
		Action: string(audit.EventCertificateVerified),
		Reason: outcome,
	}
	if v.Registration != nil {
		event.Reference = v.Registration.Reference
		event.Subject = v.Registration.ID.String()
	}
	s.stampRequest(ctx, &event)
	if err := s.emit(ctx, event); err != nil {
		s.logWarn(ctx, "record verification", "number", v.Input, "error", err)
	}

	if v.Defaulted {
		defaultedEvent := audit.Event{
			Number: v.Input,
			Format: v.Format.String(),
			Action: string(audit.EventDecodeDefaulted),
			Reason: "decode degraded to defaults",
		}
		s.stampRequest(ctx, &defaultedEvent)
		if err := s.emit(ctx, defaultedEvent); err != nil {
			s.logWarn(ctx, "record defaulted decode", "number", v.Input, "error", err)
		}
	}
}

// Get returns the registration with the given ID.
func (s *Service) Get(ctx context.Context, regID id.RegistrationID) (*models.Registration, error) {
	reg, err := s.store.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return reg, nil
}

// GetByNumber returns the registration holding a presented certificate
// number of any generation. Input that decodes to defaults or to an
// incomplete number cannot identify a registration and reports not found.
func (s *Service) GetByNumber(ctx context.Context, raw string) (*models.Registration, error) {
	number := certno.Decode(raw)
	if number.IsDefault() {
		return nil, dErrors.New(dErrors.CodeNotFound, "certificate number is not recognized")
	}
	canonical := certno.Encode(number)
	if canonical == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "certificate number is incomplete")
	}

	reg, err := s.store.FindByNumber(ctx, canonical)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate number is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return reg, nil
}

// assignmentEvent builds the audit event shape shared by the assignment
// paths.
func (s *Service) assignmentEvent(ctx context.Context, reg *models.Registration, action audit.AuditEvent, reason string) audit.Event {
	event := audit.Event{
		Reference: reg.Reference,
		Subject:   reg.ID.String(),
		Number:    reg.Encoded,
		Action:    string(action),
		Reason:    reason,
	}
	s.stampRequest(ctx, &event)
	return event
}

func (s *Service) stampRequest(ctx context.Context, event *audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}
