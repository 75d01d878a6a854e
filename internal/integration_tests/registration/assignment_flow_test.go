package registration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/certificate"
	"registrar/internal/dupcheck"
	httpapi "registrar/internal/http"
	"registrar/internal/registration/handler"
	"registrar/internal/registration/models"
	"registrar/internal/registration/service"
	"registrar/internal/registration/store"
	id "registrar/pkg/domain"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	auditmemory "registrar/pkg/platform/audit/store/memory"
	"registrar/pkg/testutil"
)

// newStack wires the full request path the way cmd/server does, on memory
// stores: router middleware, both feature handlers, a synchronous audit
// publisher. Each test gets its own stack so trails do not bleed.
func newStack(t *testing.T) (http.Handler, *auditmemory.InMemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	regStore := store.NewInMemoryStore()
	auditStore := auditmemory.NewInMemoryStore()
	auditPublisher := publisher.NewPublisher(auditStore)

	regService := service.New(regStore,
		service.WithLogger(logger),
		service.WithAuditPublisher(auditPublisher),
		service.WithDuplicateChecker(dupcheck.NewStoreChecker(regStore)),
	)
	certService := certificate.New(
		certificate.WithLogger(logger),
		certificate.WithAuditPublisher(auditPublisher),
	)

	router := httpapi.New(logger, nil, 5*time.Second,
		handler.New(regService, logger),
		certificate.NewHandler(certService, logger),
	)
	return router, auditStore
}

func auditActions(t *testing.T, auditStore *auditmemory.InMemoryStore) []string {
	t.Helper()
	events, err := auditStore.ListAll(context.Background())
	require.NoError(t, err)
	actions := make([]string, 0, len(events))
	for _, event := range events {
		actions = append(actions, event.Action)
	}
	return actions
}

func TestAssignmentFlow(t *testing.T) {
	router, auditStore := newStack(t)

	form := models.AssignRequest{
		Reference:    "APP-2024-000123",
		Book:         "I",
		Volume:       "1",
		VolumeLetter: "C",
		VolumeYear:   "2024",
		Serial:       "16",
		SerialYear:   "2025",
		Page:         "21",
	}

	testutil.Given(t, "a marriage application awaiting its certificate number", func(t *testing.T) {
		testutil.When(t, "the clerk previews the completed form", func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/certificates/preview", form))

			testutil.Then(t, "the compact number is shown", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusOK)
				preview := testutil.UnmarshalResponse[handler.PreviewResponse](t, rec)
				assert.Equal(t, "WBMSDBRWI1C202416202521", preview.Encoded)
				assert.True(t, preview.Complete)
			})

			testutil.Then(t, "nothing is persisted or audited yet", func(t *testing.T) {
				assert.Empty(t, auditActions(t, auditStore))
			})
		})

		testutil.When(t, "the clerk submits the assignment", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/registrations", form)
			req.Header.Set("X-Request-ID", "front-desk-17")
			rec := testutil.DoRequest(router, req)

			testutil.AssertStatus(t, rec, http.StatusCreated)
			created := testutil.UnmarshalResponse[handler.RegistrationResponse](t, rec)
			require.Equal(t, "WBMSDBRWI1C202416202521", created.Encoded)

			testutil.Then(t, "the registration is retrievable by ID", func(t *testing.T) {
				rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/registrations/"+created.ID))
				testutil.AssertStatus(t, rec, http.StatusOK)
				testutil.AssertJSONContains(t, rec, "reference", "APP-2024-000123")
			})

			testutil.Then(t, "the legacy spelling verifies as registered", func(t *testing.T) {
				rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/certificates/WB-MSD-BRW-I-1-C-2024-16-2025-21"))
				testutil.AssertStatus(t, rec, http.StatusOK)
				verification := testutil.UnmarshalResponse[handler.VerificationResponse](t, rec)
				assert.Equal(t, "delimited", verification.Format)
				assert.True(t, verification.Registered)
				assert.Equal(t, created.Encoded, verification.Canonical)
				require.NotNil(t, verification.Registration)
				assert.Equal(t, created.ID, verification.Registration.ID)
			})

			testutil.Then(t, "the certificate fields render from the legacy spelling", func(t *testing.T) {
				rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/certificates/WB-MSD-BRW-I-1-C-2024-16-2025-21/fields"))
				testutil.AssertStatus(t, rec, http.StatusOK)
				testutil.AssertJSONContains(t, rec, "canonical", created.Encoded)
				testutil.AssertJSONContains(t, rec, "display", "Volume 1-C/2024, Serial 16/2025, Page 21")
			})

			testutil.Then(t, "the audit trail ties every step to the application", func(t *testing.T) {
				ref, err := id.ParseReference(form.Reference)
				require.NoError(t, err)
				events, err := auditStore.ListByReference(context.Background(), ref)
				require.NoError(t, err)

				actions := make([]string, 0, len(events))
				for _, event := range events {
					actions = append(actions, event.Action)
				}
				assert.Equal(t, []string{
					string(audit.EventRegistrationCreated),
					string(audit.EventNumberAssigned),
					string(audit.EventCertificateVerified),
				}, actions)
				assert.Equal(t, "front-desk-17", events[0].RequestID)
				assert.NotEmpty(t, events[0].ClientIP)
			})
		})
	})
}

func TestDuplicateAssignmentFlow(t *testing.T) {
	router, auditStore := newStack(t)

	form := models.AssignRequest{
		Reference: "APP-2024-000123",
		Book:      "I", Volume: "5", VolumeLetter: "C",
		Serial: "123", Page: "45",
	}
	rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/registrations", form))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	testutil.Given(t, "a certificate number already assigned", func(t *testing.T) {
		testutil.When(t, "another application claims the same number", func(t *testing.T) {
			form.Reference = "APP-2024-000777"
			rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/registrations", form))

			testutil.Then(t, "the assignment is rejected as a conflict", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
			})

			testutil.Then(t, "the rejection lands on the security trail", func(t *testing.T) {
				assert.Contains(t, auditActions(t, auditStore), string(audit.EventDuplicateRejected))
			})
		})

		testutil.When(t, "the same application resubmits its own number", func(t *testing.T) {
			// Same reference, same number: not a duplicate held by someone
			// else, but the unique index still refuses a second row.
			form.Reference = "APP-2024-000123"
			rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/registrations", form))
			testutil.AssertStatus(t, rec, http.StatusConflict)
		})
	})
}

func TestVerifyDegradesGracefully(t *testing.T) {
	router, auditStore := newStack(t)

	rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/certificates/WATER-DAMAGED"))

	testutil.AssertStatus(t, rec, http.StatusOK)
	verification := testutil.UnmarshalResponse[handler.VerificationResponse](t, rec)
	assert.True(t, verification.Defaulted)
	assert.False(t, verification.Registered)
	assert.Equal(t, "unknown", verification.Format)
	assert.Equal(t, "I", verification.Number.Book)

	actions := auditActions(t, auditStore)
	assert.Contains(t, actions, string(audit.EventCertificateVerified))
	assert.Contains(t, actions, string(audit.EventDecodeDefaulted))
}
