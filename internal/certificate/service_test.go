package certificate

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"registrar/pkg/certno"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	auditmemory "registrar/pkg/platform/audit/store/memory"
)

type CertificateServiceSuite struct {
	suite.Suite
	service    *Service
	auditStore *auditmemory.InMemoryStore
}

func TestCertificateServiceSuite(t *testing.T) {
	suite.Run(t, new(CertificateServiceSuite))
}

func (s *CertificateServiceSuite) SetupTest() {
	s.auditStore = auditmemory.NewInMemoryStore()
	s.service = New(
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
}

func (s *CertificateServiceSuite) auditActions() []string {
	events, err := s.auditStore.ListAll(context.Background())
	s.Require().NoError(err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

// ============================================================================
// Fields
// ============================================================================

func (s *CertificateServiceSuite) TestFields() {
	s.Run("renders a compact number", func() {
		f := s.service.Fields(context.Background(), "WBMSDBRWI1C202416202521")

		s.Equal(certno.Number{
			Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024",
			Serial: "16", SerialYear: "2025", Page: "21",
		}, f.Number)
		s.Equal(certno.FormatCompact, f.Format)
		s.False(f.Defaulted)
		s.Equal("Volume 1-C/2024, Serial 16/2025, Page 21", f.Display)
		s.Equal("WBMSDBRWI1C202416202521", f.Canonical)

		// Already compact, so no canonicalization happened.
		s.Empty(s.auditActions())
	})

	s.Run("renders a fully delimited number", func() {
		s.auditStore.Clear()

		// Hand-entered values arrive in mixed case with stray whitespace.
		f := s.service.Fields(context.Background(), "  wb-msd-brw-i-1-c-2024-16-2025-21  ")

		s.Equal(certno.FormatDelimited, f.Format)
		s.False(f.Defaulted)
		s.Equal("Volume 1-C/2024, Serial 16/2025, Page 21", f.Display)
		s.Equal("WBMSDBRWI1C202416202521", f.Canonical)

		events, err := s.auditStore.ListAll(context.Background())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventCertificateCanonicalized), events[0].Action)
		s.Equal("WB-MSD-BRW-I-1-C-2024-16-2025-21", events[0].Number)
		s.Equal("delimited", events[0].Format)
		s.Equal("WBMSDBRWI1C202416202521", events[0].Reason)
	})

	s.Run("renders a delimited number without year fields", func() {
		f := s.service.Fields(context.Background(), "WB-MSD-BRW-I-5-C-123-45")

		s.Equal(certno.Number{
			Book: "I", Volume: "5", VolumeLetter: "C", Serial: "123", Page: "45",
		}, f.Number)
		s.Equal("Volume 5-C, Serial 123, Page 45", f.Display)
		s.Equal("WBMSDBRWI5C12345", f.Canonical)
	})

	s.Run("degrades unreadable input to defaults", func() {
		s.auditStore.Clear()

		f := s.service.Fields(context.Background(), "water damage")

		s.True(f.Defaulted)
		s.Equal(certno.FormatUnknown, f.Format)
		s.Equal(certno.Defaults(), f.Number)
		s.Empty(f.Display)
		s.Empty(f.Canonical)
		s.Empty(s.auditActions())
	})
}

// ============================================================================
// Canonicalize
// ============================================================================

func (s *CertificateServiceSuite) TestCanonicalize() {
	s.Run("recodes a legacy number", func() {
		canonical, ok := s.service.Canonicalize(context.Background(), "WB-MSD-BRW-I-1-C-2024-16-21")

		s.True(ok)
		s.Equal("WBMSDBRWI1C20241621", canonical)
		s.Equal([]string{string(audit.EventCertificateCanonicalized)}, s.auditActions())
	})

	s.Run("passes an already compact number through", func() {
		s.auditStore.Clear()

		canonical, ok := s.service.Canonicalize(context.Background(), "WBMSDBRWI1C202416202521")

		s.True(ok)
		s.Equal("WBMSDBRWI1C202416202521", canonical)
		s.Empty(s.auditActions())
	})

	s.Run("refuses a number whose compact spelling reads back differently", func() {
		s.auditStore.Clear()

		// {volume 1-C, serial 16/2025, page 21} would compact to
		// WBMSDBRWI1C16202521, which splits as serial 16202, page 521.
		canonical, ok := s.service.Canonicalize(context.Background(), "WB-MSD-BRW-I-1-C-16-2025-21")

		s.False(ok)
		s.Empty(canonical)
		s.Empty(s.auditActions())
	})

	s.Run("refuses undecodable input", func() {
		canonical, ok := s.service.Canonicalize(context.Background(), "smudged beyond reading")

		s.False(ok)
		s.Empty(canonical)
	})
}

// ============================================================================
// Display
// ============================================================================

func TestDisplay(t *testing.T) {
	tests := []struct {
		name   string
		number certno.Number
		want   string
	}{
		{
			name: "all fields",
			number: certno.Number{
				Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024",
				Serial: "16", SerialYear: "2025", Page: "21",
			},
			want: "Volume 1-C/2024, Serial 16/2025, Page 21",
		},
		{
			name:   "no optional fields",
			number: certno.Number{Book: "II", Volume: "5", Serial: "123", Page: "45"},
			want:   "Volume 5, Serial 123, Page 45",
		},
		{
			name:   "volume year without letter",
			number: certno.Number{Book: "I", Volume: "3", VolumeYear: "1998", Serial: "7", Page: "12"},
			want:   "Volume 3/1998, Serial 7, Page 12",
		},
		{
			name:   "serial year only",
			number: certno.Number{Book: "I", Volume: "2", VolumeLetter: "B", Serial: "88", SerialYear: "1990", Page: "3"},
			want:   "Volume 2-B, Serial 88/1990, Page 3",
		},
		{
			name:   "defaulted number renders nothing",
			number: certno.Defaults(),
			want:   "",
		},
		{
			name:   "incomplete number renders nothing",
			number: certno.Number{Book: "I", Volume: "1"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.number); got != tt.want {
				t.Errorf("Display(%+v) = %q, want %q", tt.number, got, tt.want)
			}
		})
	}
}
