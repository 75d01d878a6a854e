package handler

import (
	"time"

	"registrar/internal/registration/models"
	"registrar/pkg/certno"
)

// NumberResponse is the structured certificate number in responses.
// Optional fields are omitted when absent, mirroring the compact encoding.
type NumberResponse struct {
	Book         string `json:"book"`
	Volume       string `json:"volume"`
	VolumeLetter string `json:"volume_letter,omitempty"`
	VolumeYear   string `json:"volume_year,omitempty"`
	Serial       string `json:"serial"`
	SerialYear   string `json:"serial_year,omitempty"`
	Page         string `json:"page"`
}

// RegistrationResponse is the HTTP shape of a registration record.
type RegistrationResponse struct {
	ID           string         `json:"id"`
	Reference    string         `json:"reference"`
	Number       NumberResponse `json:"number"`
	Encoded      string         `json:"encoded"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// PreviewResponse is the HTTP response for POST /certificates/preview.
type PreviewResponse struct {
	Encoded  string `json:"encoded"`
	Complete bool   `json:"complete"`
}

// VerificationResponse is the HTTP response for GET /certificates/{number}.
type VerificationResponse struct {
	Input        string                `json:"input"`
	Format       string                `json:"format"`
	Number       NumberResponse        `json:"number"`
	Canonical    string                `json:"canonical,omitempty"`
	Defaulted    bool                  `json:"defaulted"`
	Registered   bool                  `json:"registered"`
	Registration *RegistrationResponse `json:"registration,omitempty"`
}

// FromNumber converts a certificate number to its response shape.
func FromNumber(n certno.Number) NumberResponse {
	return NumberResponse{
		Book:         n.Book,
		Volume:       n.Volume,
		VolumeLetter: n.VolumeLetter,
		VolumeYear:   n.VolumeYear,
		Serial:       n.Serial,
		SerialYear:   n.SerialYear,
		Page:         n.Page,
	}
}

// FromRegistration converts a registration to its response shape.
func FromRegistration(reg *models.Registration) *RegistrationResponse {
	return &RegistrationResponse{
		ID:           reg.ID.String(),
		Reference:    reg.Reference.String(),
		Number:       FromNumber(reg.Number),
		Encoded:      reg.Encoded,
		RegisteredAt: reg.RegisteredAt,
	}
}

// FromVerification converts a verification outcome to its response shape.
func FromVerification(v *models.Verification) *VerificationResponse {
	resp := &VerificationResponse{
		Input:      v.Input,
		Format:     v.Format.String(),
		Number:     FromNumber(v.Number),
		Canonical:  v.Canonical,
		Defaulted:  v.Defaulted,
		Registered: v.Registered,
	}
	if v.Registration != nil {
		resp.Registration = FromRegistration(v.Registration)
	}
	return resp
}
