package certificate

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registrar/pkg/platform/httputil"
)

// Handler serves the certificate rendering endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the certificate routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/certificates/{number}/fields", h.HandleFields)
}

// FieldsResponse is the wire form of a rendered certificate number. Decode
// is total, so this endpoint always answers 200; defaulted tells the caller
// the input carried nothing usable.
type FieldsResponse struct {
	Format       string `json:"format"`
	Defaulted    bool   `json:"defaulted"`
	Book         string `json:"book,omitempty"`
	Volume       string `json:"volume,omitempty"`
	VolumeLetter string `json:"volume_letter,omitempty"`
	VolumeYear   string `json:"volume_year,omitempty"`
	Serial       string `json:"serial,omitempty"`
	SerialYear   string `json:"serial_year,omitempty"`
	Page         string `json:"page,omitempty"`
	Display      string `json:"display,omitempty"`
	Canonical    string `json:"canonical,omitempty"`
}

func FromFields(f Fields) FieldsResponse {
	return FieldsResponse{
		Format:       f.Format.String(),
		Defaulted:    f.Defaulted,
		Book:         f.Number.Book,
		Volume:       f.Number.Volume,
		VolumeLetter: f.Number.VolumeLetter,
		VolumeYear:   f.Number.VolumeYear,
		Serial:       f.Number.Serial,
		SerialYear:   f.Number.SerialYear,
		Page:         f.Number.Page,
		Display:      f.Display,
		Canonical:    f.Canonical,
	}
}

// HandleFields renders a stored number of any generation into its
// human-readable fields.
func (h *Handler) HandleFields(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "number")
	fields := h.service.Fields(r.Context(), raw)
	httputil.WriteJSON(w, http.StatusOK, FromFields(fields))
}
