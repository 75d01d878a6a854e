package models

import (
	"strings"

	"registrar/pkg/certno"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// Field caps. Digit fields wider than any the registry has ever issued are
// rejected up front instead of being run through the decoder heuristics.
const (
	maxDigitFieldLen   = 9
	maxVolumeLetterLen = 3
)

// AssignRequest is the body for POST /registrations: the seven certificate
// number fields as entered on the assignment form, plus the application
// reference the number is being minted for.
type AssignRequest struct {
	Reference    string `json:"reference"`
	Book         string `json:"book"`
	Volume       string `json:"volume"`
	VolumeLetter string `json:"volume_letter"`
	VolumeYear   string `json:"volume_year"`
	Serial       string `json:"serial"`
	SerialYear   string `json:"serial_year"`
	Page         string `json:"page"`

	// Populated by Validate.
	parsedReference id.Reference
}

func (r *AssignRequest) Normalize() {
	if r == nil {
		return
	}
	r.Reference = strings.TrimSpace(r.Reference)
	normalizeNumberFields(&r.Book, &r.Volume, &r.VolumeLetter, &r.VolumeYear, &r.Serial, &r.SerialYear, &r.Page)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *AssignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if err := checkNumberFieldSizes(r.Volume, r.VolumeLetter, r.Serial, r.Page); err != nil {
		return err
	}

	if r.Reference == "" {
		return dErrors.New(dErrors.CodeValidation, "reference is required")
	}
	if r.Volume == "" {
		return dErrors.New(dErrors.CodeValidation, "volume is required")
	}
	if r.Serial == "" {
		return dErrors.New(dErrors.CodeValidation, "serial is required")
	}
	if r.Page == "" {
		return dErrors.New(dErrors.CodeValidation, "page is required")
	}

	ref, err := id.ParseReference(r.Reference)
	if err != nil {
		return err
	}
	r.parsedReference = ref

	if err := checkNumberFieldSyntax(r.Book, r.Volume, r.VolumeLetter, r.VolumeYear, r.Serial, r.SerialYear, r.Page); err != nil {
		return err
	}

	// The compact form writes no separators, so some field-length
	// combinations read back differently than they were entered. The decoder
	// is the authority on which combinations are safe: refuse to mint any
	// number that does not survive its own round trip.
	number := r.Number()
	if number.Book == "" {
		number.Book = certno.DefaultBook
	}
	if certno.Decode(certno.Encode(number)) != number {
		return dErrors.New(dErrors.CodeValidation, "certificate number fields are ambiguous in the compact form")
	}

	return nil
}

// ParsedReference returns the validated application reference.
func (r *AssignRequest) ParsedReference() id.Reference {
	return r.parsedReference
}

// Number assembles the request fields into a certificate number value.
func (r *AssignRequest) Number() certno.Number {
	return certno.Number{
		Book:         r.Book,
		Volume:       r.Volume,
		VolumeLetter: r.VolumeLetter,
		VolumeYear:   r.VolumeYear,
		Serial:       r.Serial,
		SerialYear:   r.SerialYear,
		Page:         r.Page,
	}
}

// PreviewRequest is the body for POST /certificates/preview. The form sends
// it on every keystroke, so absent fields are normal, not an error; only
// fields that are present must hold well-formed values. An incomplete
// request previews to the empty string.
type PreviewRequest struct {
	Book         string `json:"book"`
	Volume       string `json:"volume"`
	VolumeLetter string `json:"volume_letter"`
	VolumeYear   string `json:"volume_year"`
	Serial       string `json:"serial"`
	SerialYear   string `json:"serial_year"`
	Page         string `json:"page"`
}

func (r *PreviewRequest) Normalize() {
	if r == nil {
		return
	}
	normalizeNumberFields(&r.Book, &r.Volume, &r.VolumeLetter, &r.VolumeYear, &r.Serial, &r.SerialYear, &r.Page)
}

// Follows validation order: Size -> Syntax -> Semantic. Nothing is required.
func (r *PreviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := checkNumberFieldSizes(r.Volume, r.VolumeLetter, r.Serial, r.Page); err != nil {
		return err
	}
	return checkNumberFieldSyntax(r.Book, r.Volume, r.VolumeLetter, r.VolumeYear, r.Serial, r.SerialYear, r.Page)
}

// Number assembles the request fields into a certificate number value.
func (r *PreviewRequest) Number() certno.Number {
	return certno.Number{
		Book:         r.Book,
		Volume:       r.Volume,
		VolumeLetter: r.VolumeLetter,
		VolumeYear:   r.VolumeYear,
		Serial:       r.Serial,
		SerialYear:   r.SerialYear,
		Page:         r.Page,
	}
}

func normalizeNumberFields(book, volume, letter, volumeYear, serial, serialYear, page *string) {
	*book = strings.ToUpper(strings.TrimSpace(*book))
	*volume = strings.TrimSpace(*volume)
	*letter = strings.ToUpper(strings.TrimSpace(*letter))
	*volumeYear = strings.TrimSpace(*volumeYear)
	*serial = strings.TrimSpace(*serial)
	*serialYear = strings.TrimSpace(*serialYear)
	*page = strings.TrimSpace(*page)
}

func checkNumberFieldSizes(volume, letter, serial, page string) error {
	if len(volume) > maxDigitFieldLen {
		return dErrors.New(dErrors.CodeValidation, "volume must be at most 9 digits")
	}
	if len(letter) > maxVolumeLetterLen {
		return dErrors.New(dErrors.CodeValidation, "volume_letter must be at most 3 letters")
	}
	if len(serial) > maxDigitFieldLen {
		return dErrors.New(dErrors.CodeValidation, "serial must be at most 9 digits")
	}
	if len(page) > maxDigitFieldLen {
		return dErrors.New(dErrors.CodeValidation, "page must be at most 9 digits")
	}
	return nil
}

// checkNumberFieldSyntax validates the shape of every populated field.
// Empty optional fields are legal here; required-ness is the caller's rule.
func checkNumberFieldSyntax(book, volume, letter, volumeYear, serial, serialYear, page string) error {
	if book != "" && !certno.IsBookNumeral(book) {
		return dErrors.New(dErrors.CodeValidation, "book must be a canonical numeral I through L")
	}
	if volume != "" && !isDigits(volume) {
		return dErrors.New(dErrors.CodeValidation, "volume must contain only digits")
	}
	if letter != "" && !isLetters(letter) {
		return dErrors.New(dErrors.CodeValidation, "volume_letter must contain only letters")
	}
	if volumeYear != "" && !certno.IsPlausibleYear(volumeYear) {
		return dErrors.New(dErrors.CodeValidation, "volume_year must be a four-digit year between 1900 and 2099")
	}
	if serial != "" && !isDigits(serial) {
		return dErrors.New(dErrors.CodeValidation, "serial must contain only digits")
	}
	if serialYear != "" && !certno.IsPlausibleYear(serialYear) {
		return dErrors.New(dErrors.CodeValidation, "serial_year must be a four-digit year between 1900 and 2099")
	}
	if page != "" && !isDigits(page) {
		return dErrors.New(dErrors.CodeValidation, "page must contain only digits")
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return len(s) > 0
}
