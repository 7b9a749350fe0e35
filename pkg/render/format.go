package render

import (
	"slices"
	"strings"

	errs "github.com/matzehuels/collage/pkg/errors"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatSVG, FormatPDF}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format %q: must be one of %s", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that every format is supported.
func ValidateFormats(formats []string) error {
	if len(formats) == 0 {
		return errs.New(errs.ErrCodeInvalidFormat, "no output format given")
	}
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks and
// dropping duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	if err := ValidateFormats(out); err != nil {
		return nil, err
	}
	return out, nil
}
