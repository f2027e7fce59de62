// Package export writes the resolved episodes of a show to formats other
// than RSS.
package export

import (
	"errors"
	"fmt"
	"strings"

	"podcast_syncer/internal/domain"
)

type Format string

const (
	FormatOPML Format = "opml"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatOPML:
		return FormatOPML, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension is the conventional file suffix for f.
func (f Format) Extension() string {
	return "." + string(f)
}

// Render encodes the resolved episodes of snap in format f.
func Render(f Format, snap *domain.Snapshot, ch domain.Channel) ([]byte, error) {
	switch f {
	case FormatOPML:
		return OPML(snap, ch)
	case FormatXLSX:
		return XLSX(snap)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}
