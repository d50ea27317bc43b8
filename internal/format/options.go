package format

import "fmt"

// Format selects the record serialization and the file envelope.
type Format int

const (
	XML Format = iota
	CSV
	JSON
	// Raw is accepted by the configuration surface but has no defined
	// serialization; selecting it yields ErrRawNotImplemented.
	Raw
)

func (f Format) String() string {
	switch f {
	case XML:
		return "xml"
	case CSV:
		return "csv"
	case JSON:
		return "json"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat converts a config string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "xml":
		return XML, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "raw":
		return Raw, nil
	default:
		return XML, fmt.Errorf("unknown output format %q", s)
	}
}

// Options is a read-only snapshot of the formatting configuration.
// A snapshot is taken once per serialization call so that a concurrent
// reconfigure can never interleave mid-record.
type Options struct {
	Format Format

	IncludeID        bool
	IncludeDirection bool
	IncludeURL       bool
	IncludeTime      bool
	IncludeData      bool

	// Labels substituted for the two directions. Free-form operator text;
	// commas inside CSV labels are quoted but not otherwise hardened.
	DirectionLabelCS string
	DirectionLabelSC string

	// TimeFormat is a Go reference-time layout.
	TimeFormat string

	// BinaryAsBase64 base64-encodes binary payloads before embedding.
	// Text payloads are never base64-encoded.
	BinaryAsBase64 bool

	// UseCDATA wraps the XML data element content in a CDATA section.
	UseCDATA bool
}

// DefaultOptions mirrors the recorder's startup configuration.
func DefaultOptions() Options {
	return Options{
		Format:           XML,
		IncludeID:        true,
		IncludeDirection: true,
		IncludeURL:       true,
		IncludeTime:      true,
		IncludeData:      true,
		DirectionLabelCS: "C-S",
		DirectionLabelSC: "S-C",
		TimeFormat:       "2006-01-02_15-04-05.000",
		BinaryAsBase64:   true,
		UseCDATA:         true,
	}
}
