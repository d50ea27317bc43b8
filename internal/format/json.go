package format

import (
	"strconv"
	"strings"

	"github.com/tracewire-systems/wsrecorder/internal/models"
)

// quoteJSON renders a JSON string literal, escaping quotes, backslashes,
// forward slashes and the standard control characters.
func quoteJSON(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '/':
			sb.WriteString(`\/`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// serializeJSON emits one object with a key per enabled flag, in fixed
// order. Every object is followed by a literal comma, including the last
// record before the closing bracket; existing consumers strip it, so the
// behaviour is kept bit-exact.
func serializeJSON(ev models.Event, opts Options) string {
	var sb strings.Builder
	prependComma := false
	sb.WriteByte('{')
	if opts.IncludeID {
		sb.WriteString(`"id":`)
		sb.WriteString(strconv.FormatInt(ev.ConnectionID, 10))
		prependComma = true
	}
	if opts.IncludeDirection {
		if prependComma {
			sb.WriteByte(',')
		}
		sb.WriteString(`"direction":`)
		sb.WriteString(quoteJSON(directionLabel(ev, opts)))
		prependComma = true
	}
	if opts.IncludeURL {
		if prependComma {
			sb.WriteByte(',')
		}
		sb.WriteString(`"url":`)
		sb.WriteString(quoteJSON(ev.ConnectionURL))
		prependComma = true
	}
	if opts.IncludeTime {
		if prependComma {
			sb.WriteByte(',')
		}
		sb.WriteString(`"time":`)
		sb.WriteString(quoteJSON(formatTime(ev.Timestamp, opts)))
		prependComma = true
	}
	if opts.IncludeData {
		if prependComma {
			sb.WriteByte(',')
		}
		text, _ := payloadText(ev, opts)
		sb.WriteString(`"data":`)
		sb.WriteString(quoteJSON(text))
	}
	sb.WriteString("},")
	return sb.String()
}
