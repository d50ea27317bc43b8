package format

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/tracewire-systems/wsrecorder/internal/models"
)

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// serializeXML emits one <wsmessage> element with one child per enabled
// inclusion flag, always in the order id, direction, url, time, data.
func serializeXML(ev models.Event, opts Options) string {
	var sb strings.Builder
	sb.WriteString("<wsmessage>")
	if opts.IncludeID {
		sb.WriteString("<id>")
		sb.WriteString(strconv.FormatInt(ev.ConnectionID, 10))
		sb.WriteString("</id>")
	}
	if opts.IncludeDirection {
		sb.WriteString("<direction>")
		sb.WriteString(directionLabel(ev, opts))
		sb.WriteString("</direction>")
	}
	if opts.IncludeURL {
		sb.WriteString("<url>")
		sb.WriteString(ev.ConnectionURL)
		sb.WriteString("</url>")
	}
	if opts.IncludeTime {
		sb.WriteString("<time>")
		sb.WriteString(formatTime(ev.Timestamp, opts))
		sb.WriteString("</time>")
	}
	if opts.IncludeData {
		text, b64 := payloadText(ev, opts)
		if b64 {
			sb.WriteString(`<data fmt="base64">`)
		} else {
			sb.WriteString("<data>")
		}
		if opts.UseCDATA {
			sb.WriteString("<![CDATA[")
		}
		sb.WriteString(text)
		if opts.UseCDATA {
			sb.WriteString("]]>")
		}
		sb.WriteString("</data>")
	}
	sb.WriteString("</wsmessage>")
	return sb.String()
}

func formatTime(t time.Time, opts Options) string {
	return t.Format(opts.TimeFormat)
}
