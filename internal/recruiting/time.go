package recruiting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// The backend emits naive ISO-8601 timestamps; those are treated as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Time is a backend timestamp. A value in an unknown layout decodes to the
// zero time and keeps its original text in Unparsed.
type Time struct {
	time.Time
	unparsed string
}

// Unparsed returns the raw value that could not be parsed, or "".
func (t Time) Unparsed() string {
	return t.unparsed
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// ParseTime parses a backend timestamp in any of the accepted layouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", s)
}

func (t *Time) UnmarshalJSON(data []byte) error {
	*t = Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.unparsed = string(data)
		return nil
	}

	if raw == "" {
		return nil
	}

	parsed, err := ParseTime(raw)
	if err != nil {
		t.unparsed = raw
		return nil
	}
	t.Time = parsed
	return nil
}

// timestamped is implemented by entities that carry backend timestamps.
type timestamped interface {
	timestamps() map[string]Time
}

// warnUnparsedTimes logs every timestamp in items that decoded to zero
// because its layout was not recognised.
func warnUnparsedTimes[T timestamped](logger *zap.Logger, op string, items ...T) {
	for _, item := range items {
		for field, ts := range item.timestamps() {
			if ts.unparsed == "" {
				continue
			}
			logger.Warn("unparsed timestamp treated as absent",
				zap.String("op", op),
				zap.String("field", field),
				zap.String("value", ts.unparsed),
			)
		}
	}
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// OrZero returns the wrapped time or the zero time for a nil pointer.
func (t *Time) OrZero() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}
