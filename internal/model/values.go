package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a backend identifier. The backend sends numbers, some routes strings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Flag is the backend's 0/1 boolean column.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(b)), `"`) {
	case "1", "true":
		*f = true
	case "0", "false", "null", "":
		*f = false
	default:
		return fmt.Errorf("flag: unexpected value %s", b)
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(f.Int())), nil
}

func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}

const civilLayout = "2006-01-02"

// wallLayouts carry no offset; they are read as wall clock time of the
// viewer's location.
var wallLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Date is an appointment or trend date. A date-only value is a calendar day
// and is never moved between zones. A timestamp with an offset is an
// instant; one without is wall clock time wherever it is viewed.
type Date struct {
	time.Time
	DateOnly bool
	Wall     bool
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(civilLayout, s); err == nil {
		return Date{Time: t, DateOnly: true}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Date{Time: t}, nil
	}
	for _, layout := range wallLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Wall: true}, nil
		}
	}
	return Date{}, fmt.Errorf("date: cannot parse %q", s)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	switch {
	case d.DateOnly:
		return json.Marshal(d.Format(civilLayout))
	case d.Wall:
		return json.Marshal(d.Format(wallLayouts[0]))
	}
	return json.Marshal(d.Format(time.RFC3339))
}

// Day returns the calendar day as seen from loc.
func (d Date) Day(loc *time.Location) (int, time.Month, int) {
	if d.DateOnly || d.Wall {
		return d.Date()
	}
	return d.In(loc).Date()
}

// Instant places the date on the timeline; a calendar day starts at
// midnight in loc and wall clock time is read in loc.
func (d Date) Instant(loc *time.Location) time.Time {
	switch {
	case d.DateOnly:
		y, m, day := d.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, loc)
	case d.Wall:
		y, m, day := d.Date()
		hh, mm, ss := d.Clock()
		return time.Date(y, m, day, hh, mm, ss, d.Nanosecond(), loc)
	}
	return d.Time
}

// Civil formats the calendar day as YYYY-MM-DD.
func (d Date) Civil(loc *time.Location) string {
	if d.IsZero() {
		return ""
	}
	y, m, day := d.Day(loc)
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Format(civilLayout)
}
