package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	prodID     = "-//Alarm Checklist//Reminder Feed//EN"
	uidDomain  = "alarm-checklist"
	eventHour  = 9
	dtFormat   = "20060102T150405Z"
	maxLineLen = 75
)

// Config drives calendar generation. Zero values take documented defaults:
// frequency=monthly, months=12, start=current date.
type Config struct {
	Frequency   string
	Months      int
	Start       time.Time
	Title       string
	Description string
}

// frequency cadence in months; per_manufacturer is absent on purpose since it
// has no defined interval and degrades to a one-time event.
var intervalMonths = map[string]int{
	"monthly":   1,
	"quarterly": 3,
	"annual":    12,
	"10_years":  120,
}

// Generate renders a calendar document with a single event recurring at the
// configured cadence. The result is valid RFC 5545 text: CRLF line endings,
// escaped text values, and lines folded at 75 octets.
func Generate(cfg Config) (string, error) {
	cfg, err := normalize(cfg)
	if err != nil {
		return "", err
	}
	uid := fmt.Sprintf("%s@%s", uuid.NewString(), uidDomain)
	return render(cfg, uid, time.Now().UTC()), nil
}

func normalize(cfg Config) (Config, error) {
	if cfg.Frequency == "" {
		cfg.Frequency = "monthly"
	}
	if _, ok := intervalMonths[cfg.Frequency]; !ok && cfg.Frequency != "per_manufacturer" {
		return Config{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidConfig, cfg.Frequency)
	}
	if cfg.Months == 0 {
		cfg.Months = 12
	}
	if cfg.Months < 1 {
		return Config{}, fmt.Errorf("%w: months must be at least 1", ErrInvalidConfig)
	}
	if cfg.Title == "" {
		cfg.Title = "Test smoke and CO alarms"
	}
	if cfg.Description == "" {
		cfg.Description = "Alarm testing reminder"
	}
	return cfg, nil
}

func render(cfg Config, uid string, stamp time.Time) string {
	start := startTime(cfg.Start, stamp)
	end := start.Add(time.Hour)

	description := cfg.Description
	if cfg.Frequency == "per_manufacturer" {
		description += "\nCheck the manufacturer instructions for the replacement schedule."
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + stamp.Format(dtFormat),
		"DTSTART:" + start.Format(dtFormat),
		"DTEND:" + end.Format(dtFormat),
		"SUMMARY:" + escapeText(cfg.Title),
		"DESCRIPTION:" + escapeText(description),
	}
	if rule := recurrenceRule(cfg); rule != "" {
		lines = append(lines, "RRULE:"+rule)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	var b strings.Builder
	for _, line := range lines {
		for _, folded := range foldLine(line) {
			b.WriteString(folded)
			b.WriteString("\r\n")
		}
	}
	return b.String()
}

func startTime(start, fallback time.Time) time.Time {
	if start.IsZero() {
		start = fallback
	}
	start = start.UTC()
	return time.Date(start.Year(), start.Month(), start.Day(), eventHour, 0, 0, 0, time.UTC)
}

// recurrenceRule maps the frequency to an RRULE bounded by the months window:
// COUNT = months / cadence, minimum 1. per_manufacturer yields no rule.
func recurrenceRule(cfg Config) string {
	interval, ok := intervalMonths[cfg.Frequency]
	if !ok {
		return ""
	}
	count := cfg.Months / interval
	if count < 1 {
		count = 1
	}
	switch cfg.Frequency {
	case "annual":
		return fmt.Sprintf("FREQ=YEARLY;COUNT=%d", count)
	case "10_years":
		return fmt.Sprintf("FREQ=YEARLY;INTERVAL=10;COUNT=%d", count)
	default:
		return fmt.Sprintf("FREQ=MONTHLY;INTERVAL=%d;COUNT=%d", interval, count)
	}
}

// escapeText escapes the characters RFC 5545 reserves in TEXT values.
func escapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case ';':
			b.WriteString(`\;`)
		case ',':
			b.WriteString(`\,`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			// Bare CR is dropped; CRLF in input collapses to the escaped \n.
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// foldLine splits a content line at 75 octets, continuing each overflow line
// with a single leading space. Splits never land inside a UTF-8 sequence.
func foldLine(line string) []string {
	if len(line) <= maxLineLen {
		return []string{line}
	}
	var out []string
	var b strings.Builder
	limit := maxLineLen
	for _, r := range line {
		if b.Len()+len(string(r)) > limit {
			out = append(out, b.String())
			b.Reset()
			b.WriteByte(' ')
			limit = maxLineLen
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
