package timetable

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/i18n"
	"github.com/goodsign/monday"
)

// DefaultTimezone applies when neither the venue nor the configuration names
// a loadable zone. Server-local time is never used.
const DefaultTimezone = "Europe/Paris"

const (
	dayLayout   = "Monday 2"
	monthLayout = "January 2006"
	slotLayout  = "15:04"
)

var timingLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z0700",
}

// Slot is one formatted occurrence.
type Slot struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

// Day groups the slots falling on one calendar day.
type Day struct {
	Label string `json:"label"`
	Slots []Slot `json:"slots"`
}

// Week groups days by ISO week number.
type Week struct {
	Number int   `json:"number"`
	Days   []Day `json:"days"`
}

// Month groups weeks by month label.
type Month struct {
	Label string `json:"label"`
	Weeks []Week `json:"weeks"`
}

// Options selects the fallback timezone and the label language.
type Options struct {
	Timezone string
	Language string
}

// Build groups the event timings into months, weeks and days, formatted in
// the venue timezone. Timings missing a bound or failing to parse are
// skipped. A week or month change also closes the open day.
func Build(event *domain.Event, opts Options) []Month {
	if event == nil {
		return nil
	}
	loc := resolveLocation(event.Timezone(), opts.Timezone)
	locale := mondayLocale(opts.Language)

	var (
		months []Month
		month  *Month
		week   *Week
		day    *Day
	)
	flushDay := func() {
		if day != nil {
			week.Days = append(week.Days, *day)
			day = nil
		}
	}
	flushWeek := func() {
		flushDay()
		if week != nil {
			month.Weeks = append(month.Weeks, *week)
			week = nil
		}
	}
	flushMonth := func() {
		flushWeek()
		if month != nil {
			months = append(months, *month)
			month = nil
		}
	}

	for _, timing := range event.Timings {
		begin, end, ok := parseTiming(timing)
		if !ok {
			continue
		}
		begin, end = begin.In(loc), end.In(loc)

		dayLabel := monday.Format(begin, dayLayout, locale)
		monthLabel := monday.Format(begin, monthLayout, locale)
		_, weekNumber := begin.ISOWeek()

		if month != nil && month.Label != monthLabel {
			flushMonth()
		}
		if week != nil && week.Number != weekNumber {
			flushWeek()
		}
		if day != nil && day.Label != dayLabel {
			flushDay()
		}

		if month == nil {
			month = &Month{Label: monthLabel}
		}
		if week == nil {
			week = &Week{Number: weekNumber}
		}
		if day == nil {
			day = &Day{Label: dayLabel}
		}
		day.Slots = append(day.Slots, Slot{
			Begin: begin.Format(slotLayout),
			End:   end.Format(slotLayout),
		})
	}
	flushMonth()
	return months
}

func parseTiming(timing domain.Timing) (time.Time, time.Time, bool) {
	begin, ok := parseTime(timing.Begin)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := parseTime(timing.End)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return begin, end, true
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timingLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func resolveLocation(candidates ...string) *time.Location {
	for _, name := range append(candidates, DefaultTimezone) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

func mondayLocale(lang string) monday.Locale {
	switch i18n.Normalize(lang) {
	case "fr":
		return monday.LocaleFrFR
	case "de":
		return monday.LocaleDeDE
	case "es":
		return monday.LocaleEsES
	case "it":
		return monday.LocaleItIT
	default:
		return monday.LocaleEnUS
	}
}
