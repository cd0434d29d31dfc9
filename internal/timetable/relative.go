package timetable

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/i18n"
)

type unit struct {
	seconds          int64
	singular, plural string
}

type phrasing struct {
	future string
	past   string
	units  []unit
}

func units(names ...string) []unit {
	sizes := []int64{31536000, 2592000, 604800, 86400, 3600, 60, 1}
	out := make([]unit, len(sizes))
	for i, size := range sizes {
		out[i] = unit{seconds: size, singular: names[i*2], plural: names[i*2+1]}
	}
	return out
}

var phrasings = map[string]phrasing{
	"en": {future: "In %s", past: "%s ago", units: units(
		"year", "years", "month", "months", "week", "weeks", "day", "days",
		"hour", "hours", "min", "min", "sec", "sec")},
	"fr": {future: "Dans %s", past: "Il y a %s", units: units(
		"an", "ans", "mois", "mois", "semaine", "semaines", "jour", "jours",
		"heure", "heures", "min", "min", "s", "s")},
	"de": {future: "In %s", past: "Vor %s", units: units(
		"Jahr", "Jahren", "Monat", "Monaten", "Woche", "Wochen", "Tag", "Tagen",
		"Stunde", "Stunden", "Min.", "Min.", "Sek.", "Sek.")},
	"es": {future: "En %s", past: "Hace %s", units: units(
		"año", "años", "mes", "meses", "semana", "semanas", "día", "días",
		"hora", "horas", "min", "min", "s", "s")},
	"it": {future: "Tra %s", past: "%s fa", units: units(
		"anno", "anni", "mese", "mesi", "settimana", "settimane", "giorno", "giorni",
		"ora", "ore", "min", "min", "sec", "sec")},
}

// RelativeLabel describes when the event happens relative to now: "In 3 days"
// for the first timing starting after now, "2 days ago" from the end of the
// last timing otherwise, even when that timing's begin is unreadable. Only
// the largest unit is kept. Events without timings, or whose last end is
// unreadable, get an empty label.
func RelativeLabel(event *domain.Event, now time.Time, language string) string {
	if event == nil {
		return ""
	}
	words, ok := phrasings[i18n.Normalize(language)]
	if !ok {
		words = phrasings["en"]
	}

	for _, timing := range event.Timings {
		begin, ok := parseTime(timing.Begin)
		if ok && begin.After(now) {
			return fmt.Sprintf(words.future, humanize(begin.Sub(now), words.units))
		}
	}
	if len(event.Timings) == 0 {
		return ""
	}
	end, ok := parseTime(event.Timings[len(event.Timings)-1].End)
	if !ok {
		return ""
	}
	return fmt.Sprintf(words.past, humanize(now.Sub(end), words.units))
}

func humanize(d time.Duration, scale []unit) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = -seconds
	}
	for _, u := range scale {
		if seconds >= u.seconds {
			count := seconds / u.seconds
			return formatCount(count, u)
		}
	}
	return formatCount(0, scale[len(scale)-1])
}

func formatCount(count int64, u unit) string {
	name := u.plural
	if count == 1 {
		name = u.singular
	}
	return strings.TrimSpace(fmt.Sprintf("%d %s", count, name))
}
