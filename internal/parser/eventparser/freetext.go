package eventparser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/legendpaul/sportsapp/internal/domain/ufc"
	"github.com/legendpaul/sportsapp/internal/parser/textdate"
	"github.com/legendpaul/sportsapp/internal/platform/id"
	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
)

const (
	windowAfter  = 600
	windowBefore = 160
)

var (
	numberedTitle   = regexp.MustCompile(`\bUFC\s+(\d{1,3})\b(?:\s*:\s*([A-Z][\w'.-]+)\s+vs\.?\s+([A-Z][\w'.-]+))?`)
	fightNightTitle = regexp.MustCompile(`(?i)\bUFC\s+Fight\s+Night\b\s*:?\s*(?:([a-z][\w'.-]+)\s+vs\.?\s+([a-z][\w'.-]+))?`)
	ukClock         = regexp.MustCompile(`(?i)\b(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm)?\s*\(?\s*(UK|BST|GMT)\b`)
	venueMention    = regexp.MustCompile(`\b(?:[Aa]t|[Ff]rom)\s+(?:the\s+)?([A-Z][A-Za-z0-9'&.\- ]{1,60}?(?:Arena|Center|Centre|Garden|Stadium|APEX|Apex|Hall|Dome|Pavilion))\b`)
)

type titleMatch struct {
	start, end int
	title      string
}

// fromText scans free text for event titles and reads the date, UK time and
// venue from the text around each one.
func (p *Parser) fromText(text, link string) []ufc.Event {
	text = cleanText(text)
	matches := findTitles(text)

	out := make([]ufc.Event, 0, len(matches))
	for i, m := range matches {
		from := m.start - windowBefore
		if from < 0 {
			from = 0
		}
		to := m.start + windowAfter
		if i+1 < len(matches) && to > matches[i+1].start {
			to = matches[i+1].start
		}
		if to > len(text) {
			to = len(text)
		}
		if to < m.end {
			to = m.end
		}

		after := text[m.end:to]
		before := text[from:m.start]

		date, ok := textdate.Find(after)
		if !ok && i == 0 {
			// only the first title may borrow a date heading printed above it
			date, ok = textdate.Find(before)
		}
		if !ok {
			continue
		}

		event := ufc.Event{
			Title:  m.title,
			Date:   date,
			URL:    link,
			Source: p.source,
		}

		if clock, ok := findUKClock(after); ok {
			start, err := ukclock.ToUTC(date, clock)
			if err != nil {
				continue
			}
			event.MainCardStartUTC = start
		} else {
			event.MainCardStartUTC = p.defaultStart(date)
		}

		if v := venueMention.FindStringSubmatch(after); v != nil {
			event.Venue = strings.TrimSpace(v[1])
		}
		if strings.Contains(strings.ToLower(after), "tnt sports") {
			event.Broadcast = ufc.DefaultBroadcaster
		}

		event.ID = id.Stable("ufc", event.NaturalKey())
		out = append(out, event)
	}
	return out
}

func findTitles(text string) []titleMatch {
	var out []titleMatch
	for _, loc := range numberedTitle.FindAllStringSubmatchIndex(text, -1) {
		title := "UFC " + text[loc[2]:loc[3]]
		if loc[4] >= 0 {
			title += ": " + trimName(text[loc[4]:loc[5]]) + " vs " + trimName(text[loc[6]:loc[7]])
		}
		out = append(out, titleMatch{start: loc[0], end: loc[1], title: title})
	}
	for _, loc := range fightNightTitle.FindAllStringSubmatchIndex(text, -1) {
		title := "UFC Fight Night"
		if loc[2] >= 0 {
			title += ": " + trimName(text[loc[2]:loc[3]]) + " vs " + trimName(text[loc[4]:loc[5]])
		}
		out = append(out, titleMatch{start: loc[0], end: loc[1], title: title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

func trimName(v string) string {
	return strings.TrimRight(v, ".'-")
}

// findUKClock returns the first HH:MM tagged UK, BST or GMT. A bare hour needs am/pm.
func findUKClock(text string) (string, bool) {
	for _, m := range ukClock.FindAllStringSubmatch(text, -1) {
		hour, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		switch strings.ToLower(m[3]) {
		case "":
			if m[2] == "" {
				continue
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		case "pm":
			if hour < 12 {
				hour += 12
			}
		}
		if clock, ok := ukclock.NormalizeClock(fmt.Sprintf("%d:%02d", hour, minute)); ok {
			return clock, true
		}
	}
	return "", false
}
