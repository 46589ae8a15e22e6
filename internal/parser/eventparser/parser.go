// Package eventparser extracts UFC events from search API responses and event pages.
package eventparser

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
	"github.com/legendpaul/sportsapp/internal/platform/id"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
	xhtml "golang.org/x/net/html"
)

const (
	defaultMainCardUK     = "03:00"
	defaultMainCardDayLag = 1
)

var (
	titleSuffix    = regexp.MustCompile(`(?i)\s+-\s+UFC(?:\.com)?\s*$`)
	titlePrefix    = regexp.MustCompile(`(?i)^UFC:\s+`)
	instantLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
)

type Config struct {
	// Source tags every event the parser emits.
	Source string
	// DefaultMainCardUK is the assumed UK main card time when a candidate has a
	// date but no time; it lands DefaultMainCardDayLag days after the listed date.
	DefaultMainCardUK     string
	DefaultMainCardDayLag *int
	Logger                *logging.Logger
}

type Parser struct {
	source        string
	defaultClock  string
	defaultDayLag int
	logger        *logging.Logger
	validate      *validator.Validate
}

func New(cfg Config) *Parser {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = "ufc-search"
	}
	clock, ok := ukclock.NormalizeClock(cfg.DefaultMainCardUK)
	if !ok {
		clock = defaultMainCardUK
	}
	dayLag := defaultMainCardDayLag
	if cfg.DefaultMainCardDayLag != nil && *cfg.DefaultMainCardDayLag >= 0 {
		dayLag = *cfg.DefaultMainCardDayLag
	}

	return &Parser{
		source:        source,
		defaultClock:  clock,
		defaultDayLag: dayLag,
		logger:        logger.Named("eventparser"),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Parse accepts a structured JSON response, a search response with free-text
// items, or an HTML page. Candidates without a resolvable date are dropped.
func (p *Parser) Parse(raw string) []ufc.Event {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []ufc.Event{}
	}

	var candidates []ufc.Event
	if raw[0] == '{' || raw[0] == '[' {
		var payload any
		if err := sonic.UnmarshalString(raw, &payload); err != nil {
			p.logger.Warn("ufc payload is not valid json, trying free text", "error", err)
			candidates = p.fromText(decodeText(raw), "")
		} else {
			candidates = p.fromJSON(payload)
		}
	} else {
		candidates = p.fromHTML(raw)
	}

	out := make([]ufc.Event, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	skipped := 0
	for _, event := range candidates {
		if event.MainCardStartUTC.IsZero() {
			skipped++
			continue
		}
		event.ApplyDefaults()
		if err := p.validate.Struct(event); err != nil {
			skipped++
			continue
		}
		key := event.NaturalKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, event)
	}

	p.logger.Debug("parsed ufc events", "parsed", len(out), "skipped", skipped)
	return out
}

func (p *Parser) fromJSON(payload any) []ufc.Event {
	var items []map[string]any
	switch typed := payload.(type) {
	case []any:
		items = getList(map[string]any{"events": typed}, "events")
	case map[string]any:
		if search := getList(typed, "items"); search != nil {
			return p.fromSearchItems(search)
		}
		items = getList(typed, "events", "data", "results")
		if items == nil && getStringAny(typed, "name", "title") != "" {
			items = []map[string]any{typed}
		}
	}

	out := make([]ufc.Event, 0, len(items))
	for _, item := range items {
		if event, ok := p.fromStructured(item); ok {
			out = append(out, event)
		}
	}
	return out
}

func (p *Parser) fromStructured(item map[string]any) (ufc.Event, bool) {
	title := cleanTitle(decodeText(getStringAny(item, "name", "title", "eventName")))
	if title == "" {
		return ufc.Event{}, false
	}

	event := ufc.Event{
		ExternalID: getStringAny(item, "id", "eventId", "event_id"),
		Title:      title,
		Venue: firstNonEmpty(
			getString(item, "venue"),
			getString(getMap(item, "venue"), "name"),
			getString(item, "location"),
		),
		Broadcast: getStringAny(item, "broadcaster", "broadcast", "network"),
		URL:       getStringAny(item, "url", "link"),
		Source:    p.source,
	}

	listedDate := ""
	if d, ok := parseDateOnly(getString(item, "date")); ok {
		listedDate = d
	}

	start, hasInstant := parseInstant(getStringAny(item, "startDate", "start_date", "mainCardStart", "dateTime", "date"))
	switch {
	case hasInstant:
		event.MainCardStartUTC = start
		event.Date = listedDate
		if event.Date == "" {
			event.Date, _ = ukclock.FromUTC(start)
		}
	case listedDate != "":
		event.Date = listedDate
		event.MainCardStartUTC = p.defaultStart(listedDate)
	default:
		if d, ok := parseDateOnly(getStringAny(item, "startDate", "start_date")); ok {
			event.Date = d
			event.MainCardStartUTC = p.defaultStart(d)
		} else {
			return ufc.Event{}, false
		}
	}

	if prelim, ok := parseInstant(getStringAny(item, "prelimsStartDate", "prelimStartDate", "prelims_start")); ok {
		event.PrelimStartUTC = prelim
	}

	for _, fight := range getList(item, "fights", "bouts") {
		bout, ok := boutFromMap(fight)
		if !ok {
			continue
		}
		card := strings.ToLower(getStringAny(fight, "card", "segment"))
		switch {
		case strings.Contains(card, "early"):
			event.EarlyPrelimCard = append(event.EarlyPrelimCard, bout)
		case strings.Contains(card, "prelim"):
			event.PrelimCard = append(event.PrelimCard, bout)
		default:
			event.MainCard = append(event.MainCard, bout)
		}
	}

	event.ID = id.Stable("ufc", event.NaturalKey())
	return event, true
}

func boutFromMap(fight map[string]any) (ufc.Bout, bool) {
	fighter1 := getStringAny(fight, "fighter1", "red", "redCorner")
	fighter2 := getStringAny(fight, "fighter2", "blue", "blueCorner")
	if fighter1 == "" || fighter2 == "" {
		if fighters := getList(fight, "fighters"); len(fighters) == 2 {
			fighter1 = getStringAny(fighters[0], "name", "fullName")
			fighter2 = getStringAny(fighters[1], "name", "fullName")
		}
	}
	if fighter1 == "" || fighter2 == "" {
		return ufc.Bout{}, false
	}
	return ufc.Bout{
		Fighter1:    fighter1,
		Fighter2:    fighter2,
		WeightClass: getStringAny(fight, "weightClass", "weight_class"),
		Title:       getStringAny(fight, "title", "label"),
	}, true
}

func (p *Parser) fromSearchItems(items []map[string]any) []ufc.Event {
	out := make([]ufc.Event, 0, len(items))
	for _, item := range items {
		text := decodeText(getString(item, "title") + " . " + getString(item, "snippet"))
		out = append(out, p.fromText(text, getString(item, "link"))...)
	}
	return out
}

func (p *Parser) fromHTML(raw string) []ufc.Event {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return p.fromText(raw, "")
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	for _, node := range doc.Nodes {
		collectText(&b, node)
	}
	return p.fromText(b.String(), "")
}

// collectText joins text nodes in document order with a space so adjacent
// block elements do not run together.
func collectText(b *strings.Builder, node *xhtml.Node) {
	if node.Type == xhtml.TextNode {
		b.WriteString(node.Data)
		b.WriteByte(' ')
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(b, child)
	}
}

// defaultStart places the main card at the default UK time on the day after the listed date.
func (p *Parser) defaultStart(date string) time.Time {
	listed, err := time.Parse(ukclock.DateLayout, date)
	if err != nil {
		return time.Time{}
	}
	day := listed.AddDate(0, 0, p.defaultDayLag).Format(ukclock.DateLayout)
	start, err := ukclock.ToUTC(day, p.defaultClock)
	if err != nil {
		return time.Time{}
	}
	return start
}

func parseInstant(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseDateOnly(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if len(v) < len(ukclock.DateLayout) {
		return "", false
	}
	if _, err := time.Parse(ukclock.DateLayout, v[:len(ukclock.DateLayout)]); err != nil {
		return "", false
	}
	return v[:len(ukclock.DateLayout)], true
}

// cleanTitle drops site suffixes such as " - UFC" and "| UFC.com" and a leading "UFC: ".
func cleanTitle(title string) string {
	title = cleanText(title)
	if idx := strings.LastIndex(title, " | "); idx >= 0 && isSiteName(title[idx+3:]) {
		title = title[:idx]
	}
	title = strings.TrimSpace(strings.TrimSuffix(title, "|"))
	title = titleSuffix.ReplaceAllString(title, "")
	title = titlePrefix.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// isSiteName reports whether a trailing "| segment" names the publishing site
// rather than continuing the title.
func isSiteName(segment string) bool {
	segment = strings.TrimSpace(segment)
	if segment == "" || strings.ContainsAny(segment, "0123456789:") {
		return false
	}
	lower := strings.ToLower(segment)
	if strings.Contains(lower, " vs") {
		return false
	}
	return len(strings.Fields(segment)) <= 3
}

// decodeText is cleanText for raw JSON and snippet text, whose entities have
// not been decoded by an HTML parser.
func decodeText(v string) string {
	return cleanText(html.UnescapeString(v))
}

// cleanText collapses whitespace in text that is already entity-decoded.
func cleanText(v string) string {
	v = strings.ReplaceAll(v, "\u00a0", " ")
	return strings.Join(strings.Fields(v), " ")
}
