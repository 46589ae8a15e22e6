// Package fixtureparser extracts televised football fixtures from listing HTML.
package fixtureparser

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/parser/textdate"
	"github.com/legendpaul/sportsapp/internal/platform/id"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
	"github.com/sourcegraph/conc/iter"
)

const (
	selectorHeading     = ".fixture-date"
	selectorFixture     = ".fixture"
	selectorTime        = ".fixture__time"
	selectorTeams       = ".fixture__teams"
	selectorCompetition = ".fixture__competition"
	selectorChannelPill = ".channel-pill"
	selectorChannelText = ".fixture__channel"

	minTeamNameLength = 2
)

// DefaultBlocklist marks women's and age-grade football, which the app does not list.
var DefaultBlocklist = []string{
	"women", "ladies", "girls", "wsl",
	"u16", "u17", "u18", "u19", "u20", "u21", "u23",
	"under-18", "under 18", "under-19", "under 19", "under-21", "under 21", "under-23", "under 23",
	"youth", "academy",
}

var (
	// first match wins, in this order
	teamSeparators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s+v\s+`),
		regexp.MustCompile(`(?i)\s+vs\.?\s+`),
		regexp.MustCompile(`\s+-\s+`),
	}
	clockInText = regexp.MustCompile(`\b(\d{1,2}[:.]\d{2})\b`)
	sentinels   = []string{"tbc", "tba", "postponed", "cancelled", "canceled"}
)

type Config struct {
	ChannelMap map[string]string
	Blocklist  []string
	// Source tags every fixture the parser emits.
	Source string
	Logger *logging.Logger
}

// Stats counts what happened to each entry in a section.
type Stats struct {
	Parsed   int
	Skipped  int
	Excluded int
	Fallback bool
}

type Parser struct {
	channelMap map[string]string
	blocklist  []string
	source     string
	logger     *logging.Logger
	validate   *validator.Validate
}

func New(cfg Config) *Parser {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	channelMap := make(map[string]string, len(cfg.ChannelMap))
	for from, to := range cfg.ChannelMap {
		channelMap[strings.ToLower(strings.TrimSpace(from))] = strings.TrimSpace(to)
	}
	if len(channelMap) == 0 {
		channelMap = DefaultChannelMap()
	}

	blocklist := cfg.Blocklist
	if len(blocklist) == 0 {
		blocklist = DefaultBlocklist
	}
	normalized := make([]string, 0, len(blocklist))
	for _, item := range blocklist {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			normalized = append(normalized, item)
		}
	}

	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = "football-site"
	}

	return &Parser{
		channelMap: channelMap,
		blocklist:  normalized,
		source:     source,
		logger:     logger.Named("fixtureparser"),
		validate:   validator.New(),
	}
}

// Parse returns the fixtures listed under targetDate (YYYY-MM-DD). When the page
// has no heading for that date, every fixture on the page is attributed to it.
func (p *Parser) Parse(rawHTML, targetDate string) []football.Fixture {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		p.logger.Warn("fixture html could not be parsed", "error", err)
		return []football.Fixture{}
	}
	fixtures, _ := p.parseDocument(doc, targetDate, true)
	return fixtures
}

// ParseDays parses several dates from one page concurrently. Only the first
// date uses the whole-document fallback, so later days with no heading yield nothing.
func (p *Parser) ParseDays(rawHTML string, dates []string) map[string][]football.Fixture {
	out := make(map[string][]football.Fixture, len(dates))
	if len(dates) == 0 {
		return out
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		p.logger.Warn("fixture html could not be parsed", "error", err)
		for _, date := range dates {
			out[date] = []football.Fixture{}
		}
		return out
	}

	results := iter.Map(dates, func(date *string) []football.Fixture {
		fixtures, _ := p.parseDocument(doc, *date, *date == dates[0])
		return fixtures
	})
	for i, date := range dates {
		out[date] = results[i]
	}
	return out
}

func (p *Parser) parseDocument(doc *goquery.Document, targetDate string, allowFallback bool) ([]football.Fixture, Stats) {
	var (
		section   []*goquery.Selection
		inSection bool
		matched   bool
		stats     Stats
	)

	ref, refErr := time.Parse(ukclock.DateLayout, targetDate)
	doc.Find(selectorHeading + ", " + selectorFixture).Each(func(_ int, s *goquery.Selection) {
		if s.Is(selectorHeading) {
			heading := cleanText(s.Text())
			date, ok := textdate.Find(heading)
			if !ok && refErr == nil {
				date, ok = textdate.FindNear(heading, ref)
			}
			inSection = ok && date == targetDate
			matched = matched || inSection
			return
		}
		if inSection {
			section = append(section, s)
		}
	})

	if !matched {
		if !allowFallback {
			return []football.Fixture{}, stats
		}
		stats.Fallback = true
		doc.Find(selectorFixture).Each(func(_ int, s *goquery.Selection) {
			section = append(section, s)
		})
	}

	fixtures := make([]football.Fixture, 0, len(section))
	for _, entry := range section {
		fixture, outcome := p.parseEntry(entry, targetDate)
		switch outcome {
		case entryParsed:
			fixtures = append(fixtures, fixture)
			stats.Parsed++
		case entryExcluded:
			stats.Excluded++
		default:
			stats.Skipped++
		}
	}

	p.logger.Debug("parsed fixture section",
		"date", targetDate,
		"parsed", stats.Parsed,
		"skipped", stats.Skipped,
		"excluded", stats.Excluded,
		"whole_document_fallback", stats.Fallback,
	)
	return fixtures, stats
}

type entryOutcome int

const (
	entrySkipped entryOutcome = iota
	entryExcluded
	entryParsed
)

func (p *Parser) parseEntry(entry *goquery.Selection, targetDate string) (football.Fixture, entryOutcome) {
	clock, outcome := p.extractTime(entry)
	if outcome != entryParsed {
		return football.Fixture{}, outcome
	}

	teamA, teamB, ok := splitTeams(cleanText(entry.Find(selectorTeams).First().Text()))
	if !ok {
		return football.Fixture{}, entrySkipped
	}

	competition := cleanText(entry.Find(selectorCompetition).First().Text())
	if competition == "" {
		competition = football.DefaultCompetition
	}

	if p.isExcluded(teamA, teamB, competition) {
		return football.Fixture{}, entryExcluded
	}

	fixture := football.Fixture{
		ID:          id.Stable("fx", teamA, teamB, clock, targetDate),
		Time:        clock,
		Date:        targetDate,
		TeamA:       teamA,
		TeamB:       teamB,
		Competition: competition,
		Channels:    p.extractChannels(entry),
		Source:      p.source,
	}
	if err := p.validate.Struct(fixture); err != nil {
		return football.Fixture{}, entrySkipped
	}
	return fixture, entryParsed
}

func (p *Parser) extractTime(entry *goquery.Selection) (string, entryOutcome) {
	raw := cleanText(entry.Find(selectorTime).First().Text())
	if raw == "" {
		// some layouts print the kickoff inline with the teams
		raw = clockInText.FindString(cleanText(entry.Text()))
	}
	lower := strings.ToLower(raw)
	for _, sentinel := range sentinels {
		if strings.Contains(lower, sentinel) {
			return "", entryExcluded
		}
	}
	clock, ok := ukclock.NormalizeClock(raw)
	if !ok {
		return "", entrySkipped
	}
	return clock, entryParsed
}

func (p *Parser) extractChannels(entry *goquery.Selection) []string {
	channels := make([]string, 0, 2)
	seen := make(map[string]struct{}, 2)

	entry.Find(selectorChannelPill).Each(func(_ int, s *goquery.Selection) {
		if name := cleanText(s.Text()); name != "" {
			channels = appendUnique(channels, seen, p.canonicalChannel(name))
		}
	})
	if len(channels) > 0 {
		return channels
	}

	text := cleanText(entry.Find(selectorChannelText).First().Text())
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '/' }) {
		if name := strings.TrimSpace(part); name != "" {
			channels = appendUnique(channels, seen, p.canonicalChannel(name))
		}
	}
	return channels
}

func (p *Parser) isExcluded(values ...string) bool {
	for _, value := range values {
		lower := strings.ToLower(value)
		for _, blocked := range p.blocklist {
			if strings.Contains(lower, blocked) {
				return true
			}
		}
	}
	return false
}

func splitTeams(text string) (string, string, bool) {
	if text == "" {
		return "", "", false
	}
	for _, sep := range teamSeparators {
		loc := sep.FindStringIndex(text)
		if loc == nil {
			continue
		}
		teamA := strings.TrimSpace(text[:loc[0]])
		teamB := strings.TrimSpace(text[loc[1]:])
		if utf8.RuneCountInString(teamA) < minTeamNameLength || utf8.RuneCountInString(teamB) < minTeamNameLength {
			return "", "", false
		}
		if strings.EqualFold(teamA, teamB) {
			return "", "", false
		}
		return teamA, teamB, true
	}
	return "", "", false
}

// cleanText collapses whitespace in DOM text. goquery has already decoded
// entities, so decoding again would turn "&amp;lt;" into "<".
func cleanText(v string) string {
	v = strings.ReplaceAll(v, "\u00a0", " ")
	return strings.Join(strings.Fields(v), " ")
}
