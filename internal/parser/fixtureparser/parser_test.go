package fixtureparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fixtureHTML(timeText, teams, competition string, channels ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="fixture">`)
	b.WriteString(`<div class="fixture__time">` + timeText + `</div>`)
	b.WriteString(`<div class="fixture__teams">` + teams + `</div>`)
	if competition != "" {
		b.WriteString(`<div class="fixture__competition">` + competition + `</div>`)
	}
	b.WriteString(`<div class="fixture__channels">`)
	for _, ch := range channels {
		b.WriteString(`<span class="channel-pill">` + ch + `</span>`)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func heading(text string) string {
	return `<div class="fixture-date">` + text + `</div>`
}

func page(parts ...string) string {
	return "<html><body><div class=\"fixtures\">" + strings.Join(parts, "\n") + "</div></body></html>"
}

func TestParse_SkipsTBCAndKeepsTodaysFixture(t *testing.T) {
	t.Parallel()

	html := page(
		heading("Monday 16th June 2025"),
		fixtureHTML("15:00", "Arsenal v Chelsea", "Premier League", "Sky Sports Premier League"),
		fixtureHTML("TBC", "Team X v Team Y", "Premier League"),
	)

	got := New(Config{Source: "livefootballontv"}).Parse(html, "2025-06-16")
	if len(got) != 1 {
		t.Fatalf("expected exactly one fixture, got=%d: %+v", len(got), got)
	}

	f := got[0]
	if f.TeamA != "Arsenal" || f.TeamB != "Chelsea" || f.Time != "15:00" || f.Date != "2025-06-16" {
		t.Fatalf("unexpected fixture: %+v", f)
	}
	if f.Competition != "Premier League" || f.Source != "livefootballontv" {
		t.Fatalf("unexpected competition/source: %+v", f)
	}
	if len(f.Channels) != 1 || f.Channels[0] != "Sky Sports Premier League" {
		t.Fatalf("unexpected channels: %v", f.Channels)
	}
	if f.ID == "" {
		t.Fatalf("expected surrogate id to be assigned")
	}
}

func TestParse_BoundsSectionToTargetDate(t *testing.T) {
	t.Parallel()

	html := page(
		heading("Sunday 15th June 2025"),
		fixtureHTML("12:30", "Leeds v Burnley", "Championship"),
		heading("Monday 16th June 2025"),
		fixtureHTML("17:30", "Everton v Fulham", "Premier League"),
		fixtureHTML("20:00", "Celtic v Rangers", "Scottish Premiership"),
		heading("Tuesday 17th June 2025"),
		fixtureHTML("19:45", "Hull v Stoke", "Championship"),
	)

	got := New(Config{}).Parse(html, "2025-06-16")
	if len(got) != 2 {
		t.Fatalf("expected two fixtures in section, got=%d: %+v", len(got), got)
	}
	if got[0].TeamA != "Everton" || got[1].TeamA != "Celtic" {
		t.Fatalf("unexpected order or content: %+v", got)
	}
}

func TestParse_BoundsSectionUnderHeadingsWithoutYear(t *testing.T) {
	t.Parallel()

	html := page(
		heading("Sunday 15th June"),
		fixtureHTML("12:30", "Leeds v Burnley", "Championship"),
		heading("Monday 16th June"),
		fixtureHTML("17:30", "Everton v Fulham", "Premier League"),
		heading("Tuesday, June 17th"),
		fixtureHTML("19:45", "Hull v Stoke", "Championship"),
	)

	got := New(Config{}).Parse(html, "2025-06-16")
	if len(got) != 1 || got[0].TeamA != "Everton" || got[0].Date != "2025-06-16" {
		t.Fatalf("expected only the 16 June section, got %+v", got)
	}

	byDate := New(Config{}).ParseDays(html, []string{"2025-06-16", "2025-06-17"})
	if len(byDate["2025-06-17"]) != 1 || byDate["2025-06-17"][0].TeamA != "Hull" {
		t.Fatalf("expected the 17 June section for the second day, got %+v", byDate["2025-06-17"])
	}
}

func TestParse_DoesNotDecodeEntitiesTwice(t *testing.T) {
	t.Parallel()

	html := page(
		heading("Monday 16th June 2025"),
		fixtureHTML("15:00", "AT&amp;amp;T Rovers v Chelsea", "Premier League"),
	)

	got := New(Config{}).Parse(html, "2025-06-16")
	if len(got) != 1 || got[0].TeamA != "AT&amp;T Rovers" {
		t.Fatalf("expected one decoding pass, got %+v", got)
	}
}

func TestParse_NoMatchingHeadingAssignsTargetDateToEveryFixture(t *testing.T) {
	t.Parallel()

	html := page(
		fixtureHTML("19:00", "Wales v Belgium", "World Cup Qualifier"),
		fixtureHTML("19:45", "Scotland v Greece", ""),
	)

	got := New(Config{}).Parse(html, "2025-09-05")
	if len(got) != 2 {
		t.Fatalf("expected whole-document fallback, got=%d", len(got))
	}
	for _, f := range got {
		if f.Date != "2025-09-05" {
			t.Fatalf("expected target date to be assigned, got %s", f.Date)
		}
	}
	if got[1].Competition != "Football" {
		t.Fatalf("expected default competition, got %q", got[1].Competition)
	}
}

func TestParse_ExclusionFilter(t *testing.T) {
	t.Parallel()

	html := page(
		heading("Saturday 6th September 2025"),
		fixtureHTML("13:00", "England U20 v Italy U20", "International Friendly"),
		fixtureHTML("12:30", "Arsenal v Chelsea", "Women's Super League"),
		fixtureHTML("17:00", "England v Andorra", "World Cup Qualifier"),
		fixtureHTML("11:00", "Spurs Academy v Palace", "Youth Cup"),
	)

	got := New(Config{}).Parse(html, "2025-09-06")
	if len(got) != 1 {
		t.Fatalf("expected only the senior men's fixture, got=%d: %+v", len(got), got)
	}
	if got[0].TeamA != "England" || got[0].TeamB != "Andorra" {
		t.Fatalf("unexpected survivor: %+v", got[0])
	}
}

func TestParse_DecodesEntitiesAndCanonicalizesChannels(t *testing.T) {
	t.Parallel()

	html := page(
		heading("June 16th, 2025"),
		fixtureHTML("19.45", "Brighton &amp; Hove Albion v Nott&#x27;m Forest", "&quot;Friendly&quot;", "BT Sport 1", "bt sport 1", "Prime Video", "Premier Sports&nbsp;1"),
		`<div class="fixture"><div class="fixture__time">20:00</div><div class="fixture__teams">Cardiff VS. Swansea</div><div class="fixture__channel">BBC1, ITV / S4C</div></div>`,
	)

	got := New(Config{}).Parse(html, "2025-06-16")
	if len(got) != 2 {
		t.Fatalf("expected two fixtures, got=%d: %+v", len(got), got)
	}

	first := got[0]
	if first.TeamA != "Brighton & Hove Albion" || first.TeamB != "Nott'm Forest" {
		t.Fatalf("entities not decoded: %q v %q", first.TeamA, first.TeamB)
	}
	if first.Competition != `"Friendly"` {
		t.Fatalf("unexpected competition %q", first.Competition)
	}
	if first.Time != "19:45" {
		t.Fatalf("expected normalized kickoff, got %q", first.Time)
	}
	wantChannels := []string{"TNT Sports 1", "Amazon Prime Video", "Premier Sports 1"}
	if strings.Join(first.Channels, "|") != strings.Join(wantChannels, "|") {
		t.Fatalf("unexpected channels: %v", first.Channels)
	}

	second := got[1]
	if second.TeamA != "Cardiff" || second.TeamB != "Swansea" {
		t.Fatalf("unexpected teams: %+v", second)
	}
	if strings.Join(second.Channels, "|") != "BBC One|ITV1|S4C" {
		t.Fatalf("unexpected text channels: %v", second.Channels)
	}
}

func TestParse_SkipsMalformedEntriesWithoutAbortingBatch(t *testing.T) {
	t.Parallel()

	html := page(
		heading("Monday 16th June 2025"),
		fixtureHTML("25:00", "Arsenal v Chelsea", ""),
		fixtureHTML("15:00", "Arsenal Chelsea", ""),
		fixtureHTML("15:00", "A v Chelsea", ""),
		fixtureHTML("15:00", "Arsenal v arsenal", ""),
		fixtureHTML("Postponed", "Luton v Derby", ""),
		fixtureHTML("17:30", "Luton v Derby", ""),
	)

	got := New(Config{}).Parse(html, "2025-06-16")
	if len(got) != 1 || got[0].TeamA != "Luton" {
		t.Fatalf("expected only the valid entry, got %+v", got)
	}
}

func TestSplitTeams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		a, b  string
		valid bool
	}{
		{in: "Arsenal v Chelsea", a: "Arsenal", b: "Chelsea", valid: true},
		{in: "Arsenal V Chelsea", a: "Arsenal", b: "Chelsea", valid: true},
		{in: "Arsenal vs Chelsea", a: "Arsenal", b: "Chelsea", valid: true},
		{in: "Arsenal Vs. Chelsea", a: "Arsenal", b: "Chelsea", valid: true},
		{in: "Arsenal - Chelsea", a: "Arsenal", b: "Chelsea", valid: true},
		{in: "Stoke-on-Trent Town v Port Vale", a: "Stoke-on-Trent Town", b: "Port Vale", valid: true},
		{in: "Arsenal Chelsea"},
		{in: "X v Chelsea"},
		{in: "Chelsea v CHELSEA"},
		{in: ""},
	}

	for _, tc := range tests {
		a, b, ok := splitTeams(tc.in)
		if ok != tc.valid || a != tc.a || b != tc.b {
			t.Fatalf("splitTeams(%q)=(%q,%q,%v) want (%q,%q,%v)", tc.in, a, b, ok, tc.a, tc.b, tc.valid)
		}
	}
}

func TestParseDays_OnlyFirstDateFallsBackToWholeDocument(t *testing.T) {
	t.Parallel()

	html := page(
		heading("Monday 16th June 2025"),
		fixtureHTML("15:00", "Arsenal v Chelsea", "Premier League"),
		heading("Tuesday 17th June 2025"),
		fixtureHTML("19:45", "Hull v Stoke", "Championship"),
	)

	got := New(Config{}).ParseDays(html, []string{"2025-06-16", "2025-06-17", "2025-06-18"})
	if len(got["2025-06-16"]) != 1 || len(got["2025-06-17"]) != 1 {
		t.Fatalf("unexpected per-day counts: %d %d", len(got["2025-06-16"]), len(got["2025-06-17"]))
	}
	if len(got["2025-06-18"]) != 0 {
		t.Fatalf("expected no fixtures for a day without heading, got %d", len(got["2025-06-18"]))
	}
}

func TestLoadChannelMap_LayersOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "channels.yaml")
	content := "channels:\n  \"Premier Sports 1\": \"Viaplay Sports 1\"\n  \"BT Sport 1\": \"TNT Sports 1 HD\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write channel map: %v", err)
	}

	m, err := LoadChannelMap(path)
	if err != nil {
		t.Fatalf("LoadChannelMap error: %v", err)
	}
	if m["premier sports 1"] != "Viaplay Sports 1" || m["bt sport 1"] != "TNT Sports 1 HD" {
		t.Fatalf("overrides not applied: %v", m)
	}
	if m["bbc1"] != "BBC One" {
		t.Fatalf("defaults lost: %v", m)
	}

	p := New(Config{ChannelMap: m})
	if got := p.canonicalChannel("Premier Sports 1"); got != "Viaplay Sports 1" {
		t.Fatalf("unexpected canonical channel %q", got)
	}
}
