package eventparser

import (
	"testing"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/ufc"
)

func TestParse_StructuredEventsAreAuthoritative(t *testing.T) {
	t.Parallel()

	raw := `{
	  "events": [
	    {
	      "id": 1201,
	      "name": "UFC 317: Topuria vs Oliveira - UFC",
	      "startDate": "2025-06-29T02:00:00Z",
	      "venue": {"name": "T-Mobile Arena"},
	      "fights": [
	        {"red": "Ilia Topuria", "blue": "Charles Oliveira", "weightClass": "Lightweight", "title": "Title Fight", "card": "main"},
	        {"fighter1": "Joshua Van", "fighter2": "Brandon Royval", "card": "prelims"},
	        {"fighters": [{"name": "Jack Hermansson"}, {"name": "Gregory Rodrigues"}], "card": "Early Prelims"}
	      ]
	    },
	    {"name": "UFC 318", "venue": "Smoothie King Center"},
	    {"id": 1201, "name": "UFC 317: Topuria vs Oliveira", "startDate": "2025-06-29T02:00:00Z"}
	  ]
	}`

	events := New(Config{Source: "ufc-api"}).Parse(raw)
	if len(events) != 1 {
		t.Fatalf("expected one dated unique event, got=%d: %+v", len(events), events)
	}

	e := events[0]
	if e.Title != "UFC 317: Topuria vs Oliveira" {
		t.Fatalf("unexpected title %q", e.Title)
	}
	if e.ExternalID != "1201" || e.NaturalKey() != "ufc:1201" {
		t.Fatalf("unexpected external id %q key %q", e.ExternalID, e.NaturalKey())
	}
	if want := time.Date(2025, 6, 29, 2, 0, 0, 0, time.UTC); !e.MainCardStartUTC.Equal(want) {
		t.Fatalf("unexpected main card start %s", e.MainCardStartUTC)
	}
	if want := time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC); !e.PrelimStartUTC.Equal(want) {
		t.Fatalf("expected prelims two hours earlier, got %s", e.PrelimStartUTC)
	}
	if e.Date != "2025-06-29" || e.Venue != "T-Mobile Arena" || e.Broadcast != ufc.DefaultBroadcaster {
		t.Fatalf("unexpected date/venue/broadcast: %+v", e)
	}
	if len(e.MainCard) != 1 || len(e.PrelimCard) != 1 || len(e.EarlyPrelimCard) != 1 {
		t.Fatalf("unexpected card split: %d/%d/%d", len(e.MainCard), len(e.PrelimCard), len(e.EarlyPrelimCard))
	}
	if e.MainCard[0].Fighter1 != "Ilia Topuria" || e.MainCard[0].Title != "Title Fight" {
		t.Fatalf("unexpected main event %+v", e.MainCard[0])
	}
	if e.PrelimCard[0].WeightClass != ufc.DefaultWeightClass {
		t.Fatalf("expected unknown weight class to default, got %q", e.PrelimCard[0].WeightClass)
	}
	if e.EarlyPrelimCard[0].Fighter2 != "Gregory Rodrigues" {
		t.Fatalf("unexpected early prelim %+v", e.EarlyPrelimCard[0])
	}
	if e.Source != "ufc-api" || e.ID == "" {
		t.Fatalf("expected source tag and id, got %+v", e)
	}
}

func TestParse_SearchSnippetsConvertUKTimeWithSeasonalOffset(t *testing.T) {
	t.Parallel()

	raw := `{
	  "items": [
	    {
	      "title": "UFC Fight Night: Blanchfield vs Barber | UFC",
	      "snippet": "Watch live on Tuesday 1st July 2025, main card 22:00 BST at the UFC APEX.",
	      "link": "https://www.ufc.com/event/ufc-fight-night-july-01-2025"
	    },
	    {
	      "title": "UFC 310 | UFC",
	      "snippet": "Wednesday 1st January 2025, main card 10pm UK on TNT Sports."
	    },
	    {
	      "title": "UFC 999 rumours",
	      "snippet": "No date has been announced yet."
	    }
	  ]
	}`

	events := New(Config{}).Parse(raw)
	if len(events) != 2 {
		t.Fatalf("expected two dated events, got=%d: %+v", len(events), events)
	}

	summer := events[0]
	if summer.Title != "UFC Fight Night: Blanchfield vs Barber" {
		t.Fatalf("unexpected title %q", summer.Title)
	}
	if want := time.Date(2025, 7, 1, 21, 0, 0, 0, time.UTC); !summer.MainCardStartUTC.Equal(want) {
		t.Fatalf("BST conversion: got=%s want=%s", summer.MainCardStartUTC, want)
	}
	if summer.Venue != "UFC APEX" {
		t.Fatalf("unexpected venue %q", summer.Venue)
	}
	if summer.URL == "" {
		t.Fatalf("expected link to be kept for card hydration")
	}

	winter := events[1]
	if winter.Title != "UFC 310" || winter.Date != "2025-01-01" {
		t.Fatalf("unexpected winter event %+v", winter)
	}
	if want := time.Date(2025, 1, 1, 22, 0, 0, 0, time.UTC); !winter.MainCardStartUTC.Equal(want) {
		t.Fatalf("GMT conversion: got=%s want=%s", winter.MainCardStartUTC, want)
	}
	if winter.Venue != ufc.DefaultVenue {
		t.Fatalf("expected default venue, got %q", winter.Venue)
	}
	if got := winter.UKPrelimTime(); got != "20:00" {
		t.Fatalf("unexpected prelim display time %s", got)
	}
}

func TestParse_HTMLWithoutTimeUsesDefaultMainCardSlot(t *testing.T) {
	t.Parallel()

	raw := `<html><body>
	  <div class="event"><h3>UFC 321: Aspinall vs Gane</h3><p>Saturday 25th October 2025</p></div>
	  <div class="event"><h3>UFC 322</h3><p>Date to be announced</p></div>
	  <script>var x = "UFC 999 1st January 2030";</script>
	</body></html>`

	events := New(Config{}).Parse(raw)
	if len(events) != 1 {
		t.Fatalf("expected one dated event, got=%d: %+v", len(events), events)
	}
	e := events[0]
	if e.Title != "UFC 321: Aspinall vs Gane" || e.Date != "2025-10-25" {
		t.Fatalf("unexpected event %+v", e)
	}
	// 03:00 UK on Sunday 26 October, which is already GMT
	if want := time.Date(2025, 10, 26, 3, 0, 0, 0, time.UTC); !e.MainCardStartUTC.Equal(want) {
		t.Fatalf("unexpected default start %s", e.MainCardStartUTC)
	}
}

func TestParse_EmptyOrGarbageInputYieldsNoEvents(t *testing.T) {
	t.Parallel()

	p := New(Config{})
	for _, raw := range []string{"", "   ", `{"events": []}`, `{"unexpected": true}`, `{broken json`} {
		if got := p.Parse(raw); len(got) != 0 {
			t.Fatalf("expected no events for %q, got %+v", raw, got)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"UFC 300 - UFC":                       "UFC 300",
		"UFC 314 | UFC.com":                   "UFC 314",
		"UFC: Fight Night Vegas 101":          "Fight Night Vegas 101",
		"UFC 317: Topuria vs Oliveira":        "UFC 317: Topuria vs Oliveira",
		"  UFC\u00a0Nashville & more ":        "UFC Nashville & more",
		"UFC 300 | Pereira vs Hill | UFC.com": "UFC 300 | Pereira vs Hill",
		"UFC 300 | Pereira vs Hill":           "UFC 300 | Pereira vs Hill",
		"UFC Fight Night | ESPN MMA":          "UFC Fight Night",
	}
	for in, want := range cases {
		if got := cleanTitle(in); got != want {
			t.Fatalf("cleanTitle(%q)=%q want %q", in, got, want)
		}
	}
}

func TestParse_DecodesEntitiesOnlyInRawText(t *testing.T) {
	t.Parallel()

	raw := `{"events": [{"id": 7, "name": "UFC 320: Ankalaev &amp; Pereira", "startDate": "2025-10-05T02:00:00Z"}]}`
	events := New(Config{}).Parse(raw)
	if len(events) != 1 || events[0].Title != "UFC 320: Ankalaev & Pereira" {
		t.Fatalf("expected JSON entities to be decoded, got %+v", events)
	}

	card, err := ParseCard(`<div class="c-listing-fight"><div class="c-listing-fight__corner-name--red">Jos&amp;eacute; Aldo</div><div class="c-listing-fight__corner-name--blue">Mario Bautista</div></div>`)
	if err != nil {
		t.Fatalf("ParseCard error: %v", err)
	}
	if len(card.Main) != 1 || card.Main[0].Fighter1 != "Jos&eacute; Aldo" {
		t.Fatalf("expected DOM text to be decoded exactly once, got %+v", card.Main)
	}
}

func TestFindUKClock(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"main card 10pm UK":    "22:00",
		"starts 3am BST":       "03:00",
		"from 12am (UK)":       "00:00",
		"prelims at 23:00 GMT": "23:00",
		"main card 1.30am BST": "01:30",
	}
	for in, want := range cases {
		got, ok := findUKClock(in)
		if !ok || got != want {
			t.Fatalf("findUKClock(%q)=%q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := findUKClock("round 3 UK fighters"); ok {
		t.Fatalf("expected bare hour without am/pm to be ignored")
	}
}
