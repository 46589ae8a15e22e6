package eventparser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
)

// ParseCard reads the bouts from an event page. Pages without card sections
// have every listed bout treated as main card.
func ParseCard(rawHTML string) (ufc.Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ufc.Card{}, err
	}

	card := ufc.Card{
		Main:         boutsIn(doc.Find(".main-card")),
		Prelims:      boutsIn(doc.Find(".fight-card-prelims")),
		EarlyPrelims: boutsIn(doc.Find(".fight-card-prelims-early")),
	}
	if card.Empty() {
		card.Main = boutsIn(doc.Selection)
	}
	if len(card.Main) > 0 && card.Main[0].Title == "" {
		card.Main[0].Title = "Main Event"
	}
	return card, nil
}

func boutsIn(section *goquery.Selection) []ufc.Bout {
	out := make([]ufc.Bout, 0, 6)
	section.Find(".c-listing-fight").Each(func(_ int, s *goquery.Selection) {
		red := cornerName(s.Find(".c-listing-fight__corner-name--red").First())
		blue := cornerName(s.Find(".c-listing-fight__corner-name--blue").First())
		if red == "" || blue == "" {
			return
		}
		weightClass, title := splitClassText(cleanText(s.Find(".c-listing-fight__class-text").First().Text()))
		out = append(out, ufc.Bout{
			Fighter1:    red,
			Fighter2:    blue,
			WeightClass: weightClass,
			Title:       title,
		})
	})
	return out
}

func cornerName(s *goquery.Selection) string {
	given := cleanText(s.Find(".c-listing-fight__corner-given-name").Text())
	family := cleanText(s.Find(".c-listing-fight__corner-family-name").Text())
	if name := strings.TrimSpace(given + " " + family); name != "" {
		return name
	}
	return cleanText(s.Text())
}

// splitClassText turns "Lightweight Title Bout" into ("Lightweight", "Title Fight").
func splitClassText(text string) (string, string) {
	text = strings.TrimSpace(strings.TrimSuffix(text, " Bout"))
	title := ""
	if idx := strings.Index(strings.ToLower(text), " title"); idx >= 0 {
		title = "Title Fight"
		text = strings.TrimSpace(text[:idx])
	}
	if text == "" {
		text = ufc.DefaultWeightClass
	}
	return text, title
}
