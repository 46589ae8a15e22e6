package eventparser

import "testing"

const eventPage = `<html><body>
<div class="main-card">
  <div class="c-listing-fight">
    <div class="c-listing-fight__class-text">Lightweight Title Bout</div>
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--red"><a><span class="c-listing-fight__corner-given-name">Ilia</span> <span class="c-listing-fight__corner-family-name">Topuria</span></a></div>
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--blue"><a><span class="c-listing-fight__corner-given-name">Charles</span> <span class="c-listing-fight__corner-family-name">Oliveira</span></a></div>
  </div>
  <div class="c-listing-fight">
    <div class="c-listing-fight__class-text">Flyweight Bout</div>
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--red">Brandon Royval</div>
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--blue">Joshua Van</div>
  </div>
</div>
<div class="fight-card-prelims">
  <div class="c-listing-fight">
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--red">Beneil Dariush</div>
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--blue">Renato Moicano</div>
  </div>
  <div class="c-listing-fight">
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--red">Only One Corner</div>
  </div>
</div>
<div class="fight-card-prelims-early">
  <div class="c-listing-fight">
    <div class="c-listing-fight__class-text">Women's Strawweight Bout</div>
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--red">Jasmine Jasudavicius</div>
    <div class="c-listing-fight__corner-name c-listing-fight__corner-name--blue">Lone'er Kavanagh</div>
  </div>
</div>
</body></html>`

func TestParseCard_SplitsSections(t *testing.T) {
	t.Parallel()

	card, err := ParseCard(eventPage)
	if err != nil {
		t.Fatalf("ParseCard error: %v", err)
	}
	if len(card.Main) != 2 || len(card.Prelims) != 1 || len(card.EarlyPrelims) != 1 {
		t.Fatalf("unexpected split %d/%d/%d", len(card.Main), len(card.Prelims), len(card.EarlyPrelims))
	}

	headliner := card.Main[0]
	if headliner.Fighter1 != "Ilia Topuria" || headliner.Fighter2 != "Charles Oliveira" {
		t.Fatalf("unexpected headliner %+v", headliner)
	}
	if headliner.WeightClass != "Lightweight" || headliner.Title != "Title Fight" {
		t.Fatalf("unexpected class/title %+v", headliner)
	}
	if card.Main[1].WeightClass != "Flyweight" || card.Main[1].Title != "" {
		t.Fatalf("unexpected co-main %+v", card.Main[1])
	}
	if card.Prelims[0].WeightClass != "TBD" {
		t.Fatalf("expected unknown class to be TBD, got %q", card.Prelims[0].WeightClass)
	}
	if card.EarlyPrelims[0].WeightClass != "Women's Strawweight" {
		t.Fatalf("unexpected early prelim class %q", card.EarlyPrelims[0].WeightClass)
	}
}

func TestParseCard_WithoutSectionsMarksMainEvent(t *testing.T) {
	t.Parallel()

	card, err := ParseCard(`<ul><li class="c-listing-fight"><div class="c-listing-fight__corner-name--red">A Fighter</div><div class="c-listing-fight__corner-name--blue">B Fighter</div></li></ul>`)
	if err != nil {
		t.Fatalf("ParseCard error: %v", err)
	}
	if len(card.Main) != 1 || card.Main[0].Title != "Main Event" {
		t.Fatalf("unexpected card %+v", card)
	}
}
