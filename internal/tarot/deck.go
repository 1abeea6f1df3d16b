package tarot

import (
	"math/rand/v2"

	"github.com/gosimple/slug"
)

type SpreadType string

const (
	SpreadOne   SpreadType = "one"
	SpreadThree SpreadType = "three"
)

type Card struct {
	Name     string `json:"name"`
	Reversed bool   `json:"reversed"`
}

type Spread struct {
	Type      SpreadType `json:"spread"`
	Cards     []Card     `json:"cards"`
	Positions []string   `json:"positions"`
}

var majorArcana = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress",
	"The Emperor", "The Hierophant", "The Lovers", "The Chariot",
	"Strength", "The Hermit", "Wheel of Fortune", "Justice",
	"The Hanged Man", "Death", "Temperance", "The Devil",
	"The Tower", "The Star", "The Moon", "The Sun",
	"Judgement", "The World",
}

var (
	positionsOne   = []string{"今日のメッセージ"}
	positionsThree = []string{"過去", "現在", "未来"}
)

// Dealer draws random spreads from the major arcana. The rand source is
// injectable so tests can seed deterministic draws.
type Dealer struct {
	rng *rand.Rand
}

func NewDealer(src rand.Source) *Dealer {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Dealer{rng: rand.New(src)}
}

func (d *Dealer) drawCard() Card {
	return Card{
		Name:     majorArcana[d.rng.IntN(len(majorArcana))],
		Reversed: d.rng.IntN(2) == 0,
	}
}

func (d *Dealer) Draw(spread SpreadType) Spread {
	if spread == SpreadThree {
		return Spread{
			Type:      SpreadThree,
			Cards:     []Card{d.drawCard(), d.drawCard(), d.drawCard()},
			Positions: positionsThree,
		}
	}

	return Spread{
		Type:      SpreadOne,
		Cards:     []Card{d.drawCard()},
		Positions: positionsOne,
	}
}

// ParseSpreadType maps a request value to a spread type, defaulting to one.
func ParseSpreadType(value string) (SpreadType, bool) {
	switch SpreadType(value) {
	case SpreadOne, "":
		return SpreadOne, true
	case SpreadThree:
		return SpreadThree, true
	default:
		return SpreadOne, false
	}
}

// ImagePath returns the static asset path for a card, e.g. "The Sun" -> "/tarot/the-sun.png".
func ImagePath(card Card) string {
	return "/tarot/" + slug.Make(card.Name) + ".png"
}
