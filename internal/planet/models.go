package planet

import "fmt"

type Planet struct {
	ID         int64  `json:"-"`
	SortKey    string `json:"sort_key"`
	DisplayKey string `json:"coords"`
	Galaxy     int    `json:"galaxy"`
	System     int    `json:"system"`
	Position   int    `json:"planet"`
	Moon       *int   `json:"moon,omitempty"`
	PlayerID   int64  `json:"-"`
}

// New builds an unsaved planet at c.
func New(c Coordinates, moon *int) *Planet {
	return &Planet{
		SortKey:    c.SortKey(),
		DisplayKey: c.DisplayKey(),
		Galaxy:     c.Galaxy,
		System:     c.System,
		Position:   c.Planet,
		Moon:       moon,
	}
}

func (p *Planet) Coordinates() Coordinates {
	return Coordinates{Galaxy: p.Galaxy, System: p.System, Planet: p.Position}
}

// Persisted reports whether the planet has a stored row.
func (p *Planet) Persisted() bool {
	return p.ID != 0
}

// String renders the planet the way chat reports list it.
func (p *Planet) String() string {
	if p.Moon != nil {
		return fmt.Sprintf("%s - Moon: %d", p.DisplayKey, *p.Moon)
	}
	return p.DisplayKey
}
