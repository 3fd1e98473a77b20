package player

import "strings"

// WSA holds a player's weapons, shields and armor tech levels as typed by
// the player, so values like "10a" survive.
type WSA struct {
	Weapons string `json:"weapons" yaml:"weapons"`
	Shields string `json:"shields" yaml:"shields"`
	Armor   string `json:"armor" yaml:"armor"`
}

// String formats the triple as "w/s/a".
func (w WSA) String() string {
	return strings.Join([]string{w.Weapons, w.Shields, w.Armor}, "/")
}

type Player struct {
	ID         int64
	Name       string
	AllianceID *int64
	WSA        *WSA
}

// New builds an unsaved player. name must already be normalized.
func New(name string) *Player {
	return &Player{Name: name}
}

// Persisted reports whether the player has a stored row.
func (p *Player) Persisted() bool {
	return p.ID != 0
}
