// Package report renders command outcomes for chat. Every report has a
// plain-text form and an embed form; turning an Embed into platform markup is
// the relay's job.
package report

import (
	"fmt"
	"strings"
)

// Embed colors, matching the classic Discord palette.
const (
	ColorDarkGreen = 0x1f8b4c
	ColorDarkRed   = 0x992d22
	ColorDarkGold  = 0xc27c0e
	ColorDarkBlue  = 0x206694
)

const (
	zeroWidthSpace = "\u200b"
	noneText       = "None"
)

type Field struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Inline bool   `json:"inline" yaml:"inline"`
}

type Embed struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Color       int     `json:"color" yaml:"color"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

type Report interface {
	Text() string
	Embed() Embed
}

// PlayerReport is everything stored about one player.
type PlayerReport struct {
	Name     string   `json:"name" yaml:"name"`
	Alliance string   `json:"alliance,omitempty" yaml:"alliance,omitempty"`
	WSA      string   `json:"wsa,omitempty" yaml:"wsa,omitempty"`
	Planets  []string `json:"planets" yaml:"planets"`
}

func (r PlayerReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Player: '%s'", r.Name)
	if r.Alliance != "" {
		fmt.Fprintf(&b, "\n  Alliance: '%s'", r.Alliance)
	}
	if r.WSA != "" {
		fmt.Fprintf(&b, "\n  WSA: %s", r.WSA)
	}
	b.WriteString("\n  Planets:")
	writeList(&b, r.Planets)
	return b.String()
}

func (r PlayerReport) Embed() Embed {
	e := Embed{
		Title:       bold(r.Name),
		Description: zeroWidthSpace,
		Color:       ColorDarkRed,
	}
	if r.Alliance != "" {
		e.Fields = append(e.Fields, Field{Name: "Alliance", Value: r.Alliance, Inline: true})
	}
	if r.WSA != "" {
		e.Fields = append(e.Fields, Field{Name: "WSA:", Value: r.WSA, Inline: true})
	}
	e.Fields = append(e.Fields, Field{Name: "Planets", Value: embedList(r.Planets)})
	return e
}

// AllianceReport lists the members of an alliance.
type AllianceReport struct {
	Name    string   `json:"name" yaml:"name"`
	Members []string `json:"members" yaml:"members"`
}

func (r AllianceReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alliance: '%s'", r.Name)
	b.WriteString("\n  Members:")
	writeList(&b, r.Members)
	return b.String()
}

func (r AllianceReport) Embed() Embed {
	return Embed{
		Title:       bold(r.Name),
		Description: zeroWidthSpace,
		Color:       ColorDarkGreen,
		Fields:      []Field{{Name: "Members", Value: embedList(r.Members)}},
	}
}

// InfoReport summarizes the bot and what it has stored.
type InfoReport struct {
	Bot         string `json:"bot" yaml:"bot"`
	Description string `json:"description" yaml:"description"`
	Author      string `json:"author" yaml:"author"`
	Players     int    `json:"players" yaml:"players"`
	Planets     int    `json:"planets" yaml:"planets"`
	Alliances   int    `json:"alliances" yaml:"alliances"`
}

func (r InfoReport) Text() string {
	return fmt.Sprintf("%s: %s\n  Author: %s\n  Saved players count: %d\n  Saved planets count: %d\n  Saved alliances count: %d",
		r.Bot, r.Description, r.Author, r.Players, r.Planets, r.Alliances)
}

func (r InfoReport) Embed() Embed {
	return Embed{
		Title:       r.Bot,
		Description: r.Description,
		Color:       ColorDarkGold,
		Fields: []Field{
			{Name: "Author", Value: r.Author, Inline: true},
			{Name: "Saved players count", Value: fmt.Sprint(r.Players), Inline: true},
			{Name: "Saved planets count", Value: fmt.Sprint(r.Planets), Inline: true},
			{Name: "Saved alliances count", Value: fmt.Sprint(r.Alliances), Inline: true},
		},
	}
}

// HelpEntry describes one command for the help listing.
type HelpEntry struct {
	Name        string   `json:"name" yaml:"name"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Brief       string   `json:"brief" yaml:"brief"`
	Usage       string   `json:"usage" yaml:"usage"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

type HelpReport struct {
	Prefix   string      `json:"prefix" yaml:"prefix"`
	Commands []HelpEntry `json:"commands" yaml:"commands"`
	// Detailed also prints descriptions and aliases, used for single-command help.
	Detailed bool `json:"detailed" yaml:"detailed"`
}

func (r HelpReport) Text() string {
	var b strings.Builder
	b.WriteString("Commands:")
	for _, c := range r.Commands {
		fmt.Fprintf(&b, "\n  %s%s - %s", r.Prefix, c.Usage, c.Brief)
		if r.Detailed {
			if c.Description != "" {
				fmt.Fprintf(&b, "\n    %s", c.Description)
			}
			if len(c.Aliases) > 0 {
				fmt.Fprintf(&b, "\n    Aliases: %s", strings.Join(c.Aliases, ", "))
			}
		}
	}
	return b.String()
}

func (r HelpReport) Embed() Embed {
	e := Embed{
		Title:       "Commands",
		Description: zeroWidthSpace,
		Color:       ColorDarkBlue,
	}
	for _, c := range r.Commands {
		value := c.Brief
		if r.Detailed && c.Description != "" {
			value += "\n" + c.Description
		}
		if len(c.Aliases) > 0 {
			value += "\nAliases: " + strings.Join(c.Aliases, ", ")
		}
		e.Fields = append(e.Fields, Field{Name: r.Prefix + c.Usage, Value: value})
	}
	return e
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("\n    " + noneText)
		return
	}
	for _, item := range items {
		b.WriteString("\n    " + item)
	}
}

func embedList(items []string) string {
	if len(items) == 0 {
		return bold(noneText)
	}
	return strings.Join(items, "\n")
}

func bold(s string) string {
	return "**" + s + "**"
}
