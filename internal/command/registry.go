package command

import (
	"context"
	"strconv"
	"strings"

	"coords-bot/internal/planet"
	"coords-bot/internal/report"
	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/errors"
	"coords-bot/internal/shared/normalize"
)

type paramType int

const (
	paramName paramType = iota
	paramInt
	paramText
)

// Param declares one positional argument.
type Param struct {
	Name     string
	Type     paramType
	Optional bool
	// Min and Max bound integer params, inclusive.
	Min int
	Max int
}

func nameParam(name string) Param {
	return Param{Name: name, Type: paramName}
}

func coordParam(name string) Param {
	return Param{Name: name, Type: paramInt, Min: 0, Max: planet.MaxCoordinate}
}

func textParam(name string) Param {
	return Param{Name: name, Type: paramText}
}

type handlerFunc func(ctx context.Context, tx *database.Tx, args *Args) (*Result, error)

// Command is one chat command and its argument contract.
type Command struct {
	Name        string
	Aliases     []string
	Brief       string
	Description string
	Usage       string
	Params      []Param

	// usesStore commands run inside a transaction.
	usesStore bool
	handler   handlerFunc
}

func (c *Command) help() report.HelpEntry {
	return report.HelpEntry{
		Name:        c.Name,
		Aliases:     c.Aliases,
		Brief:       c.Brief,
		Usage:       c.Usage,
		Description: c.Description,
	}
}

// Args holds validated, typed arguments keyed by param name.
type Args struct {
	texts map[string]string
	ints  map[string]int
}

func (a *Args) String(name string) string {
	return a.texts[name]
}

func (a *Args) Int(name string) int {
	return a.ints[name]
}

// OptionalInt returns nil when the argument was omitted.
func (a *Args) OptionalInt(name string) *int {
	v, ok := a.ints[name]
	if !ok {
		return nil
	}
	return &v
}

func (a *Args) Coordinates() planet.Coordinates {
	return planet.Coordinates{
		Galaxy: a.Int("galaxy"),
		System: a.Int("system"),
		Planet: a.Int("planet"),
	}
}

// parse checks arity and converts raw arguments. It never touches storage.
func (c *Command) parse(raw []string) (*Args, error) {
	required := 0
	for _, p := range c.Params {
		if !p.Optional {
			required++
		}
	}
	if len(raw) < required || len(raw) > len(c.Params) {
		return nil, errors.Validationf("invalid argument count for %s: expected %s, got %d (usage: %s)",
			c.Name, arity(required, len(c.Params)), len(raw), c.Usage)
	}

	args := &Args{texts: map[string]string{}, ints: map[string]int{}}
	for i, value := range raw {
		p := c.Params[i]
		switch p.Type {
		case paramName:
			name := normalize.Name(value)
			if name == "" {
				return nil, errors.Validationf("invalid argument: %s must not be empty", p.Name)
			}
			args.texts[p.Name] = name
		case paramText:
			text := strings.TrimSpace(value)
			if text == "" && !p.Optional {
				return nil, errors.Validationf("invalid argument: %s must not be empty", p.Name)
			}
			args.texts[p.Name] = text
		case paramInt:
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, errors.WrapValidation("invalid argument: "+p.Name+" must be an integer, got "+strconv.Quote(value), err)
			}
			if n < p.Min || n > p.Max {
				return nil, errors.Validationf("invalid argument: %s must be between %d and %d, got %d", p.Name, p.Min, p.Max, n)
			}
			args.ints[p.Name] = n
		}
	}
	return args, nil
}

func arity(required, total int) string {
	if required == total {
		return strconv.Itoa(total)
	}
	return strconv.Itoa(required) + "-" + strconv.Itoa(total)
}
