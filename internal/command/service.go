package command

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"coords-bot/internal/alliance"
	"coords-bot/internal/planet"
	"coords-bot/internal/player"
	"coords-bot/internal/report"
	"coords-bot/internal/shared/config"
	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/errors"
	"coords-bot/internal/shared/metrics"
)

// Service resolves chat commands against the entity store. Each command runs
// in its own transaction, so a failure never leaves half of a command applied.
type Service struct {
	db        *database.DB
	alliances *alliance.Repository
	players   *player.Repository
	planets   *planet.Repository
	bot       config.BotConfig
	logger    *slog.Logger

	commands []*Command
	byName   map[string]*Command
}

func NewService(
	db *database.DB,
	alliances *alliance.Repository,
	players *player.Repository,
	planets *planet.Repository,
	bot config.BotConfig,
	logger *slog.Logger,
) *Service {
	logger.Debug("Initializing command service")

	s := &Service{
		db:        db,
		alliances: alliances,
		players:   players,
		planets:   planets,
		bot:       bot,
		logger:    logger,
		byName:    map[string]*Command{},
	}
	s.register()
	return s
}

func (s *Service) register() {
	s.commands = []*Command{
		{
			Name:        "add",
			Aliases:     []string{"post", "save", "update"},
			Brief:       "Add planets to database",
			Description: "Add or update a planet under a player name. MoonSize can be omitted, and can be used to add a moon to an already saved planet.",
			Usage:       "add playername galaxy system planet [moonsize]",
			Params: []Param{
				nameParam("player"),
				coordParam("galaxy"),
				coordParam("system"),
				coordParam("planet"),
				{Name: "moon", Type: paramInt, Optional: true, Min: 1, Max: math.MaxInt32},
			},
			usesStore: true,
			handler:   s.add,
		},
		{
			Name:        "delete",
			Aliases:     []string{"remove"},
			Brief:       "Delete planets from database",
			Description: "Delete a planet of a given player.",
			Usage:       "delete playername galaxy system planet",
			Params: []Param{
				nameParam("player"),
				coordParam("galaxy"),
				coordParam("system"),
				coordParam("planet"),
			},
			usesStore: true,
			handler:   s.delete,
		},
		{
			Name:        "get",
			Aliases:     []string{"coords", "view"},
			Brief:       "Display all data of a player",
			Description: "Retrieves all the saved information of the given player name.",
			Usage:       "get playername",
			Params:      []Param{nameParam("player")},
			usesStore:   true,
			handler:     s.get,
		},
		{
			Name:        "alliance",
			Aliases:     []string{"ally", "alli"},
			Brief:       "Associates a player to an alliance",
			Description: "Be careful of typing the alliance name correctly for better results in the members command.",
			Usage:       "alliance playername alliance_name",
			Params:      []Param{nameParam("player"), nameParam("alliance")},
			usesStore:   true,
			handler:     s.joinAlliance,
		},
		{
			Name:        "members",
			Aliases:     []string{"who", "list"},
			Brief:       "Displays all members of an alliance",
			Usage:       "members alliance_name",
			Params:      []Param{nameParam("alliance")},
			usesStore:   true,
			handler:     s.members,
		},
		{
			Name:        "wsa",
			Aliases:     []string{"techs", "tech"},
			Brief:       "Saves player techs",
			Description: "Saves player techs in order weapons, shields, armor.",
			Usage:       "wsa playername weapons shields armor",
			Params: []Param{
				nameParam("player"),
				textParam("weapons"),
				textParam("shields"),
				textParam("armor"),
			},
			usesStore: true,
			handler:   s.wsa,
		},
		{
			Name:      "info",
			Brief:     "Info about the bot",
			Usage:     "info",
			usesStore: true,
			handler:   s.info,
		},
		{
			Name:    "help",
			Aliases: []string{"commands"},
			Brief:   "Shows this message",
			Usage:   "help [command]",
			Params:  []Param{{Name: "command", Type: paramText, Optional: true}},
			handler: s.help,
		},
	}

	for _, c := range s.commands {
		s.byName[c.Name] = c
		for _, alias := range c.Aliases {
			s.byName[alias] = c
		}
	}
}

// Lookup resolves a command name or alias case-insensitively.
func (s *Service) Lookup(name string) (*Command, bool) {
	c, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Commands returns the registered commands in help order.
func (s *Service) Commands() []*Command {
	return s.commands
}

// Execute validates args for the named command, then runs it. Argument
// errors are returned before any storage access.
func (s *Service) Execute(ctx context.Context, name string, args []string) (*Result, error) {
	start := time.Now()
	cmd, ok := s.Lookup(name)
	if !ok {
		metrics.ObserveCommand("unknown", string(errors.ErrorTypeValidation), time.Since(start))
		return nil, errors.Validationf("unknown command %q, try %shelp", name, s.bot.Prefix)
	}
	logger := s.logger.With("component", "command_service", "operation", "execute", "command", cmd.Name)

	parsed, err := cmd.parse(args)
	if err != nil {
		metrics.ObserveCommand(cmd.Name, string(errors.GetType(err)), time.Since(start))
		return nil, err
	}

	var result *Result
	if cmd.usesStore {
		err = s.db.WithTx(ctx, func(tx *database.Tx) error {
			var txErr error
			result, txErr = cmd.handler(ctx, tx, parsed)
			return txErr
		})
	} else {
		result, err = cmd.handler(ctx, nil, parsed)
	}
	if err != nil {
		if errors.GetType(err) == errors.ErrorTypeInternal {
			err = errors.WrapInternal(cmd.Name+" failed", err)
		}
		metrics.ObserveCommand(cmd.Name, string(errors.GetType(err)), time.Since(start))
		return nil, err
	}

	metrics.ObserveCommand(cmd.Name, string(result.Kind), time.Since(start))
	logger.Debug("Command executed", "kind", result.Kind, "elapsed", time.Since(start))
	return result, nil
}

func (s *Service) add(ctx context.Context, tx *database.Tx, args *Args) (*Result, error) {
	p, err := s.players.GetOrCreate(ctx, args.String("player"), tx)
	if err != nil {
		return nil, err
	}
	pl, err := s.planets.GetOrCreate(ctx, args.Coordinates(), args.OptionalInt("moon"), tx)
	if err != nil {
		return nil, err
	}

	if !p.Persisted() {
		if err := s.players.Save(ctx, p, tx); err != nil {
			return nil, err
		}
	}
	pl.PlayerID = p.ID
	if err := s.planets.Save(ctx, pl, tx); err != nil {
		return nil, err
	}

	return success("add", fmt.Sprintf("Added planet %s to %s planets", pl, p.Name)), nil
}

func (s *Service) delete(ctx context.Context, tx *database.Tx, args *Args) (*Result, error) {
	// The player is only built in memory when absent; it is never saved here.
	p, err := s.players.GetOrCreate(ctx, args.String("player"), tx)
	if err != nil {
		return nil, err
	}

	coords := args.Coordinates()
	pl, err := s.planets.FindByCoordinates(ctx, coords, tx)
	switch {
	case errors.IsNotFound(err):
		pl = planet.New(coords, nil)
	case err != nil:
		return nil, err
	}

	if !p.Persisted() || !pl.Persisted() || pl.PlayerID != p.ID {
		return notFound("delete", fmt.Sprintf("%s didn't have planet %s", p.Name, pl)), nil
	}

	if err := s.planets.Delete(ctx, pl, tx); err != nil {
		return nil, err
	}
	return success("delete", fmt.Sprintf("Deleted planet %s in %s planets", pl, p.Name)), nil
}

func (s *Service) get(ctx context.Context, tx *database.Tx, args *Args) (*Result, error) {
	name := args.String("player")
	p, err := s.players.FindByName(ctx, name, tx)
	if errors.IsNotFound(err) {
		return notFound("get", fmt.Sprintf("No data saved for player '%s'", name)), nil
	}
	if err != nil {
		return nil, err
	}

	r, err := s.playerReport(ctx, tx, p)
	if err != nil {
		return nil, err
	}
	return rendered("get", r), nil
}

func (s *Service) playerReport(ctx context.Context, tx *database.Tx, p *player.Player) (report.PlayerReport, error) {
	r := report.PlayerReport{Name: p.Name, Planets: []string{}}

	if p.AllianceID != nil {
		a, err := s.alliances.GetByID(ctx, *p.AllianceID, tx)
		if err != nil {
			return r, err
		}
		r.Alliance = a.Name
	}
	if p.WSA != nil {
		r.WSA = p.WSA.String()
	}

	planets, err := s.planets.ListByPlayer(ctx, p.ID, tx)
	if err != nil {
		return r, err
	}
	for i := range planets {
		r.Planets = append(r.Planets, planets[i].String())
	}
	return r, nil
}

func (s *Service) joinAlliance(ctx context.Context, tx *database.Tx, args *Args) (*Result, error) {
	p, err := s.players.GetOrCreate(ctx, args.String("player"), tx)
	if err != nil {
		return nil, err
	}
	a, err := s.alliances.GetOrCreate(ctx, args.String("alliance"), tx)
	if err != nil {
		return nil, err
	}

	if err := s.alliances.Save(ctx, a, tx); err != nil {
		return nil, err
	}
	if err := s.players.SetAlliance(ctx, p, a.ID, tx); err != nil {
		return nil, err
	}

	return success("alliance", fmt.Sprintf("Updated alliance of %s", p.Name)), nil
}

func (s *Service) members(ctx context.Context, tx *database.Tx, args *Args) (*Result, error) {
	name := args.String("alliance")
	a, err := s.alliances.FindByName(ctx, name, tx)
	if errors.IsNotFound(err) {
		return notFound("members", fmt.Sprintf("No data saved for alliance '%s'", name)), nil
	}
	if err != nil {
		return nil, err
	}

	members, err := s.players.ListByAlliance(ctx, a.ID, tx)
	if err != nil {
		return nil, err
	}

	r := report.AllianceReport{Name: a.Name, Members: []string{}}
	for _, m := range members {
		r.Members = append(r.Members, m.Name)
	}
	return rendered("members", r), nil
}

func (s *Service) wsa(ctx context.Context, tx *database.Tx, args *Args) (*Result, error) {
	p, err := s.players.GetOrCreate(ctx, args.String("player"), tx)
	if err != nil {
		return nil, err
	}

	wsa := player.WSA{
		Weapons: args.String("weapons"),
		Shields: args.String("shields"),
		Armor:   args.String("armor"),
	}
	if err := s.players.SetWSA(ctx, p, wsa, tx); err != nil {
		return nil, err
	}

	return success("wsa", fmt.Sprintf("Updated wsa of %s", p.Name)), nil
}

func (s *Service) info(ctx context.Context, tx *database.Tx, _ *Args) (*Result, error) {
	players, err := s.players.Count(ctx, tx)
	if err != nil {
		return nil, err
	}
	planets, err := s.planets.Count(ctx, tx)
	if err != nil {
		return nil, err
	}
	alliances, err := s.alliances.Count(ctx, tx)
	if err != nil {
		return nil, err
	}

	return rendered("info", report.InfoReport{
		Bot:         s.bot.Name,
		Description: s.bot.Description,
		Author:      s.bot.Author,
		Players:     players,
		Planets:     planets,
		Alliances:   alliances,
	}), nil
}

func (s *Service) help(_ context.Context, _ *database.Tx, args *Args) (*Result, error) {
	r := report.HelpReport{Prefix: s.bot.Prefix}

	if name := args.String("command"); name != "" {
		cmd, ok := s.Lookup(name)
		if !ok {
			return nil, errors.Validationf("unknown command %q", name)
		}
		r.Detailed = true
		r.Commands = []report.HelpEntry{cmd.help()}
		return rendered("help", r), nil
	}

	for _, c := range s.commands {
		r.Commands = append(r.Commands, c.help())
	}
	return rendered("help", r), nil
}
