package command_test

import (
	"context"
	"log/slog"
	"testing"

	"coords-bot/internal/alliance"
	"coords-bot/internal/command"
	"coords-bot/internal/planet"
	"coords-bot/internal/player"
	"coords-bot/internal/report"
	"coords-bot/internal/shared/config"
	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/database/dbtest"
	"coords-bot/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db      *database.DB
	service *command.Service
	players *player.Repository
	planets *planet.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	logger := slog.New(slog.DiscardHandler)
	alliances := alliance.NewRepository(db, logger)
	players := player.NewRepository(db, logger)
	planets := planet.NewRepository(db, logger)
	bot := config.BotConfig{Prefix: "!", Name: "CoordsBot", Description: "A bot for storing and retrieving game data", Author: "Caerisse"}

	return &fixture{
		db:      db,
		service: command.NewService(db, alliances, players, planets, bot, logger),
		players: players,
		planets: planets,
	}
}

func (f *fixture) run(t *testing.T, name string, args ...string) *command.Result {
	t.Helper()
	res, err := f.service.Execute(context.Background(), name, args)
	require.NoError(t, err)
	return res
}

func (f *fixture) playerReport(t *testing.T, name string) report.PlayerReport {
	t.Helper()
	res := f.run(t, "get", name)
	require.Equal(t, command.KindSuccess, res.Kind, res.Message)
	r, ok := res.Report.(report.PlayerReport)
	require.True(t, ok)
	return r
}

func (f *fixture) info(t *testing.T) report.InfoReport {
	t.Helper()
	r, ok := f.run(t, "info").Report.(report.InfoReport)
	require.True(t, ok)
	return r
}

func TestAdd_RoundTrip(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "add", "alice", "2", "123", "5", "9400")
	assert.Equal(t, command.KindSuccess, res.Kind)
	assert.Equal(t, "Added planet 2:123:5 - Moon: 9400 to alice planets", res.Message)

	r := f.playerReport(t, "alice")
	assert.Equal(t, []string{"2:123:5 - Moon: 9400"}, r.Planets)
}

func TestAdd_MoonIsMergedNotCleared(t *testing.T) {
	f := newFixture(t)

	f.run(t, "add", "alice", "2", "123", "5", "9400")
	f.run(t, "add", "alice", "2", "123", "5")
	assert.Equal(t, []string{"2:123:5 - Moon: 9400"}, f.playerReport(t, "alice").Planets)

	f.run(t, "add", "alice", "2", "123", "5", "7000")
	assert.Equal(t, []string{"2:123:5 - Moon: 7000"}, f.playerReport(t, "alice").Planets)

	assert.Equal(t, 1, f.info(t).Planets)
}

func TestAdd_ReassignsOwnership(t *testing.T) {
	f := newFixture(t)

	f.run(t, "add", "alice", "1", "1", "1")
	f.run(t, "add", "bob", "1", "1", "1")

	assert.Empty(t, f.playerReport(t, "alice").Planets)
	assert.Equal(t, []string{"1:1:1"}, f.playerReport(t, "bob").Planets)
}

func TestAdd_PlanetsOrderedBySortKey(t *testing.T) {
	f := newFixture(t)

	f.run(t, "add", "alice", "10", "1", "1")
	f.run(t, "add", "alice", "2", "300", "4")
	f.run(t, "add", "alice", "2", "30", "4")

	assert.Equal(t, []string{"2:30:4", "2:300:4", "10:1:1"}, f.playerReport(t, "alice").Planets)
}

func TestNamesAreCaseInsensitive(t *testing.T) {
	f := newFixture(t)

	f.run(t, "add", "Foo", "1", "2", "3")
	f.run(t, "ADD", "foo", "4", "5", "6")

	r := f.playerReport(t, "FOO")
	assert.Equal(t, "foo", r.Name)
	assert.Len(t, r.Planets, 2)
	assert.Equal(t, 1, f.info(t).Players)
}

func TestAliasesResolve(t *testing.T) {
	f := newFixture(t)

	f.run(t, "save", "alice", "1", "2", "3")
	res := f.run(t, "coords", "alice")
	assert.Equal(t, command.KindSuccess, res.Kind)

	f.run(t, "ally", "alice", "x")
	res = f.run(t, "who", "x")
	assert.Equal(t, []string{"alice"}, res.Report.(report.AllianceReport).Members)
}

func TestDelete(t *testing.T) {
	t.Run("owned planet is removed", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "add", "alice", "1", "2", "3", "500")

		res := f.run(t, "delete", "alice", "1", "2", "3")
		assert.Equal(t, command.KindSuccess, res.Kind)
		assert.Equal(t, "Deleted planet 1:2:3 - Moon: 500 in alice planets", res.Message)
		assert.Empty(t, f.playerReport(t, "alice").Planets)
		assert.Zero(t, f.info(t).Planets)
	})

	t.Run("planet owned by someone else is kept", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "add", "bob", "1", "2", "3")
		f.run(t, "add", "alice", "9", "9", "9")

		res := f.run(t, "delete", "alice", "1", "2", "3")
		assert.Equal(t, command.KindNotFound, res.Kind)
		assert.Equal(t, "alice didn't have planet 1:2:3", res.Message)
		assert.Equal(t, []string{"1:2:3"}, f.playerReport(t, "bob").Planets)
		assert.Equal(t, 2, f.info(t).Planets)
	})

	t.Run("unknown player is not persisted", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "add", "bob", "1", "2", "3")

		res := f.run(t, "delete", "ghost", "1", "2", "3")
		assert.Equal(t, command.KindNotFound, res.Kind)
		assert.Equal(t, 1, f.info(t).Players)
	})

	t.Run("unknown planet", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "add", "alice", "1", "2", "3")

		res := f.run(t, "delete", "alice", "7", "7", "7")
		assert.Equal(t, command.KindNotFound, res.Kind)
		assert.Equal(t, "alice didn't have planet 7:7:7", res.Message)
	})
}

func TestGet_UnknownPlayerIsNotFoundAndNotCreated(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "get", "nobody")
	assert.Equal(t, command.KindNotFound, res.Kind)
	assert.Equal(t, "No data saved for player 'nobody'", res.Text())
	assert.Zero(t, f.info(t).Players)
}

func TestGet_FullReport(t *testing.T) {
	f := newFixture(t)

	f.run(t, "add", "alice", "2", "123", "5", "9400")
	f.run(t, "alliance", "alice", "Red")
	f.run(t, "wsa", "alice", "12", "11", "13")

	res := f.run(t, "get", "alice")
	want := "Player: 'alice'\n  Alliance: 'red'\n  WSA: 12/11/13\n  Planets:\n    2:123:5 - Moon: 9400"
	assert.Equal(t, want, res.Text())
}

func TestAllianceMembership(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "alliance", "zara", "x")
	assert.Equal(t, "Updated alliance of zara", res.Message)
	f.run(t, "alliance", "amy", "X")

	res = f.run(t, "members", "x")
	r := res.Report.(report.AllianceReport)
	assert.Equal(t, "x", r.Name)
	assert.Equal(t, []string{"amy", "zara"}, r.Members)

	t.Run("switching alliance moves the player", func(t *testing.T) {
		f.run(t, "alliance", "zara", "y")
		assert.Equal(t, []string{"amy"}, f.run(t, "members", "x").Report.(report.AllianceReport).Members)
		assert.Equal(t, []string{"zara"}, f.run(t, "members", "y").Report.(report.AllianceReport).Members)
	})

	t.Run("alliance without members renders None", func(t *testing.T) {
		f.run(t, "alliance", "amy", "z")
		res := f.run(t, "members", "x")
		assert.Equal(t, "Alliance: 'x'\n  Members:\n    None", res.Text())
	})

	t.Run("unknown alliance", func(t *testing.T) {
		res := f.run(t, "members", "nope")
		assert.Equal(t, command.KindNotFound, res.Kind)
	})
}

func TestWSA(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "wsa", "Alice", "10", "9", "8")
	assert.Equal(t, "Updated wsa of alice", res.Message)
	assert.Equal(t, "10/9/8", f.playerReport(t, "alice").WSA)

	f.run(t, "wsa", "alice", "11", "9", "8")
	assert.Equal(t, "11/9/8", f.playerReport(t, "alice").WSA)

	f.run(t, "wsa", "alice", "10a", "9", "8")
	assert.Equal(t, "10a/9/8", f.playerReport(t, "alice").WSA)
}

func TestPlayerUpdatesFromStaleReadsKeepOtherColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.run(t, "add", "alice", "1", "1", "1")

	t.Run("wsa after a concurrent alliance change", func(t *testing.T) {
		stale, err := f.players.GetOrCreate(ctx, "alice", nil)
		require.NoError(t, err)

		f.run(t, "alliance", "alice", "x")
		require.NoError(t, f.players.SetWSA(ctx, stale, player.WSA{Weapons: "1", Shields: "2", Armor: "3"}, nil))

		r := f.playerReport(t, "alice")
		assert.Equal(t, "x", r.Alliance)
		assert.Equal(t, "1/2/3", r.WSA)
	})

	t.Run("save after a concurrent wsa change", func(t *testing.T) {
		stale, err := f.players.GetOrCreate(ctx, "alice", nil)
		require.NoError(t, err)
		stale.AllianceID = nil
		stale.WSA = nil

		f.run(t, "wsa", "alice", "4", "5", "6")
		require.NoError(t, f.players.Save(ctx, stale, nil))

		r := f.playerReport(t, "alice")
		assert.Equal(t, "x", r.Alliance)
		assert.Equal(t, "4/5/6", r.WSA)
	})
}

func TestInfo_CountsDistinctRows(t *testing.T) {
	f := newFixture(t)

	f.run(t, "add", "alice", "1", "1", "1")
	f.run(t, "add", "alice", "1", "1", "1", "300")
	f.run(t, "add", "bob", "1", "1", "2")
	f.run(t, "add", "bob", "1", "1", "1")
	f.run(t, "add", "carol", "3", "3", "3")
	f.run(t, "delete", "carol", "3", "3", "3")
	f.run(t, "alliance", "bob", "x")

	info := f.info(t)
	assert.Equal(t, 3, info.Players)
	assert.Equal(t, 2, info.Planets)
	assert.Equal(t, 1, info.Alliances)
	assert.Equal(t, "CoordsBot", info.Bot)
}

func TestArgumentErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		command string
		args    []string
	}{
		{"unknown command", "launch", nil},
		{"too few args", "add", []string{"alice", "1", "2"}},
		{"too many args", "get", []string{"alice", "bob"}},
		{"non integer galaxy", "add", []string{"alice", "two", "123", "5"}},
		{"non integer moon", "add", []string{"alice", "2", "123", "5", "big"}},
		{"coordinate out of range", "add", []string{"alice", "2", "1000", "5"}},
		{"negative coordinate", "delete", []string{"alice", "-1", "1", "5"}},
		{"zero moon", "add", []string{"alice", "2", "1", "5", "0"}},
		{"moon above column range", "add", []string{"alice", "2", "1", "5", "2147483648"}},
		{"empty tech", "wsa", []string{"alice", "1", " ", "3"}},
		{"empty name", "alliance", []string{"alice", "  "}},
		{"info takes no args", "info", []string{"now"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.service.Execute(context.Background(), tt.command, tt.args)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, errors.ErrorTypeValidation, errors.GetType(err))
		})
	}

	info := f.info(t)
	assert.Zero(t, info.Players, "argument errors must not create rows")
	assert.Zero(t, info.Planets)
	assert.Zero(t, info.Alliances)
}

func TestPersistenceErrorRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The player row is written before the planet insert aborts.
	_, err := f.db.ExecContext(ctx, `CREATE TRIGGER planets_locked BEFORE INSERT ON planets
		BEGIN SELECT RAISE(ABORT, 'planets locked'); END`)
	require.NoError(t, err)

	_, err = f.service.Execute(ctx, "add", []string{"alice", "1", "2", "3"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeInternal, errors.GetType(err))
	assert.Equal(t, "command failed", errors.PublicMessage(err))

	count, err := f.players.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHelp(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "help")
	r := res.Report.(report.HelpReport)
	assert.Len(t, r.Commands, len(f.service.Commands()))
	assert.Contains(t, res.Text(), "!add playername galaxy system planet [moonsize]")

	res = f.run(t, "help", "ally")
	r = res.Report.(report.HelpReport)
	require.Len(t, r.Commands, 1)
	assert.Equal(t, "alliance", r.Commands[0].Name)

	_, err := f.service.Execute(context.Background(), "help", []string{"launch"})
	assert.Equal(t, errors.ErrorTypeValidation, errors.GetType(err))
}
