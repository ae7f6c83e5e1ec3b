package game

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api/color"
)

func newTestRoom(t *testing.T, playerIDs ...string) *Room {
	t.Helper()
	r := NewRoom("ABCD", playerIDs[0], rand.New(rand.NewSource(1)))
	for _, id := range playerIDs {
		require.NotNil(t, r.AddPlayer(id, "player-"+id))
	}
	return r
}

func hitAt(x, y float64) ThrowInput {
	return ThrowInput{Position: &color.Position{X: x, Y: y}}
}

func explicitMiss() ThrowInput {
	return ThrowInput{HitColorSet: true}
}

func TestRoom_AddPlayer(t *testing.T) {
	t.Parallel()

	r := NewRoom("ABCD", "alice", rand.New(rand.NewSource(1)))

	alice := r.AddPlayer("alice", "Alice")
	require.NotNil(t, alice)
	assert.True(t, alice.IsHost)
	assert.Equal(t, neutralColor, alice.Color)

	bob := r.AddPlayer("bob", "Bob")
	require.NotNil(t, bob)
	assert.False(t, bob.IsHost)

	assert.Nil(t, r.AddPlayer("bob", "Bob again"), "duplicate id rejected")

	require.NotNil(t, r.AddPlayer("carol", "Carol"))
	require.NotNil(t, r.AddPlayer("dave", "Dave"))
	assert.True(t, r.IsFull())
	assert.Nil(t, r.AddPlayer("eve", "Eve"), "room at capacity")
}

func TestRoom_AddPlayer_NotWaiting(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	require.NoError(t, r.Start())

	assert.Nil(t, r.AddPlayer("carol", "Carol"))
}

func TestRoom_Start(t *testing.T) {
	t.Parallel()

	t.Run("needs two players", func(t *testing.T) {
		r := newTestRoom(t, "alice")
		assert.ErrorIs(t, r.Start(), ErrInsufficientPlayers)
		assert.Equal(t, PhaseWaiting, r.Phase())
	})

	t.Run("snapshots turn order and resets players", func(t *testing.T) {
		r := newTestRoom(t, "alice", "bob", "carol")
		r.player("bob").Color = color.Color{R: 1, G: 2, B: 3}
		r.player("bob").Throws = 5

		require.NoError(t, r.Start())

		assert.Equal(t, PhasePlaying, r.Phase())
		assert.Equal(t, []string{"alice", "bob", "carol"}, r.turnOrder)
		assert.Equal(t, "alice", r.CurrentPlayer())
		assert.Equal(t, neutralColor, r.player("bob").Color)
		assert.Equal(t, 0, r.player("bob").Throws)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		r := newTestRoom(t, "alice", "bob")
		require.NoError(t, r.Start())
		assert.ErrorIs(t, r.Start(), ErrGameInProgress)
	})

	t.Run("fresh target on start when configured", func(t *testing.T) {
		r := newTestRoom(t, "alice", "bob")
		original := r.Target()

		fresh := true
		_, err := r.UpdateSettings(SettingsPatch{FreshTargetOnStart: &fresh})
		require.NoError(t, err)
		require.NoError(t, r.Start())

		assert.NotEqual(t, original, r.Target())
	})

	t.Run("target fixed by default", func(t *testing.T) {
		r := newTestRoom(t, "alice", "bob")
		original := r.Target()
		require.NoError(t, r.Start())
		assert.Equal(t, original, r.Target())
	})
}

func TestRoom_ProcessThrow_Guards(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")

	_, err := r.ProcessThrow("alice", hitAt(1, 0))
	assert.ErrorIs(t, err, ErrGameNotInProgress)

	require.NoError(t, r.Start())

	_, err = r.ProcessThrow("bob", hitAt(1, 0))
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestRoom_ProcessThrow_HitMixesColor(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	require.NoError(t, r.Start())

	res, err := r.ProcessThrow("alice", hitAt(1.5, 0))
	require.NoError(t, err)

	sample := color.ResolveHitColor(color.Position{X: 1.5, Y: 0}, color.WheelRadius)
	require.NotNil(t, sample)
	expected := color.Mix(neutralColor, *sample, mixWeight)

	assert.True(t, res.ColorChanged)
	require.NotNil(t, res.NewColor)
	assert.Equal(t, expected, *res.NewColor)
	assert.Equal(t, expected, r.player("alice").Color)
	assert.Equal(t, 1, r.player("alice").Throws)
	assert.True(t, res.Record.Hit)
	assert.Equal(t, "bob", r.CurrentPlayer(), "turn passed")
}

func TestRoom_ProcessThrow_MissStillCostsTurn(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob", "carol")
	require.NoError(t, r.Start())

	_, err := r.ProcessThrow("alice", hitAt(1, 0))
	require.NoError(t, err)
	assert.Equal(t, "bob", r.CurrentPlayer())

	res, err := r.ProcessThrow("bob", hitAt(5, 5))
	require.NoError(t, err)

	assert.False(t, res.ColorChanged)
	assert.Nil(t, res.NewColor)
	assert.False(t, res.Record.Hit)
	assert.Equal(t, neutralColor, r.player("bob").Color, "miss leaves color untouched")
	assert.Equal(t, 1, r.player("bob").Throws, "miss still counts a throw")
	assert.Equal(t, "carol", r.CurrentPlayer(), "miss still passes the turn")
}

func TestRoom_ProcessThrow_ExplicitMiss(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	require.NoError(t, r.Start())

	res, err := r.ProcessThrow("alice", explicitMiss())
	require.NoError(t, err)
	assert.False(t, res.ColorChanged)
	assert.False(t, res.Record.Hit)
}

func TestRoom_ProcessThrow_WinCondition(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	require.NoError(t, r.Start())

	r.target = color.Color{R: 100, G: 100, B: 100}
	r.settings.ColorTolerance = 30
	mixed := color.Color{R: 110, G: 95, B: 105}
	r.player("alice").Color = mixed

	// mixing toward the current color is a fixed point, so the post-mix
	// color stays at distance ~12.2 from the target
	res, err := r.ProcessThrow("alice", ThrowInput{HitColor: &mixed, HitColorSet: true})
	require.NoError(t, err)

	assert.Equal(t, "alice", res.WinnerID)
	require.NotNil(t, res.FinalColor)
	assert.Equal(t, mixed, *res.FinalColor)
	assert.Equal(t, PhaseFinished, r.Phase())

	_, err = r.ProcessThrow("bob", hitAt(1, 0))
	assert.ErrorIs(t, err, ErrGameNotInProgress, "finished room rejects throws")
}

func TestRoom_ProcessThrow_NoWinCheckOnMiss(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	require.NoError(t, r.Start())

	// player already inside tolerance, but a miss must not trigger the win
	r.target = neutralColor
	r.settings.ColorTolerance = 30

	res, err := r.ProcessThrow("alice", hitAt(10, 10))
	require.NoError(t, err)
	assert.Empty(t, res.WinnerID)
	assert.Equal(t, PhasePlaying, r.Phase())
}

func TestRoom_ProcessThrow_DrawOnExhaustedThrows(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	one := 1
	_, err := r.UpdateSettings(SettingsPatch{MaxThrows: &one})
	require.NoError(t, err)
	require.NoError(t, r.Start())

	res, err := r.ProcessThrow("alice", hitAt(10, 10))
	require.NoError(t, err)
	assert.False(t, res.Draw, "bob still has a throw left")

	res, err = r.ProcessThrow("bob", hitAt(10, 10))
	require.NoError(t, err)
	assert.True(t, res.Draw)
	assert.Empty(t, res.WinnerID)
	assert.Equal(t, PhaseFinished, r.Phase())
}

func TestRoom_ResolveThrowColor_GeometryWins(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	rim := color.Position{X: 3, Y: 0}
	sample := color.ResolveHitColor(rim, color.WheelRadius)
	require.NotNil(t, sample)

	t.Run("agreeing client color is kept", func(t *testing.T) {
		claimed := color.Color{R: 250, G: 5, B: 5}
		got := r.resolveThrowColor(ThrowInput{
			Position: &rim, HitColor: &claimed, HitColorSet: true,
		})
		require.NotNil(t, got)
		assert.Equal(t, claimed, *got)
	})

	t.Run("wild client color is overridden", func(t *testing.T) {
		claimed := color.Color{R: 0, G: 0, B: 255}
		got := r.resolveThrowColor(ThrowInput{
			Position: &rim, HitColor: &claimed, HitColorSet: true,
		})
		require.NotNil(t, got)
		assert.Equal(t, *sample, *got)
	})

	t.Run("claimed hit outside the wheel is a miss", func(t *testing.T) {
		out := color.Position{X: 9, Y: 9}
		claimed := color.Color{R: 255, G: 0, B: 0}
		assert.Nil(t, r.resolveThrowColor(ThrowInput{
			Position: &out, HitColor: &claimed, HitColorSet: true,
		}))
	})

	t.Run("client color trusted without position", func(t *testing.T) {
		claimed := color.Color{R: 1, G: 2, B: 3}
		got := r.resolveThrowColor(ThrowInput{HitColor: &claimed, HitColorSet: true})
		require.NotNil(t, got)
		assert.Equal(t, claimed, *got)
	})

	t.Run("nothing supplied is a miss", func(t *testing.T) {
		assert.Nil(t, r.resolveThrowColor(ThrowInput{}))
	})
}

func TestRoom_RemovePlayer(t *testing.T) {
	t.Parallel()

	t.Run("host transfer follows join order", func(t *testing.T) {
		r := newTestRoom(t, "alice", "bob", "carol")

		newHost, removed := r.RemovePlayer("alice")
		assert.True(t, removed)
		assert.Equal(t, "bob", newHost)
		assert.Equal(t, "bob", r.HostID())
		assert.True(t, r.player("bob").IsHost)
	})

	t.Run("non-host leave keeps host", func(t *testing.T) {
		r := newTestRoom(t, "alice", "bob")

		newHost, removed := r.RemovePlayer("bob")
		assert.True(t, removed)
		assert.Empty(t, newHost)
		assert.Equal(t, "alice", r.HostID())
	})

	t.Run("unknown player", func(t *testing.T) {
		r := newTestRoom(t, "alice")
		_, removed := r.RemovePlayer("mallory")
		assert.False(t, removed)
	})

	t.Run("leaving mid-game fixes the turn index", func(t *testing.T) {
		r := newTestRoom(t, "alice", "bob", "carol")
		require.NoError(t, r.Start())

		_, err := r.ProcessThrow("alice", hitAt(1, 0))
		require.NoError(t, err)
		_, err = r.ProcessThrow("bob", hitAt(1, 0))
		require.NoError(t, err)
		require.Equal(t, "carol", r.CurrentPlayer())

		_, removed := r.RemovePlayer("carol")
		assert.True(t, removed)
		assert.Equal(t, []string{"alice", "bob"}, r.turnOrder)
		assert.Equal(t, "alice", r.CurrentPlayer(), "index clamps back to the start")
	})
}

func TestRoom_Snapshot_SharesNoState(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, "alice", "bob")
	require.NoError(t, r.Start())
	_, err := r.ProcessThrow("alice", hitAt(1, 0))
	require.NoError(t, err)

	snap := r.Snapshot()
	assert.Equal(t, "bob", snap.CurrentPlayerID)
	assert.Len(t, snap.Throws, 1)

	if diff := cmp.Diff(snap, r.Snapshot()); diff != "" {
		t.Errorf("two snapshots of the same room differ (-first +second):\n%s", diff)
	}

	snap.Players[0].Color = color.Color{R: 9, G: 9, B: 9}
	snap.TurnOrder[0] = "mallory"

	assert.NotEqual(t, snap.Players[0].Color, r.player("alice").Color)
	assert.Equal(t, "alice", r.turnOrder[0])
}

func TestThrowInput_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("absent hit color delegates to resolver", func(t *testing.T) {
		var in ThrowInput
		require.NoError(t, json.Unmarshal([]byte(`{"hitPosition":{"x":1,"y":2},"power":0.8}`), &in))
		assert.False(t, in.HitColorSet)
		require.NotNil(t, in.Position)
		assert.Equal(t, 1.0, in.Position.X)
		assert.Equal(t, 0.8, in.Power)
	})

	t.Run("explicit null is a claimed miss", func(t *testing.T) {
		var in ThrowInput
		require.NoError(t, json.Unmarshal([]byte(`{"hitColor":null}`), &in))
		assert.True(t, in.HitColorSet)
		assert.Nil(t, in.HitColor)
	})

	t.Run("explicit color", func(t *testing.T) {
		var in ThrowInput
		require.NoError(t, json.Unmarshal([]byte(`{"hitColor":{"r":1,"g":2,"b":3}}`), &in))
		assert.True(t, in.HitColorSet)
		require.NotNil(t, in.HitColor)
		assert.Equal(t, color.Color{R: 1, G: 2, B: 3}, *in.HitColor)
	})
}

func TestSettings_Apply(t *testing.T) {
	t.Parallel()

	tol := func(v float64) *float64 { return &v }
	throws := func(v int) *int { return &v }
	speed := func(v float64) *float64 { return &v }
	diff := func(v string) *string { return &v }

	testCases := []struct {
		desc     string
		patch    SettingsPatch
		wantErr  bool
		expected func(Settings) Settings
	}{
		{
			desc:  "tolerance in range",
			patch: SettingsPatch{ColorTolerance: tol(45)},
			expected: func(s Settings) Settings {
				s.ColorTolerance = 45
				return s
			},
		},
		{desc: "negative tolerance rejected", patch: SettingsPatch{ColorTolerance: tol(-1)}, wantErr: true},
		{desc: "zero tolerance rejected", patch: SettingsPatch{ColorTolerance: tol(0)}, wantErr: true},
		{desc: "tolerance beyond diagonal rejected", patch: SettingsPatch{ColorTolerance: tol(500)}, wantErr: true},
		{desc: "zero throws rejected", patch: SettingsPatch{MaxThrows: throws(0)}, wantErr: true},
		{desc: "negative speed rejected", patch: SettingsPatch{DartSpeed: speed(-3)}, wantErr: true},
		{desc: "unknown difficulty rejected", patch: SettingsPatch{Difficulty: diff("nightmare")}, wantErr: true},
		{
			desc:  "difficulty adopts preset tolerance",
			patch: SettingsPatch{Difficulty: diff(DifficultyHard)},
			expected: func(s Settings) Settings {
				s.Difficulty = DifficultyHard
				s.ColorTolerance = 15
				return s
			},
		},
		{
			desc:  "explicit tolerance overrides preset",
			patch: SettingsPatch{Difficulty: diff(DifficultyEasy), ColorTolerance: tol(40)},
			expected: func(s Settings) Settings {
				s.Difficulty = DifficultyEasy
				s.ColorTolerance = 40
				return s
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			base := DefaultSettings()
			merged, err := base.apply(tc.patch)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSettings)
				assert.Equal(t, base, merged, "failed patch leaves settings untouched")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected(DefaultSettings()), merged)
		})
	}
}
