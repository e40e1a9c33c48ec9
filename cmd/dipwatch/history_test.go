package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSnapshots(t *testing.T) {
	start := time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)
	state := game.GameState{
		Name:  "test",
		ID:    1,
		Date:  game.GameDate{Season: game.SeasonSpring, Year: 1901},
		Phase: game.PhaseDiplomacy,
		Countries: []game.CountryState{
			{Country: "England", Status: game.StatusReady},
		},
	}
	snapshots := []game.Snapshot{
		game.NewSnapshot(start, state),
		game.NewSnapshot(start.Add(time.Hour), state),
	}

	var text bytes.Buffer
	require.NoError(t, writeSnapshots(&text, snapshots, "text", codec.DefaultOptions()))
	assert.Contains(t, text.String(), "2022-01-01T12:00:00Z")
	assert.Contains(t, text.String(), "2022-01-01T13:00:00Z")

	var data bytes.Buffer
	require.NoError(t, writeSnapshots(&data, snapshots, "json", codec.DefaultOptions()))
	decoded, err := codec.Default().DecodeSnapshots(data.Bytes())
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.True(t, decoded[1].Time.Equal(start.Add(time.Hour)))
	assert.True(t, decoded[1].State.Equal(state))
}
