package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navrunner/internal/model"
)

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "meadow.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "meadow", sc.Name)
	require.Len(t, sc.Territories, 3)
	assert.Equal(t, Territory{ID: 397, Name: "Coerthas Western Highlands", MountAllowed: true, FlightAllowed: true}, sc.Territories[1])
	assert.False(t, sc.Territories[2].FlightAllowed)
	assert.Equal(t, model.TerritoryID(134), sc.Start.Territory)
	assert.Equal(t, []uint32{1, 71}, sc.OwnedMounts)
	assert.Equal(t, 5000, sc.MaxFrames)

	// Partial speeds keep defaults for the rest.
	want := DefaultSpeeds()
	want.Run = 6
	assert.Equal(t, want, sc.Speeds)

	assert.Equal(t, []model.Vec3{
		model.NewVec3(20, 0, 0),
		model.NewVec3(20, 5, 30),
		model.NewVec3(0, 0, 30),
	}, sc.Route())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "short point",
			body: "territories: [{id: 1}]\nstart: {territory: 1, position: [0, 0]}\n",
		},
		{
			name: "point not a sequence",
			body: "territories: [{id: 1}]\nstart: {territory: 1, position: origin}\n",
		},
		{
			name: "no territories",
			body: "start: {territory: 1, position: [0, 0, 0]}\n",
		},
		{
			name: "unknown start territory",
			body: "territories: [{id: 1}]\nstart: {territory: 2, position: [0, 0, 0]}\n",
		},
		{
			name: "duplicate territory",
			body: "territories: [{id: 1}, {id: 1}]\nstart: {territory: 1, position: [0, 0, 0]}\n",
		},
		{
			name: "zero speed",
			body: "territories: [{id: 1}]\nstart: {territory: 1, position: [0, 0, 0]}\nspeeds: {flying: 0}\n",
		},
		{
			name: "negative frame limit",
			body: "territories: [{id: 1}]\nstart: {territory: 1, position: [0, 0, 0]}\nmax_frames: -1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseScenario_Defaults(t *testing.T) {
	sc, err := ParseScenario([]byte("territories: [{id: 1}]\nstart: {territory: 1, position: [1, 2, 3]}\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSpeeds(), sc.Speeds)
	assert.Equal(t, defaultMaxFrames, sc.MaxFrames)
	assert.Equal(t, model.NewVec3(1, 2, 3), sc.Start.Position.Vec3())
	assert.Empty(t, sc.Route())
}
