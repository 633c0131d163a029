package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/share"
)

func TestNewStateWithoutPosition(t *testing.T) {
	st := NewState(nil, true)
	assert.Equal(t, LoadingMessage, st.Message)
	assert.Equal(t, "black", st.Background)
	assert.False(t, st.HasPosition())
	assert.Equal(t, share.ShareLabel, st.ShareLabel)

	st = NewState(nil, false)
	assert.Equal(t, UnsupportedMessage, st.Message)
	assert.False(t, st.HasPosition())
}

func TestNewStateWithPosition(t *testing.T) {
	p := geo.Position{Latitude: 0, Longitude: 0, Heading: geo.Float(180)}
	st := NewState(&p, true)

	require.True(t, st.HasPosition())
	assert.Empty(t, st.Message)
	assert.Equal(t, "0.00000000", st.Latitude)
	assert.Equal(t, "0.00000000", st.Longitude)
	assert.Equal(t, "7fffff", st.Color1)
	assert.Equal(t, "7fffff", st.Color2)
	assert.Equal(t, 180.0, st.Angle)
	assert.Equal(t, "linear-gradient(180deg, #7fffff, #7fffff)", st.Background)
	assert.Equal(t, "/0,0", st.Path)

	// The state keeps its own copy.
	p.Latitude = 45
	assert.Equal(t, 0.0, st.Position.Latitude)
}
