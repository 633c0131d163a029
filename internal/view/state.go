package view

import (
	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/share"
)

const (
	LoadingMessage     = "Loading..."
	UnsupportedMessage = "Geolocation is not supported"
	Title              = "Where am I right now?"
	SnapshotFilename   = "whereiam.now.png"
)

// State is everything a page renders for one moment.
type State struct {
	Message    string  `json:"message,omitempty"`
	Latitude   string  `json:"lat,omitempty"`
	Longitude  string  `json:"lon,omitempty"`
	Color1     string  `json:"color1,omitempty"`
	Color2     string  `json:"color2,omitempty"`
	Angle      float64 `json:"angle"`
	Background string  `json:"background"`
	Path       string  `json:"path,omitempty"`
	ShareLabel string  `json:"share_label"`

	// Position is the reading behind the state, nil while none is known.
	Position *geo.Position `json:"-"`
}

// NewState builds the state for pos. Without a position the message is the
// loading placeholder, or the unsupported notice when there is no location
// source at all.
func NewState(pos *geo.Position, supported bool) State {
	st := State{
		Angle:      geo.DefaultAngle,
		Background: geo.Background(nil),
		ShareLabel: share.ShareLabel,
	}
	if pos == nil {
		if supported {
			st.Message = LoadingMessage
		} else {
			st.Message = UnsupportedMessage
		}
		return st
	}

	p := *pos
	st.Position = &p
	st.Latitude = geo.FormatCoord(p.Latitude)
	st.Longitude = geo.FormatCoord(p.Longitude)
	st.Color1, st.Color2 = geo.Colors(p)
	st.Angle = geo.GradientAngle(p)
	st.Background = geo.Background(&p)
	st.Path = FormatPath(p)
	return st
}

// HasPosition reports whether the state shows coordinates.
func (s State) HasPosition() bool {
	return s.Position != nil
}
