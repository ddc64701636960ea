package allocator

import (
	"testing"

	"airspace-allocator/window"

	"github.com/stretchr/testify/require"
)

var testPool = []FrequencyPair{
	{Pair: "17/80", Chattermark: "246.8"},
	{Pair: "18/81", Chattermark: "333"},
	{Pair: "19/82", Chattermark: "357"},
	{Pair: "20/83", Chattermark: "246.9"},
	{Pair: "21/84", Chattermark: "299.2"},
}

var testRules = map[string]AirspaceRule{
	"FTX": {SlotsNeeded: 2, PreferredArea: MOA2},
	"BFM": {SlotsNeeded: 2, PreferredArea: MOA2},
	"FRM": {SlotsNeeded: 1, PreferredArea: Area4},
	"DIV": {SlotsNeeded: 2, PreferredArea: Area4},
	"NFR": {SlotsNeeded: 1, PreferredArea: Area4},
	"SLD": {SlotsNeeded: 2, PreferredArea: Area4},
	"TAC": {SlotsNeeded: 2, PreferredArea: Area4},
	"DTF": {SlotsNeeded: 2, PreferredArea: MOA2},
}

func testConfig() Config {
	return Config{Pool: testPool, Rules: testRules, Capacity: DefaultCapacity}
}

func mustFlight(t *testing.T, id, takeoff, land string) *FlightEvent {
	t.Helper()
	f, err := NewFlightEvent(id, takeoff, land, "")
	require.NoError(t, err)
	return f
}

func mustWindow(t *testing.T, takeoff, land string) window.Window {
	t.Helper()
	w, err := window.Parse(takeoff, land)
	require.NoError(t, err)
	return w
}

func mustRun(t *testing.T, cfg Config, flights []*FlightEvent, transit []window.Window) *Outcome {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	out, err := e.Run(flights, transit)
	require.NoError(t, err)
	return out
}
