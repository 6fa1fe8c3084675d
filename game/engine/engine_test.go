package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, config *LevelConfig) *GameEngine {
	t.Helper()
	e, err := NewEngine(config)
	require.NoError(t, err)
	_, err = e.Resize(testViewport)
	require.NoError(t, err)
	return e
}

func goalOnlyConfig() *LevelConfig {
	config := createValidConfig()
	config.Pieces = []Piece{
		{ID: 1, Col: 0, Row: 0, Width: 1, Height: 1},
		{ID: 2, Col: 2, Row: 2, Width: 2, Height: 2, Goal: true},
	}
	return config
}

func TestNewEngine(t *testing.T) {
	config := createValidConfig()
	e, err := NewEngine(config)
	require.NoError(t, err)

	state := e.GetState()
	assert.Equal(t, "Test Level", state.ConfigName)
	assert.Equal(t, config.Messages.Welcome, state.Message)
	assert.Equal(t, 0, state.TotalMoves)
	assert.Empty(t, state.MoveHistory)
	assert.False(t, state.Solved)
	assert.Nil(t, state.Layout)
	assert.Nil(t, state.Positions)
	assert.Len(t, state.Rows, 5)
	assert.Same(t, config, e.GetConfig())

	config.Name = ""
	_, err = NewEngine(config)
	assert.Error(t, err)
}

func TestEngineSlideRecordsHistory(t *testing.T) {
	e := newTestEngine(t, createValidConfig())

	result, err := e.Slide(2, "right", 1)
	require.NoError(t, err)
	assert.True(t, result.Moved)

	_, err = e.Slide(2, "down", 1)
	require.NoError(t, err)

	history := e.GetMoveHistory()
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].MoveNumber)
	assert.Equal(t, SourceSlide, history[0].Source)
	assert.Equal(t, 2, history[1].MoveNumber)
	assert.Equal(t, &history[1], e.GetLastMove())
	assert.Equal(t, 2, e.GetState().TotalMoves)
}

func TestEngineSlideErrors(t *testing.T) {
	e := newTestEngine(t, createValidConfig())

	_, err := e.Slide(2, "sideways", 1)
	assert.ErrorIs(t, err, ErrInvalidDirection)

	_, err = e.Slide(2, "left", 1)
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Equal(t, "Blocked!", e.GetState().Message)
	assert.Nil(t, e.GetLastMove())
}

func TestEngineGestureSolves(t *testing.T) {
	e := newTestEngine(t, goalOnlyConfig())
	fired := 0
	e.SetSolvedHandler(func() { fired++ })

	require.True(t, e.BeginGesture(325, 325))
	require.NoError(t, e.UpdateGesture(325, 435))
	rect, err := e.CurrentRectangle(2)
	require.NoError(t, err)
	assert.Equal(t, NewRect(220, 330, 210, 210), rect)
	assert.NotNil(t, e.GetState().Gesture)
	_, err = e.EndGesture()
	require.NoError(t, err)

	require.True(t, e.BeginGesture(325, 435))
	require.NoError(t, e.UpdateGesture(215, 435))
	result, err := e.CancelGesture()
	require.NoError(t, err)
	assert.True(t, result.NewlySolved)

	state := e.GetState()
	assert.True(t, state.Solved)
	assert.True(t, e.IsSolved())
	assert.Equal(t, "Solved!", state.Message)
	assert.Equal(t, 2, state.TotalMoves)
	assert.Equal(t, SourceGesture, state.MoveHistory[1].Source)
	assert.True(t, state.MoveHistory[1].Solved)
	assert.Equal(t, 1, fired)
	assert.Empty(t, e.GetPossibleMoves())
}

func TestEngineResizeCommitsActiveGesture(t *testing.T) {
	e := newTestEngine(t, goalOnlyConfig())

	require.True(t, e.BeginGesture(325, 325))
	require.NoError(t, e.UpdateGesture(325, 435))

	layout, err := e.Resize(Viewport{Width: 230, Height: 300, Spacing: 10})
	require.NoError(t, err)
	assert.Equal(t, 50.0, layout.CellSize)

	state := e.GetState()
	assert.Nil(t, state.Gesture)
	assert.Equal(t, 1, state.TotalMoves)
	assert.Equal(t, NewRect(120, 180, 110, 110), state.Positions[2])
}

func TestEngineReset(t *testing.T) {
	e := newTestEngine(t, createValidConfig())

	_, err := e.Slide(2, "right", 1)
	require.NoError(t, err)

	state := e.Reset()
	assert.Equal(t, createValidConfig().Pieces, state.Pieces)
	assert.Equal(t, "Welcome to the test level!", state.Message)
	// history survives a reset
	assert.Equal(t, 1, state.TotalMoves)
	assert.Len(t, state.MoveHistory, 1)
	// and so does the layout
	assert.NotNil(t, state.Layout)
}

func TestEngineSetState(t *testing.T) {
	e := newTestEngine(t, createValidConfig())
	_, err := e.Slide(2, "right", 1)
	require.NoError(t, err)
	saved := e.GetState()

	restored := newTestEngine(t, createValidConfig())
	require.NoError(t, restored.SetState(saved))

	got := restored.GetState()
	assert.Equal(t, saved.Pieces, got.Pieces)
	assert.Equal(t, saved.TotalMoves, got.TotalMoves)
	assert.Equal(t, saved.MoveHistory, got.MoveHistory)
	assert.Equal(t, saved.Positions, got.Positions)

	assert.Error(t, restored.SetState(nil))

	bad := *saved
	bad.Pieces = append([]Piece{}, saved.Pieces...)
	bad.Pieces[0].Col = bad.Pieces[1].Col
	assert.ErrorIs(t, restored.SetState(&bad), ErrPieceOverlap)
	// a failed restore leaves the engine untouched
	assert.Equal(t, saved.Pieces, restored.GetState().Pieces)
}

func TestEngineSetConfig(t *testing.T) {
	e := newTestEngine(t, createValidConfig())
	_, err := e.Slide(2, "right", 1)
	require.NoError(t, err)

	require.NoError(t, e.SetConfig(DefaultLevelConfig()))
	state := e.GetState()
	assert.Equal(t, "Classic", state.ConfigName)
	assert.Equal(t, 0, state.TotalMoves)
	assert.Len(t, state.Pieces, 10)
	assert.NotNil(t, state.Layout)

	invalid := createValidConfig()
	invalid.Width = 0
	assert.Error(t, e.SetConfig(invalid))
	assert.Equal(t, "Classic", e.GetConfig().Name)
}

func TestEngineWithoutPush(t *testing.T) {
	config := DefaultLevelConfig()
	noPush := false
	config.AllowPush = &noPush
	e := newTestEngine(t, config)

	_, err := e.Slide(1, "right", 1)
	assert.ErrorIs(t, err, ErrIllegalMove)

	for _, m := range e.GetPossibleMoves() {
		assert.Empty(t, m.Pushes)
	}
}
