package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/smartmechanic/internal/models"
)

type recorder struct {
	mu    sync.Mutex
	moves []transition
}

func (r *recorder) record(from, to Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, transition{from: from, to: to})
}

func newStarted(t *testing.T) (*Navigator, *recorder) {
	t.Helper()
	rec := &recorder{}
	n := NewNavigator(rec.record)
	require.NoError(t, n.FinishIntro())
	return n, rec
}

func TestNavigatorStartsInSplash(t *testing.T) {
	n := NewNavigator(nil)
	assert.Equal(t, ModeSplash, n.Mode())

	_, err := n.Navigate(ModeDecoder)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ModeSplash, n.Mode())

	require.NoError(t, n.FinishIntro())
	assert.Equal(t, ModeHome, n.Mode())
}

func TestNavigateEveryMode(t *testing.T) {
	n, rec := newStarted(t)

	for _, from := range AppModes {
		for _, to := range AppModes {
			_, err := n.Navigate(from)
			require.NoError(t, err)
			changed, err := n.Navigate(to)
			require.NoError(t, err)
			assert.Equal(t, from != to, changed, "%s -> %s", from, to)
			assert.Equal(t, to, n.Mode())
		}
	}
	assert.NotEmpty(t, rec.moves)
	assert.Equal(t, transition{from: ModeSplash, to: ModeHome}, rec.moves[0])
}

func TestNavigateSameModeNoop(t *testing.T) {
	n, rec := newStarted(t)
	before := len(rec.moves)

	changed, err := n.Navigate(ModeHome)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, rec.moves, before)
}

func TestNavigateUnknownMode(t *testing.T) {
	n, _ := newStarted(t)
	_, err := n.Navigate(Mode("SETTINGS"))
	assert.ErrorIs(t, err, ErrUnknownMode)
	_, err = n.Navigate(ModeSplash)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestLoginLogout(t *testing.T) {
	n, rec := newStarted(t)

	_, err := n.Navigate(ModeMaintenance)
	require.NoError(t, err)
	require.NoError(t, n.Logout())
	assert.Equal(t, ModeAuth, n.Mode())

	require.NoError(t, n.Logout())
	assert.Equal(t, ModeAuth, n.Mode())

	require.NoError(t, n.Login())
	assert.Equal(t, ModeHome, n.Mode())
	assert.Equal(t, transition{from: ModeAuth, to: ModeHome}, rec.moves[len(rec.moves)-1])

	_, err = n.Navigate(ModeChat)
	require.NoError(t, err)
	require.NoError(t, n.Login())
	assert.Equal(t, ModeChat, n.Mode())
}

func TestSearchRouting(t *testing.T) {
	n, _ := newStarted(t)

	route, ok, err := n.Search("turbo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ModeSensors, route.Mode)
	assert.Equal(t, "turbo", n.Snapshot().SearchSeed)

	route, ok, err = n.Search("128")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ModeDecoder, route.Mode)
	assert.Equal(t, ModeDecoder, n.Mode())

	_, ok, err = n.Search("   ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ModeDecoder, n.Mode())
}

func TestMenuNavigationClearsSearchSeed(t *testing.T) {
	n, _ := newStarted(t)

	_, _, err := n.Search("PID 100")
	require.NoError(t, err)
	assert.Equal(t, "PID 100", n.Snapshot().SearchSeed)

	// 已在传感器页面时保留搜索词
	changed, err := n.Navigate(ModeSensors)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "PID 100", n.Snapshot().SearchSeed)

	_, err = n.Navigate(ModeHome)
	require.NoError(t, err)
	_, err = n.Navigate(ModeSensors)
	require.NoError(t, err)
	assert.Empty(t, n.Snapshot().SearchSeed)
}

func TestBrandSelection(t *testing.T) {
	n, _ := newStarted(t)

	brand, model := n.Vehicle()
	assert.Equal(t, models.BrandRenault, brand)
	assert.Empty(t, model)

	assert.ErrorIs(t, n.SelectModel("FH"), ErrBrandRequired)

	n.SelectBrand(models.BrandVolvo)
	require.NoError(t, n.SelectModel("FH"))
	assert.ErrorIs(t, n.SelectModel("Magnum"), ErrUnknownModel)

	brand, model = n.Vehicle()
	assert.Equal(t, models.BrandVolvo, brand)
	assert.Equal(t, "FH", model)

	n.SelectBrand(models.BrandDAF)
	snap := n.Snapshot()
	assert.Equal(t, models.BrandDAF, snap.Brand)
	assert.Empty(t, snap.Model)
}

func TestOnChangeMayReadNavigator(t *testing.T) {
	var n *Navigator
	var seen []Mode
	n = NewNavigator(func(_, _ Mode) {
		seen = append(seen, n.Mode())
	})
	require.NoError(t, n.FinishIntro())
	_, err := n.Navigate(ModeOBD)
	require.NoError(t, err)
	assert.Equal(t, []Mode{ModeHome, ModeOBD}, seen)
}
