package modalstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNavigator(initial ...Entry) (*Navigator, *MemoryHistory) {
	h := NewMemoryHistory(HistoryState{Modals: initial})
	return NewNavigator(h, 0), h
}

func currentModals(t *testing.T, h *MemoryHistory) []Entry {
	t.Helper()
	state, ok := h.Current()
	require.True(t, ok)
	return state.Modals
}

func TestNavigator_RestoresFromHistory(t *testing.T) {
	nav, h := newNavigator(wo12, bld3, wo12)

	assert.Equal(t, []Entry{wo12}, nav.Entries(), "состояние нормализуется")
	assert.Equal(t, []Entry{wo12}, currentModals(t, h))
	assert.Equal(t, 1, h.Len())
}

func TestNavigator_OpenPushesHistory(t *testing.T) {
	nav, h := newNavigator()

	assert.Equal(t, ActionPush, nav.Open(wo12))
	assert.Equal(t, ActionPush, nav.Open(bld3))
	assert.Equal(t, ActionNone, nav.Open(bld3))
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "work_order:12,building:3", nav.Query())

	assert.Equal(t, ActionReplace, nav.Open(wo12))
	assert.Equal(t, 3, h.Len(), "повторное открытие переписывает запись истории")
	assert.Equal(t, []Entry{wo12}, currentModals(t, h))
}

func TestNavigator_CloseGoesBackWhenPossible(t *testing.T) {
	nav, h := newNavigator()
	nav.Open(wo12)
	nav.Open(bld3)
	require.Equal(t, 2, h.Index())

	assert.Equal(t, ActionPop, nav.Close())
	assert.Equal(t, 1, h.Index(), "закрытие — это шаг назад по истории")
	assert.Equal(t, []Entry{wo12}, nav.Entries())

	assert.True(t, nav.Forward(), "вперёд снова открывает закрытую карточку")
	assert.Equal(t, []Entry{wo12, bld3}, nav.Entries())
}

func TestNavigator_CloseReplacesWhenHistoryDiffers(t *testing.T) {
	nav, h := newNavigator(wo12, bld3)

	assert.Equal(t, ActionPop, nav.Close())
	assert.Equal(t, 0, h.Index())
	assert.Equal(t, []Entry{wo12}, currentModals(t, h))
	assert.Equal(t, ActionPop, nav.Close())
	assert.Equal(t, ActionNone, nav.Close())
	assert.Empty(t, currentModals(t, h))
}

func TestNavigator_ReplaceAndCloseTo(t *testing.T) {
	nav, h := newNavigator()
	nav.Open(wo12)
	nav.Open(bld3)

	assert.Equal(t, ActionReplace, nav.Replace(ast7))
	assert.Equal(t, []Entry{wo12, ast7}, currentModals(t, h))
	assert.Equal(t, 3, h.Len())

	nav.Open(inc5)
	assert.Equal(t, ActionReplace, nav.CloseTo(wo12))
	assert.Equal(t, []Entry{wo12}, currentModals(t, h))

	assert.Equal(t, ActionReplace, nav.CloseAll())
	assert.Empty(t, nav.Entries())
}

func TestNavigator_BackAndPopState(t *testing.T) {
	nav, _ := newNavigator()
	nav.Open(wo12)
	nav.Open(bld3)

	assert.True(t, nav.Back())
	assert.True(t, nav.Back())
	assert.Empty(t, nav.Entries())
	assert.False(t, nav.Back())

	nav.OnPopState(&HistoryState{Modals: []Entry{ast7, inc5}})
	assert.Equal(t, []Entry{ast7, inc5}, nav.Entries())
	layers := nav.Layers(100, 1)
	assert.True(t, layers[1].Active)
	assert.Equal(t, 101, layers[1].ZIndex)

	nav.OnPopState(nil)
	assert.Empty(t, nav.Entries())
}

func TestNavigator_PushAfterBackDropsForward(t *testing.T) {
	nav, h := newNavigator()
	nav.Open(wo12)
	nav.Open(bld3)
	nav.Back()

	nav.Open(ast7)
	assert.Equal(t, 3, h.Len())
	assert.False(t, nav.Forward())
	assert.Equal(t, []Entry{wo12, ast7}, nav.Entries())
}
