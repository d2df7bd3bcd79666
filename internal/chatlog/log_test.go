// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAddTurn_AssignsIncreasingIDs(t *testing.T) {
	log := New(nil)
	assert.Equal(t, uint32(1), log.NextID())

	a := log.AddTurn("hi", false, nil)
	b := log.AddTurn("hello", true, nil)
	assert.Equal(t, uint32(1), a)
	assert.Equal(t, uint32(2), b)
	assert.Equal(t, uint32(3), log.NextID())

	turns := log.Turns()
	require.Len(t, turns, 2)
	assert.False(t, turns[0].AIGenerated)
	assert.True(t, turns[1].AIGenerated)
	assert.Equal(t, "hello", turns[1].Text())
}

func TestIDsNeverReused(t *testing.T) {
	log := New(nil)
	log.AddTurn("a", false, nil)
	b := log.AddTurn("b", true, nil)
	log.RemoveTurn(b)

	c := log.AddTurn("c", false, nil)
	assert.Equal(t, uint32(3), c)
}

func TestPushVariant_SelectsNewest(t *testing.T) {
	log := New(nil)
	id := log.AddTurn("first", true, nil)

	log.PushVariant(id, "second", nil)
	log.PushVariant(id, "third", nil)

	turn, ok := log.Turn(id)
	require.True(t, ok)
	assert.Len(t, turn.Stack, 3)
	assert.Equal(t, 2, turn.Selected)
	assert.Equal(t, "third", turn.Text())

	// Missing id is a no-op.
	log.PushVariant(99, "x", nil)
	assert.Equal(t, 1, log.Len())
}

func TestReplaceSelectedVariant(t *testing.T) {
	log := New(nil)
	id := log.AddTurn("a", false, nil)
	log.PushVariant(id, "b", nil)
	log.ShiftSelectedVariant(id, -1)

	log.ReplaceSelectedVariant(id, "edited", strPtr("img"))

	turn, _ := log.Turn(id)
	require.Len(t, turn.Stack, 2)
	assert.Equal(t, "edited", turn.Stack[0].Text)
	assert.Equal(t, "img", *turn.Stack[0].Image)
	assert.Equal(t, "b", turn.Stack[1].Text)
}

func TestShiftSelectedVariant_Clamps(t *testing.T) {
	log := New(nil)
	id := log.AddTurn("v0", true, nil)
	log.PushVariant(id, "v1", nil)
	log.PushVariant(id, "v2", nil)

	tests := []struct {
		delta int
		want  int
	}{
		{-1, 1},
		{-5, 0},
		{1, 1},
		{10, 2},
		{0, 2},
	}
	for _, tt := range tests {
		log.ShiftSelectedVariant(id, tt.delta)
		turn, _ := log.Turn(id)
		assert.Equal(t, tt.want, turn.Selected, "after delta %d", tt.delta)
	}

	// Missing id does not panic.
	log.ShiftSelectedVariant(42, 1)
}

func TestRemoveAndTruncate(t *testing.T) {
	log := New(nil)
	ids := []uint32{
		log.AddTurn("1", false, nil),
		log.AddTurn("2", true, nil),
		log.AddTurn("3", false, nil),
		log.AddTurn("4", true, nil),
	}

	log.RemoveTurn(ids[1])
	assert.Equal(t, 3, log.Len())
	_, ok := log.Turn(ids[1])
	assert.False(t, ok)

	log.TruncateFrom(ids[2])
	require.Equal(t, 1, log.Len())
	last, ok := log.LastTurn()
	require.True(t, ok)
	assert.Equal(t, ids[0], last.ID)

	log.TruncateFrom(1234)
	assert.Equal(t, 1, log.Len())
}

func TestTurns_ReturnsDeepCopy(t *testing.T) {
	log := New(nil)
	id := log.AddTurn("orig", false, strPtr("img"))

	turns := log.Turns()
	turns[0].Stack[0].Text = "mutated"
	*turns[0].Stack[0].Image = "changed"

	turn, _ := log.Turn(id)
	assert.Equal(t, "orig", turn.Text())
	assert.Equal(t, "img", *turn.SelectedVariant().Image)
}

func TestTriggerResponseGeneration(t *testing.T) {
	calls := 0
	log := New(ResponderFunc(func() { calls++ }))
	log.TriggerResponseGeneration()
	log.TriggerResponseGeneration()
	assert.Equal(t, 2, calls)

	assert.NotPanics(t, func() { New(nil).TriggerResponseGeneration() })
}

func TestOnChange(t *testing.T) {
	log := New(nil)
	var seen []int
	cancel := log.OnChange(func() { seen = append(seen, log.Len()) })

	id := log.AddTurn("a", false, nil)
	log.SetRegenerating(true)
	log.SetRegenerating(true)
	log.RemoveTurn(id)
	assert.Equal(t, []int{1, 1, 0}, seen)

	cancel()
	log.AddTurn("b", false, nil)
	assert.Len(t, seen, 3)
}

func TestOnChange_RegistrationOrder(t *testing.T) {
	log := New(nil)
	var order []string
	log.OnChange(func() { order = append(order, "first") })
	cancel := log.OnChange(func() { order = append(order, "second") })
	log.OnChange(func() { order = append(order, "third") })

	for i := 0; i < 5; i++ {
		order = nil
		log.AddTurn("x", false, nil)
		assert.Equal(t, []string{"first", "second", "third"}, order)
	}

	cancel()
	order = nil
	log.AddTurn("y", false, nil)
	assert.Equal(t, []string{"first", "third"}, order)

	// Cancelling twice is harmless.
	cancel()
	order = nil
	log.AddTurn("z", false, nil)
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestLastTurn_Empty(t *testing.T) {
	_, ok := New(nil).LastTurn()
	assert.False(t, ok)
}
