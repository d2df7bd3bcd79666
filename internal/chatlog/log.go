// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatlog

// =============================================================================
// TYPES
// =============================================================================

// Variant is one alternative body of a turn.
type Variant struct {
	Text  string
	Image *string // base64 payload or data URL
}

// Turn is one contribution to the conversation.
type Turn struct {
	ID          uint32
	AIGenerated bool
	Stack       []Variant
	Selected    int
}

// SelectedVariant returns the variant currently chosen for display and
// prompting. The zero Variant is returned for an empty stack.
func (t Turn) SelectedVariant() Variant {
	if t.Selected < 0 || t.Selected >= len(t.Stack) {
		return Variant{}
	}
	return t.Stack[t.Selected]
}

// Text is shorthand for SelectedVariant().Text.
func (t Turn) Text() string {
	return t.SelectedVariant().Text
}

func (t Turn) clone() Turn {
	c := t
	c.Stack = make([]Variant, len(t.Stack))
	for i, v := range t.Stack {
		c.Stack[i] = Variant{Text: v.Text, Image: cloneString(v.Image)}
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Responder generates the next AI turn for a log.
type Responder interface {
	GenerateResponse()
}

// ResponderFunc adapts a plain function to Responder.
type ResponderFunc func()

// GenerateResponse calls f.
func (f ResponderFunc) GenerateResponse() { f() }

// =============================================================================
// LOG
// =============================================================================

// Log is an ordered sequence of turns.
type Log struct {
	nextID       uint32
	turns        []Turn
	responder    Responder
	regenerating bool

	listeners  []listener
	listenerID int
}

type listener struct {
	id int
	fn func()
}

// New returns an empty log. responder may be nil.
func New(responder Responder) *Log {
	return &Log{
		nextID:    1,
		responder: responder,
	}
}

// SetResponder replaces the response hook.
func (l *Log) SetResponder(r Responder) {
	l.responder = r
}

// OnChange registers fn to run after every mutation, after the listeners
// registered before it. The returned function removes the registration.
func (l *Log) OnChange(fn func()) (cancel func()) {
	l.listenerID++
	id := l.listenerID
	l.listeners = append(l.listeners, listener{id: id, fn: fn})
	return func() {
		for i, ln := range l.listeners {
			if ln.id == id {
				l.listeners = append(l.listeners[:i:i], l.listeners[i+1:]...)
				return
			}
		}
	}
}

func (l *Log) changed() {
	for _, ln := range l.listeners {
		ln.fn()
	}
}

func (l *Log) index(id uint32) int {
	for i := range l.turns {
		if l.turns[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddTurn appends a turn with a single variant and returns its id.
func (l *Log) AddTurn(text string, aiGenerated bool, image *string) uint32 {
	id := l.nextID
	l.nextID++
	l.turns = append(l.turns, Turn{
		ID:          id,
		AIGenerated: aiGenerated,
		Stack:       []Variant{{Text: text, Image: cloneString(image)}},
	})
	l.changed()
	return id
}

// PushVariant appends a variant to turn id and selects it.
func (l *Log) PushVariant(id uint32, text string, image *string) {
	i := l.index(id)
	if i < 0 {
		return
	}
	t := &l.turns[i]
	t.Stack = append(t.Stack, Variant{Text: text, Image: cloneString(image)})
	t.Selected = len(t.Stack) - 1
	l.changed()
}

// ReplaceSelectedVariant overwrites the selected variant of turn id.
func (l *Log) ReplaceSelectedVariant(id uint32, text string, image *string) {
	i := l.index(id)
	if i < 0 {
		return
	}
	t := &l.turns[i]
	if len(t.Stack) == 0 {
		t.Stack = []Variant{{Text: text, Image: cloneString(image)}}
		t.Selected = 0
	} else {
		t.Stack[t.Selected] = Variant{Text: text, Image: cloneString(image)}
	}
	l.changed()
}

// ShiftSelectedVariant moves the selection of turn id by delta, clamped to
// the stack bounds.
func (l *Log) ShiftSelectedVariant(id uint32, delta int) {
	i := l.index(id)
	if i < 0 || len(l.turns[i].Stack) == 0 {
		return
	}
	t := &l.turns[i]
	t.Selected = clamp(t.Selected+delta, 0, len(t.Stack)-1)
	l.changed()
}

// RemoveTurn deletes exactly the turn with the given id.
func (l *Log) RemoveTurn(id uint32) {
	i := l.index(id)
	if i < 0 {
		return
	}
	l.turns = append(l.turns[:i], l.turns[i+1:]...)
	l.changed()
}

// TruncateFrom deletes turn id and every turn after it.
func (l *Log) TruncateFrom(id uint32) {
	i := l.index(id)
	if i < 0 {
		return
	}
	l.turns = l.turns[:i]
	l.changed()
}

// TriggerResponseGeneration asks the responder for the next AI turn.
func (l *Log) TriggerResponseGeneration() {
	if l.responder != nil {
		l.responder.GenerateResponse()
	}
}

// SetRegenerating marks whether the next response replaces the newest turn.
func (l *Log) SetRegenerating(v bool) {
	if l.regenerating == v {
		return
	}
	l.regenerating = v
	l.changed()
}

// IsRegenerating reports the regenerating flag.
func (l *Log) IsRegenerating() bool {
	return l.regenerating
}

// =============================================================================
// READS
// =============================================================================

// Turns returns a deep copy of the turns in order.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	for i, t := range l.turns {
		out[i] = t.clone()
	}
	return out
}

// Turn returns a copy of turn id.
func (l *Log) Turn(id uint32) (Turn, bool) {
	i := l.index(id)
	if i < 0 {
		return Turn{}, false
	}
	return l.turns[i].clone(), true
}

// LastTurn returns a copy of the newest turn.
func (l *Log) LastTurn() (Turn, bool) {
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1].clone(), true
}

// Len returns the number of turns.
func (l *Log) Len() int {
	return len(l.turns)
}

// NextID returns the id the next AddTurn will assign.
func (l *Log) NextID() uint32 {
	return l.nextID
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
