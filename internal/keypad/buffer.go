package keypad

// TextBuffer is the edit buffer driven by key-press events: digits append,
// Delete drops the last character, Enter publishes the pending text through
// the commit callback and clears the buffer.
type TextBuffer struct {
	pending  []rune
	onCommit func(string)
}

// NewTextBuffer creates an empty TextBuffer. onCommit is invoked with the
// pending text when Enter is applied; it may be nil.
func NewTextBuffer(onCommit func(string)) *TextBuffer {
	return &TextBuffer{onCommit: onCommit}
}

// Apply mutates the buffer according to the press event's label.
//
// Delete on an empty buffer is a no-op, never an error. Enter on an empty
// buffer still publishes ""; the consumer must treat that as "no amount
// entered", not as zero.
func (b *TextBuffer) Apply(ev PressEvent) {
	switch ev.Label {
	case LabelDelete:
		if len(b.pending) > 0 {
			b.pending = b.pending[:len(b.pending)-1]
		}
	case LabelEnter:
		text := string(b.pending)
		b.pending = b.pending[:0]
		if b.onCommit != nil {
			b.onCommit(text)
		}
	default:
		b.pending = append(b.pending, []rune(ev.Label)...)
	}
}

// Text returns the pending (uncommitted) buffer contents.
func (b *TextBuffer) Text() string {
	return string(b.pending)
}

// Clear discards the pending contents without publishing them.
func (b *TextBuffer) Clear() {
	b.pending = b.pending[:0]
}
