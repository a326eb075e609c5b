package keypad

import (
	"testing"
	"time"
)

func press(label string) PressEvent {
	return PressEvent{Label: label, At: time.Now()}
}

func TestTextBuffer_AppendsDigits(t *testing.T) {
	buf := NewTextBuffer(nil)

	for _, d := range []string{"4", "2", "0"} {
		buf.Apply(press(d))
	}

	if got := buf.Text(); got != "420" {
		t.Errorf("Text() = %q, want %q", got, "420")
	}
}

func TestTextBuffer_DeleteRemovesLast(t *testing.T) {
	buf := NewTextBuffer(nil)
	buf.Apply(press("1"))
	buf.Apply(press("2"))
	buf.Apply(press(LabelDelete))

	if got := buf.Text(); got != "1" {
		t.Errorf("Text() = %q, want %q", got, "1")
	}
}

func TestTextBuffer_DeleteOnEmptyIsNoop(t *testing.T) {
	buf := NewTextBuffer(nil)

	buf.Apply(press(LabelDelete))
	buf.Apply(press(LabelDelete))

	if got := buf.Text(); got != "" {
		t.Errorf("Text() = %q, want empty", got)
	}
}

func TestTextBuffer_EnterCommitsAndClears(t *testing.T) {
	var committed []string
	buf := NewTextBuffer(func(s string) { committed = append(committed, s) })

	buf.Apply(press("5"))
	buf.Apply(press("0"))
	buf.Apply(press(LabelEnter))

	if len(committed) != 1 || committed[0] != "50" {
		t.Fatalf("committed = %v, want [\"50\"]", committed)
	}
	if buf.Text() != "" {
		t.Errorf("buffer should be empty after commit, got %q", buf.Text())
	}
}

func TestTextBuffer_EmptyCommitPublishesEmptyString(t *testing.T) {
	var committed []string
	buf := NewTextBuffer(func(s string) { committed = append(committed, s) })

	buf.Apply(press(LabelEnter))

	// Empty commit still publishes: the consumer decides it means
	// "no amount entered", not zero.
	if len(committed) != 1 || committed[0] != "" {
		t.Fatalf("committed = %v, want [\"\"]", committed)
	}
}

func TestTextBuffer_Clear(t *testing.T) {
	buf := NewTextBuffer(nil)
	buf.Apply(press("7"))
	buf.Clear()

	if buf.Text() != "" {
		t.Errorf("buffer should be empty after Clear, got %q", buf.Text())
	}
}
