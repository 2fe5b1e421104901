package notify

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitOrder(t *testing.T) {
	l := NewList[int]("potential", quietLogger())
	var got []string
	l.Add(func(v int) { got = append(got, "first") })
	l.Add(func(v int) { got = append(got, "second") })
	l.Emit(1)

	if want := []string{"first", "second"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPanickingListenerIsolated(t *testing.T) {
	l := NewList[string]("feedback", quietLogger())
	var got []string
	l.Add(func(v string) { got = append(got, "a:"+v) })
	l.Add(func(string) { panic("boom") })
	l.Add(func(v string) { got = append(got, "c:"+v) })

	l.Emit("x")
	l.Emit("y")

	want := []string{"a:x", "c:x", "a:y", "c:y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRemove(t *testing.T) {
	l := NewList[int]("score", quietLogger())
	calls := 0
	remove := l.Add(func(int) { calls++ })
	l.Add(func(int) { calls += 10 })

	remove()
	remove()
	l.Emit(0)

	if calls != 10 {
		t.Errorf("calls = %d, want 10", calls)
	}
	if l.Len() != 1 {
		t.Errorf("len = %d, want 1", l.Len())
	}
}
