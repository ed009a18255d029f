package events

import "testing"

type probe struct {
	fired int
	arg   int
}

func (p *probe) callback(arg int) {
	p.fired++
	p.arg = arg
}

func TestAddFiresAfterDelay(t *testing.T) {
	l := NewList()
	var p probe

	l.Add(&p, p.callback, 5, 42)
	l.Advance(4)
	if p.fired != 0 {
		t.Errorf("event fired early: got %d wanted 0", p.fired)
	}
	l.Advance(1)
	if p.fired != 1 {
		t.Errorf("event did not fire: got %d wanted 1", p.fired)
	}
	if p.arg != 42 {
		t.Errorf("wrong arg delivered: got %d wanted 42", p.arg)
	}
}

func TestAddZeroDelayRunsImmediately(t *testing.T) {
	l := NewList()
	var p probe

	l.Add(&p, p.callback, 0, 7)
	if p.fired != 1 {
		t.Errorf("zero-delay event did not run synchronously: got %d wanted 1", p.fired)
	}
	if l.Pending() {
		t.Errorf("zero-delay event should not enter the list")
	}
}

func TestOrderingIsPreserved(t *testing.T) {
	l := NewList()
	var order []int
	record := func(tag int) Callback {
		return func(arg int) { order = append(order, tag) }
	}

	l.Add("a", record(1), 10, 0)
	l.Add("b", record(2), 3, 0)
	l.Add("c", record(3), 7, 0)

	l.Advance(3)
	l.Advance(4)
	l.Advance(3)

	want := []int{2, 3, 1}
	if len(order) != len(want) {
		t.Fatalf("got %v wanted %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("fire order[%d]: got %d wanted %d", i, order[i], want[i])
		}
	}
}

func TestCancelRemovesPendingEvent(t *testing.T) {
	l := NewList()
	var p, q probe

	l.Add(&p, p.callback, 5, 1)
	l.Add(&q, q.callback, 8, 2)
	l.Cancel(&p, 1)
	l.Advance(8)

	if p.fired != 0 {
		t.Errorf("cancelled event fired: got %d wanted 0", p.fired)
	}
	if q.fired != 1 {
		t.Errorf("surviving event did not fire: got %d wanted 1", q.fired)
	}
}

func TestCancelFoldsRemainingDelayIntoNext(t *testing.T) {
	l := NewList()
	var p, q probe

	l.Add(&p, p.callback, 4, 1)
	l.Add(&q, q.callback, 10, 2)
	l.Cancel(&p, 1)

	l.Advance(9)
	if q.fired != 0 {
		t.Errorf("next event fired too early after cancel: got %d wanted 0", q.fired)
	}
	l.Advance(1)
	if q.fired != 1 {
		t.Errorf("next event did not fire at folded delay: got %d wanted 1", q.fired)
	}
}

func TestSelfReschedulingCallback(t *testing.T) {
	l := NewList()
	var ticks int
	var tick Callback
	tick = func(arg int) {
		ticks++
		if ticks < 3 {
			l.Add("clock", tick, 2, 0)
		}
	}

	l.Add("clock", tick, 2, 0)
	for range 6 {
		l.Advance(1)
	}

	if ticks != 3 {
		t.Errorf("self-rescheduling callback fired %d times, wanted 3", ticks)
	}
}

func TestPending(t *testing.T) {
	l := NewList()
	if l.Pending() {
		t.Errorf("empty list reports pending")
	}
	var p probe
	l.Add(&p, p.callback, 5, 0)
	if !l.Pending() {
		t.Errorf("non-empty list reports not pending")
	}
	l.Advance(5)
	if l.Pending() {
		t.Errorf("drained list still reports pending")
	}
}
