// Package events implements a relative-delta event list used to
// schedule device callbacks some number of simulated cycles in the
// future, the way a clock or console device schedules its next tick
// without the CPU having to poll it every cycle.
//
// Copyright 2024, Richard Cornwell
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
package events

// Callback invoked when a scheduled event fires.
type Callback = func(arg int)

// Owner identifies the device that registered an event, so a later
// Cancel can find it again. Any comparable value works; devices
// typically pass themselves.
type Owner = any

type event struct {
	delta int // cycles remaining relative to the previous entry
	owner Owner
	cb    Callback
	arg   int
	prev  *event
	next  *event
}

// List is a relative-delta queue of pending callbacks. The zero value
// is a ready-to-use empty list. Each engine.Core owns exactly one
// List; nothing is shared between cores.
type List struct {
	head *event
	tail *event
}

// NewList returns an empty event list.
func NewList() *List {
	return &List{}
}

// Add schedules cb to run after delay cycles, passing arg. A delay of
// zero runs the callback immediately, inline, without entering the
// list at all.
func (l *List) Add(owner Owner, cb Callback, delay int, arg int) {
	if delay <= 0 {
		cb(arg)
		return
	}

	ev := &event{owner: owner, cb: cb, delta: delay, arg: arg}

	cur := l.head
	if cur == nil {
		l.head = ev
		l.tail = ev
		return
	}

	for cur != nil {
		if ev.delta <= cur.delta {
			cur.delta -= ev.delta
			ev.prev = cur.prev
			ev.next = cur
			cur.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				l.head = ev
			}
			return
		}
		ev.delta -= cur.delta
		cur = cur.next
	}

	ev.prev = l.tail
	l.tail.next = ev
	l.tail = ev
}

// Cancel removes the first pending event matching owner and arg, if
// any. The remaining delay, if the cancelled event wasn't last, is
// folded into the following entry so relative ordering stays correct.
func (l *List) Cancel(owner Owner, arg int) {
	for cur := l.head; cur != nil; cur = cur.next {
		if cur.owner != owner || cur.arg != arg {
			continue
		}

		if cur.next != nil {
			cur.next.delta += cur.delta
			cur.next.prev = cur.prev
		} else {
			l.tail = cur.prev
		}

		if cur.prev != nil {
			cur.prev.next = cur.next
		} else {
			l.head = cur.next
		}
		return
	}
}

// Pending reports whether any event is scheduled.
func (l *List) Pending() bool {
	return l.head != nil
}

// Advance moves the clock forward by cycles cycles, firing (and
// removing) every event whose delay has elapsed. Callbacks that
// re-Add themselves (the common case for a periodic device) see a
// list already advanced past their own firing time.
func (l *List) Advance(cycles int) {
	cur := l.head
	if cur == nil {
		return
	}
	cur.delta -= cycles
	for cur != nil && cur.delta <= 0 {
		cur.cb(cur.arg)
		l.head = cur.next
		if l.head != nil {
			l.head.prev = nil
			l.head.delta += cur.delta // carry any overshoot forward
		} else {
			l.tail = nil
		}
		cur = l.head
	}
}
