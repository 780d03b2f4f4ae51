package eventstream

import (
	"testing"
)

type recordingSubscriber struct {
	received  []int
	completed bool
	errored   error
}

func (s *recordingSubscriber) OnNext(v int) { s.received = append(s.received, v) }
func (s *recordingSubscriber) OnComplete()  { s.completed = true }
func (s *recordingSubscriber) OnError(err error) { s.errored = err }

type fakeUpstream struct {
	items     []string
	requested int
	cancelled bool
	proc      *Processor[string, int]
}

func (u *fakeUpstream) Request(n int64) {
	u.requested++
	for i := int64(0); i < n && len(u.items) > 0; i++ {
		next := u.items[0]
		u.items = u.items[1:]
		u.proc.OnNext(next)
		if len(u.items) == 0 {
			u.proc.OnComplete()
		}
	}
}

func (u *fakeUpstream) Cancel() { u.cancelled = true }

// TestStrictOrdering mirrors the spec scenario: upstream emits "A", "B";
// map(A)=[1,2], map(B)=[3]; subscriber requests one at a time and must see
// 1, 2, 3 in order with completion only after the third delivery.
func TestStrictOrdering(t *testing.T) {
	mapFn := func(s string) []int {
		switch s {
		case "A":
			return []int{1, 2}
		case "B":
			return []int{3}
		}
		return nil
	}

	p := New[string, int](mapFn)
	sub := &recordingSubscriber{}
	up := &fakeUpstream{items: []string{"A", "B"}, proc: p}

	p.OnSubscribe(up)
	p.Subscribe(sub)

	p.Request(1)
	if got := sub.received; len(got) != 1 || got[0] != 1 {
		t.Fatalf("after first request, expected [1], got %v", got)
	}

	p.Request(1)
	if got := sub.received; len(got) != 2 || got[1] != 2 {
		t.Fatalf("after second request, expected [1 2], got %v", got)
	}
	if sub.completed {
		t.Fatalf("should not complete before third delivery")
	}

	p.Request(1)
	if got := sub.received; len(got) != 3 || got[2] != 3 {
		t.Fatalf("after third request, expected [1 2 3], got %v", got)
	}
	if !sub.completed {
		t.Fatalf("expected completion after draining all items")
	}
}

func TestRequestNonPositiveIsIllegalArgument(t *testing.T) {
	p := New[string, int](func(s string) []int { return nil })
	sub := &recordingSubscriber{}
	up := &fakeUpstream{proc: p}
	p.OnSubscribe(up)
	p.Subscribe(sub)

	p.Request(0)
	if sub.errored == nil {
		t.Fatalf("expected IllegalArgumentError")
	}
	if _, ok := sub.errored.(*IllegalArgumentError); !ok {
		t.Errorf("expected *IllegalArgumentError, got %T", sub.errored)
	}
}

func TestCancelForwardsToUpstream(t *testing.T) {
	p := New[string, int](func(s string) []int { return nil })
	up := &fakeUpstream{proc: p}
	p.OnSubscribe(up)

	p.Cancel()
	if !up.cancelled {
		t.Fatalf("expected upstream to be cancelled")
	}
}
