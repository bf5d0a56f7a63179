package ecs

import "testing"

type tick struct{ N int }

func TestEventChannelPerReaderCursorsAndEviction(t *testing.T) {
	ch := NewEventChannel[tick]()
	r1 := ch.NewReader()
	ch.Write(tick{N: 1})
	r2 := ch.NewReader()
	ch.Write(tick{N: 2})

	got1 := ch.Read(r1)
	if len(got1) != 2 || got1[0].N != 1 || got1[1].N != 2 {
		t.Fatalf("reader1 expected both events in order, got %+v", got1)
	}

	got2 := ch.Read(r2)
	if len(got2) != 1 || got2[0].N != 2 {
		t.Fatalf("reader2 expected only the event published after registration, got %+v", got2)
	}

	if len(ch.events) != 0 {
		t.Fatalf("expected the backing slice emptied once every reader caught up, got %d remaining", len(ch.events))
	}
}

func TestEventChannelSlowReaderBlocksEviction(t *testing.T) {
	ch := NewEventChannel[tick]()
	slow := ch.NewReader()
	fast := ch.NewReader()

	ch.Write(tick{N: 1})
	ch.Write(tick{N: 2})

	if got := ch.Read(fast); len(got) != 2 {
		t.Fatalf("expected fast reader to see both events, got %+v", got)
	}
	if len(ch.events) != 2 {
		t.Fatalf("expected no eviction while the slow reader hasn't caught up, got %d remaining", len(ch.events))
	}

	if got := ch.Read(slow); len(got) != 2 {
		t.Fatalf("expected slow reader to still see both events, got %+v", got)
	}
	if len(ch.events) != 0 {
		t.Fatalf("expected eviction once both readers caught up, got %d remaining", len(ch.events))
	}
}
