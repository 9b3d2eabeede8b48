package chat

import (
	"context"
	"testing"
	"time"
)

func TestBroadcastAllExcludesSender(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg, nopLogger())

	alice := newPipeChannel()
	bob := newPipeChannel()
	reg.TryRegister("alice", alice)
	reg.TryRegister("bob", bob)

	bc.BroadcastAll(context.Background(), "hello", "alice")

	select {
	case line := <-bob.out:
		if line != "hello" {
			t.Fatalf("bob got %q", line)
		}
	case <-time.After(time.Second):
		t.Fatal("bob received nothing")
	}

	select {
	case line := <-alice.out:
		t.Fatalf("excluded sender received %q", line)
	default:
	}
}

func TestBroadcastSurvivesFailingChannel(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg, nopLogger())

	alice := newPipeChannel()
	carol := newPipeChannel()
	reg.TryRegister("alice", alice)
	reg.TryRegister("bob", failingChannel{})
	reg.TryRegister("carol", carol)

	bc.BroadcastAll(context.Background(), "hello", "")

	for name, ch := range map[string]*pipeChannel{"alice": alice, "carol": carol} {
		select {
		case line := <-ch.out:
			if line != "hello" {
				t.Fatalf("%s got %q", name, line)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s received nothing", name)
		}
	}

	// The failing entry is reaped from the registry.
	if _, ok := reg.Lookup("bob"); ok {
		t.Fatal("dead entry should have been removed")
	}
	if reg.Count() != 2 {
		t.Fatalf("expected 2 entries after reaping, got %d", reg.Count())
	}
}

func TestSendRosterFormat(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg, nopLogger())

	reg.TryRegister("alice", newPipeChannel())
	reg.TryRegister("bob", newPipeChannel())

	ch := newPipeChannel()
	if err := bc.SendRoster(context.Background(), ch); err != nil {
		t.Fatalf("send roster: %v", err)
	}

	select {
	case line := <-ch.out:
		want := "Online users (2): alice, bob"
		if line != want {
			t.Fatalf("roster = %q, want %q", line, want)
		}
	case <-time.After(time.Second):
		t.Fatal("no roster received")
	}
}

func TestBroadcastRosterReachesEveryone(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg, nopLogger())

	alice := newPipeChannel()
	bob := newPipeChannel()
	reg.TryRegister("alice", alice)
	reg.TryRegister("bob", bob)

	bc.BroadcastRoster(context.Background())

	for name, ch := range map[string]*pipeChannel{"alice": alice, "bob": bob} {
		select {
		case line := <-ch.out:
			if line != "Online users (2): alice, bob" {
				t.Fatalf("%s got %q", name, line)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s received nothing", name)
		}
	}
}
