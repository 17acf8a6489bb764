package frame

import "testing"

func TestHeadersCaseInsensitiveLookup(t *testing.T) {
	f := New(SEND, "Content-Type", "text/plain")
	v, ok := f.Contains("content-type")
	if !ok || v != "text/plain" {
		t.Fatalf("Contains case-insensitive lookup failed: got %q, %v", v, ok)
	}
}

func TestHeadersFirstOccurrenceWins(t *testing.T) {
	f := &Frame{Command: MESSAGE}
	f.Append("x-custom", "first")
	f.Append("x-custom", "second")
	v, ok := f.Contains("x-custom")
	if !ok || v != "first" {
		t.Fatalf("expected first-occurrence value %q, got %q", "first", v)
	}
	if f.Len() != 2 {
		t.Fatalf("expected duplicates preserved in iteration, got %d entries", f.Len())
	}
}

func TestHeadersSetReplacesFirst(t *testing.T) {
	f := New(SEND, Destination, "/a")
	f.Set(Destination, "/b")
	v, _ := f.Contains(Destination)
	if v != "/b" {
		t.Fatalf("Set did not replace value: got %q", v)
	}
	if f.Len() != 1 {
		t.Fatalf("Set should not append a duplicate, got %d entries", f.Len())
	}
}

func TestHeadersRemove(t *testing.T) {
	f := New(SEND, Transaction, "t1")
	f.Remove(Transaction)
	if _, ok := f.Contains(Transaction); ok {
		t.Fatalf("expected transaction header removed")
	}
}

func TestHeadersEachPreservesOrder(t *testing.T) {
	f := New(SEND, Destination, "/q", ContentType, "text/plain")
	var order []string
	f.Each(func(name, value string) {
		order = append(order, name)
	})
	if len(order) != 2 || order[0] != Destination || order[1] != ContentType {
		t.Fatalf("unexpected header order: %v", order)
	}
}
