package history

import "testing"

func TestParsePath(t *testing.T) {
	cases := map[string]Entry{
		"/channel/7":   ChannelEntry(7),
		"channel/7/":   ChannelEntry(7),
		"/thread/42":   {View: ViewThread, ParentID: 42},
		"/":            {},
		"":             {},
		"/channel/abc": {},
		"/channel/-1":  {},
		"/profile/3":   {},
		"/channel":     {},
	}
	for path, want := range cases {
		if got := ParsePath(path); got != want {
			t.Fatalf("ParsePath(%q): expected %+v, got %+v", path, want, got)
		}
	}
}

func TestEntryPath(t *testing.T) {
	if got := ChannelEntry(7).Path(); got != "/channel/7" {
		t.Fatalf("expected /channel/7, got %q", got)
	}
	if got := ThreadEntry(7, 42).Path(); got != "/thread/42" {
		t.Fatalf("expected /thread/42, got %q", got)
	}
	if got := (Entry{}).Path(); got != "/" {
		t.Fatalf("expected /, got %q", got)
	}
	if !(Entry{View: ViewThread, ChannelID: 3}).Empty() {
		t.Fatalf("expected thread entry without parent to be empty")
	}
}

func TestStackBackForward(t *testing.T) {
	s := NewStack()
	if _, ok := s.Back(); ok {
		t.Fatalf("expected back on fresh stack to fail")
	}
	s.Push(ChannelEntry(7))
	s.Push(ThreadEntry(7, 42))
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}

	e, ok := s.Back()
	if !ok || e != ChannelEntry(7) {
		t.Fatalf("expected back to channel 7, got %+v ok=%v", e, ok)
	}
	e, ok = s.Back()
	if !ok || !e.Empty() {
		t.Fatalf("expected back to start position with empty entry, got %+v ok=%v", e, ok)
	}
	if _, ok := s.Back(); ok {
		t.Fatalf("expected back past start to fail")
	}

	e, ok = s.Forward()
	if !ok || e != ChannelEntry(7) {
		t.Fatalf("expected forward to channel 7, got %+v", e)
	}
	e, ok = s.Forward()
	if !ok || e != ThreadEntry(7, 42) {
		t.Fatalf("expected forward to thread 42, got %+v", e)
	}
	if _, ok := s.Forward(); ok {
		t.Fatalf("expected forward past end to fail")
	}
}

func TestStackPushTruncatesForward(t *testing.T) {
	s := NewStack()
	s.Push(ChannelEntry(1))
	s.Push(ChannelEntry(2))
	s.Back()
	s.Push(ChannelEntry(3))
	if s.Len() != 2 {
		t.Fatalf("expected forward entry to be discarded, got %v", s.Entries())
	}
	if s.CanForward() {
		t.Fatalf("expected no forward entry after push")
	}
	if got := s.Current(); got != ChannelEntry(3) {
		t.Fatalf("expected current channel 3, got %+v", got)
	}
}

func TestStackReplaceAndReset(t *testing.T) {
	s := NewStack()
	s.Replace(ChannelEntry(5))
	if s.Len() != 1 || s.Current() != ChannelEntry(5) {
		t.Fatalf("expected replace on empty stack to push, got %v", s.Entries())
	}
	s.Replace(ChannelEntry(6))
	if s.Len() != 1 || s.Current() != ChannelEntry(6) {
		t.Fatalf("expected replace to overwrite, got %v", s.Entries())
	}
	entries := s.Entries()
	entries[0] = ChannelEntry(99)
	if s.Current() != ChannelEntry(6) {
		t.Fatalf("expected Entries to return a copy")
	}
	s.Reset()
	if s.Len() != 0 || s.Position() != -1 || s.CanBack() {
		t.Fatalf("expected reset stack, got len=%d pos=%d", s.Len(), s.Position())
	}
}
