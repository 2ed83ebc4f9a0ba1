package history

// Stack holds pushed entries and a cursor into them. Position -1 is the
// location the process started on, before any push.
type Stack struct {
	entries []Entry
	pos     int
}

func NewStack() *Stack {
	return &Stack{pos: -1}
}

// Push records a new step and discards any entries ahead of the cursor.
func (s *Stack) Push(e Entry) {
	s.entries = append(s.entries[:s.pos+1], e)
	s.pos = len(s.entries) - 1
}

// Replace overwrites the current entry. At the start position it behaves
// like Push.
func (s *Stack) Replace(e Entry) {
	if s.pos < 0 {
		s.Push(e)
		return
	}
	s.entries[s.pos] = e
}

// Back moves the cursor one step back and returns the entry now current.
// The start position yields the empty entry.
func (s *Stack) Back() (Entry, bool) {
	if s.pos < 0 {
		return Entry{}, false
	}
	s.pos--
	return s.Current(), true
}

func (s *Stack) Forward() (Entry, bool) {
	if s.pos+1 >= len(s.entries) {
		return Entry{}, false
	}
	s.pos++
	return s.Current(), true
}

func (s *Stack) Current() Entry {
	if s.pos < 0 || s.pos >= len(s.entries) {
		return Entry{}
	}
	return s.entries[s.pos]
}

// Len counts pushed entries, including any ahead of the cursor.
func (s *Stack) Len() int { return len(s.entries) }

// Position is the cursor index, -1 at the start position.
func (s *Stack) Position() int { return s.pos }

func (s *Stack) CanBack() bool    { return s.pos >= 0 }
func (s *Stack) CanForward() bool { return s.pos+1 < len(s.entries) }

func (s *Stack) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Reset forgets every entry.
func (s *Stack) Reset() {
	s.entries = nil
	s.pos = -1
}
