package state

import "github.com/atomicstack/pollchat/internal/api"

// NoChannelTitle is shown when no channel is open.
const NoChannelTitle = "Select a Channel"

// ChannelStore is the in-memory channel cache, keyed by id and refreshed
// whenever the channel list or unread counts are fetched.
type ChannelStore interface {
	Entries() []api.Channel
	SetEntries([]api.Channel)
	Lookup(id int64) (api.Channel, bool)
	Name(id int64) string
	MergeUnread(map[int64]int) bool
	Clear()
}

type channelStore struct {
	entries []api.Channel
	index   map[int64]int
}

func NewChannelStore() ChannelStore {
	return &channelStore{}
}

func (c *channelStore) Entries() []api.Channel {
	return cloneChannels(c.entries)
}

func (c *channelStore) SetEntries(entries []api.Channel) {
	c.entries = cloneChannels(entries)
	c.index = make(map[int64]int, len(c.entries))
	for i, ch := range c.entries {
		c.index[ch.ID] = i
	}
}

func (c *channelStore) Lookup(id int64) (api.Channel, bool) {
	i, ok := c.index[id]
	if !ok {
		return api.Channel{}, false
	}
	return c.entries[i], true
}

func (c *channelStore) Name(id int64) string {
	if ch, ok := c.Lookup(id); ok && ch.Name != "" {
		return ch.Name
	}
	return NoChannelTitle
}

// MergeUnread updates counts for known channels and reports whether any
// changed. Ids the cache has never seen are ignored until the next list
// fetch.
func (c *channelStore) MergeUnread(counts map[int64]int) bool {
	changed := false
	for id, n := range counts {
		i, ok := c.index[id]
		if !ok || c.entries[i].UnreadCount == n {
			continue
		}
		c.entries[i].UnreadCount = n
		changed = true
	}
	return changed
}

func (c *channelStore) Clear() {
	c.entries = nil
	c.index = nil
}

func cloneChannels(entries []api.Channel) []api.Channel {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]api.Channel, len(entries))
	copy(dup, entries)
	return dup
}
