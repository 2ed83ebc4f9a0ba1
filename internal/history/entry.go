// Package history models the navigation stack as an append-only log with a
// back/forward cursor. Entries are the only state that survives a pop.
package history

import (
	"strconv"
	"strings"
)

type View string

const (
	ViewChannel View = "channel"
	ViewThread  View = "thread"
)

// Entry is one navigation step. The zero Entry is the root location "/".
type Entry struct {
	View      View  `json:"view,omitempty"`
	ChannelID int64 `json:"channel_id,omitempty"`
	ParentID  int64 `json:"parent_id,omitempty"`
}

func ChannelEntry(channelID int64) Entry {
	return Entry{View: ViewChannel, ChannelID: channelID}
}

func ThreadEntry(channelID, parentID int64) Entry {
	return Entry{View: ViewThread, ChannelID: channelID, ParentID: parentID}
}

// Empty reports whether e names no channel or thread, which routes to the
// channel list.
func (e Entry) Empty() bool {
	switch e.View {
	case ViewChannel:
		return e.ChannelID == 0
	case ViewThread:
		return e.ParentID == 0
	default:
		return true
	}
}

// Path renders the location paired with e.
func (e Entry) Path() string {
	if e.Empty() {
		return "/"
	}
	if e.View == ViewThread {
		return "/thread/" + strconv.FormatInt(e.ParentID, 10)
	}
	return "/channel/" + strconv.FormatInt(e.ChannelID, 10)
}

// ParsePath recognises /channel/<id> and /thread/<id>. Anything else yields
// the empty entry. A thread path carries no channel; it is resolved when the
// thread loads.
func ParsePath(path string) Entry {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return Entry{}
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return Entry{}
	}
	switch parts[0] {
	case "channel":
		return ChannelEntry(id)
	case "thread":
		return Entry{View: ViewThread, ParentID: id}
	default:
		return Entry{}
	}
}
