package state

import "fmt"

type Kind int

const (
	KindLoggedOut Kind = iota
	KindChannelList
	KindChannel
	KindThread
)

func (k Kind) String() string {
	switch k {
	case KindLoggedOut:
		return "logged-out"
	case KindChannelList:
		return "channel-list"
	case KindChannel:
		return "channel"
	case KindThread:
		return "thread"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Subview int

const (
	SubviewLogin Subview = iota
	SubviewRegister
)

func (s Subview) String() string {
	if s == SubviewRegister {
		return "register"
	}
	return "login"
}

// View is the single description of what is on screen. It is a value: a
// transition replaces it whole. Only the constructors below build one, so a
// thread view always carries its channel.
type View struct {
	kind      Kind
	subview   Subview
	channelID int64
	parentID  int64
}

func LoggedOut(sub Subview) View { return View{kind: KindLoggedOut, subview: sub} }

func ChannelList() View { return View{kind: KindChannelList} }

func ChannelView(channelID int64) View {
	return View{kind: KindChannel, channelID: channelID}
}

// ThreadView panics on a zero channel id; callers resolve the channel first.
func ThreadView(channelID, parentID int64) View {
	if channelID == 0 {
		panic("state: thread view without a channel")
	}
	return View{kind: KindThread, channelID: channelID, parentID: parentID}
}

func (v View) Kind() Kind       { return v.kind }
func (v View) Subview() Subview { return v.subview }
func (v View) ChannelID() int64 { return v.channelID }
func (v View) ParentID() int64  { return v.parentID }
func (v View) LoggedIn() bool   { return v.kind != KindLoggedOut }

// IsChannel reports whether v is exactly ChannelView{id}.
func (v View) IsChannel(id int64) bool {
	return v.kind == KindChannel && v.channelID == id
}

func (v View) IsThread(parentID int64) bool {
	return v.kind == KindThread && v.parentID == parentID
}

func (v View) String() string {
	switch v.kind {
	case KindLoggedOut:
		return "LoggedOut{" + v.subview.String() + "}"
	case KindChannelList:
		return "ChannelList"
	case KindChannel:
		return fmt.Sprintf("ChannelView{%d}", v.channelID)
	case KindThread:
		return fmt.Sprintf("ThreadView{%d,%d}", v.channelID, v.parentID)
	default:
		return v.kind.String()
	}
}
