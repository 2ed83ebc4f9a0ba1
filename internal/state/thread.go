package state

import "github.com/atomicstack/pollchat/internal/api"

type ThreadStore interface {
	Set(api.Thread)
	ParentID() int64
	ChannelID() int64
	Parent() (api.Message, bool)
	Replies() []api.Message
	Clear()
}

type threadStore struct {
	parent  *api.Message
	replies []api.Message
}

func NewThreadStore() ThreadStore {
	return &threadStore{}
}

func (t *threadStore) Set(th api.Thread) {
	parent := th.Parent
	t.parent = &parent
	t.replies = cloneMessages(th.Replies)
}

func (t *threadStore) ParentID() int64 {
	if t.parent == nil {
		return 0
	}
	return t.parent.ID
}

func (t *threadStore) ChannelID() int64 {
	if t.parent == nil {
		return 0
	}
	return t.parent.ChannelID
}

func (t *threadStore) Parent() (api.Message, bool) {
	if t.parent == nil {
		return api.Message{}, false
	}
	return *t.parent, true
}

func (t *threadStore) Replies() []api.Message {
	return cloneMessages(t.replies)
}

func (t *threadStore) Clear() {
	t.parent = nil
	t.replies = nil
}
