package state

// Item is one selectable row. ID is the channel or message id it stands for.
type Item struct {
	ID    int64
	Label string
	Badge int
}

// CloneItems produces a shallow copy of the provided items.
func CloneItems(items []Item) []Item {
	dup := make([]Item, len(items))
	copy(dup, items)
	return dup
}
