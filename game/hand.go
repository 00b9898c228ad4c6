package game

// Hand is the ordered set of items a competitor may still play. A Hand belongs to a
// single PlayerWorker once the match starts and is not safe for concurrent use.
type Hand struct {
	items []Item
}

func NewHand(items []Item) *Hand {
	h := &Hand{items: make([]Item, len(items))}
	copy(h.items, items)
	return h
}

// Draw removes and returns the item at the front of the hand.
func (h *Hand) Draw() (Item, bool) {
	if len(h.items) == 0 {
		return Item{}, false
	}

	item := h.items[0]
	h.items = h.items[1:]
	return item, true
}

func (h *Hand) Len() int {
	return len(h.items)
}

func (h *Hand) Empty() bool {
	return len(h.items) == 0
}

func (h *Hand) Items() []Item {
	out := make([]Item, len(h.items))
	copy(out, h.items)
	return out
}
