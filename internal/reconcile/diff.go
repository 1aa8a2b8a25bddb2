package reconcile

// Diff computes the edit script that transforms the committed sequence old
// into the desired sequence next.
//
// The four end-comparison cases are checked in a fixed order every iteration
// (head/head, tail/tail, head/tail, tail/head); the first match wins. The
// fixed order is what lets pure rotations resolve as O(1) moves instead of
// falling into the map path. The map fallback consumes both remaining windows
// and terminates the pass.
//
// Reused items keep their *Item identity and have Content updated in place;
// an OpUpdate or OpMove edit is emitted for them so the caller can rebind.
// Returns a DuplicateKeyError if next contains the same key twice.
func Diff[T any](old []*Item[T], next []Pair[T]) (*Script[T], error) {
	if err := checkKeys(next); err != nil {
		return nil, err
	}

	items := make([]*Item[T], len(next))
	var edits []Edit[T]

	// beforeAt returns the settled placement reference for position i:
	// the item committed at i+1, or nil for the container's trailing anchor.
	beforeAt := func(i int) *Item[T] {
		if i+1 < len(items) {
			return items[i+1]
		}
		return nil
	}

	oldHead, oldTail := 0, len(old)-1
	newHead, newTail := 0, len(next)-1

	for oldHead <= oldTail && newHead <= newTail {
		switch {
		case old[oldHead].Key == next[newHead].Key:
			// Heads match: reuse in place.
			item := old[oldHead]
			item.Content = next[newHead].Content
			items[newHead] = item
			edits = append(edits, Edit[T]{Op: OpUpdate, Item: item, Content: item.Content})
			oldHead++
			newHead++

		case old[oldTail].Key == next[newTail].Key:
			// Tails match: reuse in place.
			item := old[oldTail]
			item.Content = next[newTail].Content
			items[newTail] = item
			edits = append(edits, Edit[T]{Op: OpUpdate, Item: item, Content: item.Content})
			oldTail--
			newTail--

		case old[oldHead].Key == next[newTail].Key:
			// Old head moved toward the back.
			item := old[oldHead]
			item.Content = next[newTail].Content
			items[newTail] = item
			edits = append(edits, Edit[T]{Op: OpMove, Item: item, Before: beforeAt(newTail), Content: item.Content})
			oldHead++
			newTail--

		case old[oldTail].Key == next[newHead].Key:
			// Old tail moved toward the front. The placement reference is
			// the current old head: everything left of it is already
			// settled, so landing before it is the new head position.
			item := old[oldTail]
			item.Content = next[newHead].Content
			items[newHead] = item
			edits = append(edits, Edit[T]{Op: OpMove, Item: item, Before: old[oldHead], Content: item.Content})
			oldTail--
			newHead++

		default:
			// No end matches. Map the remaining old window by key, then
			// walk the remaining new window from tail to head so every
			// placement reference is already settled. This consumes both
			// windows and ends the pass.
			oldIndex := make(map[string]int, oldTail-oldHead+1)
			for i := oldHead; i <= oldTail; i++ {
				oldIndex[old[i].Key] = i
			}
			for i := newTail; i >= newHead; i-- {
				if j, ok := oldIndex[next[i].Key]; ok {
					delete(oldIndex, next[i].Key)
					item := old[j]
					item.Content = next[i].Content
					items[i] = item
					edits = append(edits, Edit[T]{Op: OpMove, Item: item, Before: beforeAt(i), Content: item.Content})
				} else {
					item := &Item[T]{Key: next[i].Key, Content: next[i].Content}
					items[i] = item
					edits = append(edits, Edit[T]{Op: OpInsert, Item: item, Before: beforeAt(i), Content: item.Content})
				}
			}
			for i := oldHead; i <= oldTail; i++ {
				if _, unconsumed := oldIndex[old[i].Key]; unconsumed {
					edits = append(edits, Edit[T]{Op: OpRemove, Item: old[i]})
				}
			}
			return &Script[T]{Edits: edits, Items: items}, nil
		}
	}

	// New sequence exhausted: every remaining old item is gone.
	for i := oldHead; i <= oldTail; i++ {
		edits = append(edits, Edit[T]{Op: OpRemove, Item: old[i]})
	}

	// Old sequence exhausted: every remaining new pair is fresh. All land
	// before the item settled just past the window; applying head-to-tail
	// against the same reference preserves their order.
	if newHead <= newTail {
		before := beforeAt(newTail)
		for i := newHead; i <= newTail; i++ {
			item := &Item[T]{Key: next[i].Key, Content: next[i].Content}
			items[i] = item
			edits = append(edits, Edit[T]{Op: OpInsert, Item: item, Before: before, Content: item.Content})
		}
	}

	return &Script[T]{Edits: edits, Items: items}, nil
}

// checkKeys rejects duplicate keys in the desired sequence.
func checkKeys[T any](next []Pair[T]) error {
	seen := make(map[string]int, len(next))
	for i, p := range next {
		if first, dup := seen[p.Key]; dup {
			return &DuplicateKeyError{Key: p.Key, First: first, Second: i}
		}
		seen[p.Key] = i
	}
	return nil
}
