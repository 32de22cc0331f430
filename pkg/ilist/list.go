package ilist

// Linker is the interface that objects must implement if they want to be
// added to and/or removed from a List.
type Linker interface {
	Next() Element
	Prev() Element
	SetNext(Element)
	SetPrev(Element)
}

// Element is the item that is used at the API level.
type Element interface {
	Linker
}

// List is an intrusive doubly-linked list. Entries can be pushed to the back
// and removed from any position in O(1) time and with no additional memory
// allocations, which is what lets pevents keep a FIFO of registered waits per
// event without allocating a list node beyond the wait record itself.
//
// The zero value for List is an empty list ready to use.
//
// To iterate over a list (where l is a List):
//
//	for e := l.Front(); e != nil; e = e.Next() {
//		// do something with e.
//	}
type List struct {
	head Element
	tail Element
}

// Empty returns true iff the list has no elements.
func (l *List) Empty() bool {
	return l.head == nil
}

// Front returns the first element of l, or nil.
func (l *List) Front() Element {
	return l.head
}

// PushBack inserts e at the back of l.
func (l *List) PushBack(e Element) {
	e.SetNext(nil)
	e.SetPrev(l.tail)
	if l.tail != nil {
		l.tail.SetNext(e)
	} else {
		l.head = e
	}
	l.tail = e
}

// Remove removes e from l. e must currently be an element of l (or of no
// list); removing an element not in l has undefined behavior.
func (l *List) Remove(e Element) {
	prev := e.Prev()
	next := e.Next()

	if prev != nil {
		prev.SetNext(next)
	} else if l.head == e {
		l.head = next
	}

	if next != nil {
		next.SetPrev(prev)
	} else if l.tail == e {
		l.tail = prev
	}

	e.SetNext(nil)
	e.SetPrev(nil)
}

// Entry is a default implementation of Linker. Embedding an anonymous Entry
// in a struct makes it satisfy Element with no further work.
type Entry struct {
	next Element
	prev Element
}

// Next returns the entry that follows e in the list.
func (e *Entry) Next() Element {
	return e.next
}

// Prev returns the entry that precedes e in the list.
func (e *Entry) Prev() Element {
	return e.prev
}

// SetNext assigns 'entry' as the entry that follows e in the list.
func (e *Entry) SetNext(entry Element) {
	e.next = entry
}

// SetPrev assigns 'entry' as the entry that precedes e in the list.
func (e *Entry) SetPrev(entry Element) {
	e.prev = entry
}
