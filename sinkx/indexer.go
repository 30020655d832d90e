package sinkx

// requestIndexer is handed to the emitter for the duration of one Emit call.
type requestIndexer struct {
	w *writer
}

var _ RequestIndexer = requestIndexer{}

// Add validates every action before accepting any of them. While a flush is
// waiting, actions are parked and accepted once it returns.
func (i requestIndexer) Add(actions ...WriteAction) error {
	return i.w.add(actions...)
}
