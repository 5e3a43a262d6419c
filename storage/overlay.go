package storage

import (
	"errors"
	"sort"
)

var errOverlayClosed = errors.New("storage: overlay already committed or discarded")

type pendingWrite struct {
	value   []byte
	deleted bool
}

// Overlay buffers writes on top of a parent database. Reads see the buffered
// writes first and fall through to the parent otherwise. Nothing reaches the
// parent until Commit, so a Discard leaves the parent exactly as it was.
type Overlay struct {
	parent  Database
	pending map[string]pendingWrite
	closed  bool
}

// NewOverlay stages writes over parent.
func NewOverlay(parent Database) *Overlay {
	return &Overlay{parent: parent, pending: make(map[string]pendingWrite)}
}

func (o *Overlay) Put(key []byte, value []byte) error {
	if o.closed {
		return errOverlayClosed
	}
	o.pending[string(key)] = pendingWrite{value: append([]byte(nil), value...)}
	return nil
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	if w, ok := o.pending[string(key)]; ok {
		if w.deleted {
			return nil, ErrNotFound
		}
		return append([]byte(nil), w.value...), nil
	}
	return o.parent.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	if w, ok := o.pending[string(key)]; ok {
		return !w.deleted, nil
	}
	return o.parent.Has(key)
}

func (o *Overlay) Delete(key []byte) error {
	if o.closed {
		return errOverlayClosed
	}
	o.pending[string(key)] = pendingWrite{deleted: true}
	return nil
}

// Pending reports the number of buffered writes and deletes.
func (o *Overlay) Pending() int {
	return len(o.pending)
}

// Commit flushes the buffered writes to the parent in key order, as a single
// batch when the parent is a BatchWriter. The overlay cannot be written to
// afterwards.
func (o *Overlay) Commit() error {
	if o.closed {
		return errOverlayClosed
	}
	keys := make([]string, 0, len(o.pending))
	for key := range o.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	ops := make([]BatchOp, 0, len(keys))
	for _, key := range keys {
		w := o.pending[key]
		ops = append(ops, BatchOp{Key: []byte(key), Value: w.value, Delete: w.deleted})
	}
	if err := o.flush(ops); err != nil {
		return err
	}
	o.closed = true
	o.pending = nil
	return nil
}

func (o *Overlay) flush(ops []BatchOp) error {
	if batcher, ok := o.parent.(BatchWriter); ok {
		return batcher.ApplyBatch(ops)
	}
	for _, op := range ops {
		var err error
		if op.Delete {
			err = o.parent.Delete(op.Key)
		} else {
			err = o.parent.Put(op.Key, op.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Discard drops every buffered write.
func (o *Overlay) Discard() {
	o.closed = true
	o.pending = nil
}

// Close discards the overlay; the parent stays open.
func (o *Overlay) Close() {
	o.Discard()
}
