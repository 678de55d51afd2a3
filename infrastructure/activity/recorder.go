package activity

import (
	"pricescanner/infrastructure/cartstore"
)

// Recorder mirrors cart outcomes into the activity feed and passes them on
// to next, usually the metrics recorder.
type Recorder struct {
	log  *Log
	next cartstore.Recorder
}

func NewRecorder(log *Log, next cartstore.Recorder) *Recorder {
	return &Recorder{log: log, next: next}
}

func (r *Recorder) CartMutation(op string, ok bool) {
	if r.next != nil {
		r.next.CartMutation(op, ok)
	}
	if ok {
		r.log.Info("Cart updated: " + op)
	}
}

func (r *Recorder) StorageFailure(op string) {
	if r.next != nil {
		r.next.StorageFailure(op)
	}
	r.log.Error("Cart storage failed during " + op + "; keeping the cart in memory")
}
