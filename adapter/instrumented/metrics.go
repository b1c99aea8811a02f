package instrumented

import (
	"errors"

	"github.com/uber-go/tally/v4"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// OpMetrics tracks the outcome and latency of a single operation.
type OpMetrics struct {
	Success  tally.Counter
	Fail     tally.Counter
	NotFound tally.Counter
	Latency  tally.Timer
}

func newOpMetrics(scope tally.Scope, op string) OpMetrics {
	return OpMetrics{
		Success:  scope.Tagged(map[string]string{"type": "success"}).Counter(op),
		Fail:     scope.Tagged(map[string]string{"type": "fail"}).Counter(op),
		NotFound: scope.Tagged(map[string]string{"type": "not_found"}).Counter(op),
		Latency:  scope.Timer(op + "_latency"),
	}
}

// Count increments the counter matching err. [domain.ErrNotFound] is
// counted apart from failures.
func (o OpMetrics) Count(err error) {
	switch {
	case err == nil:
		o.Success.Inc(1)
	case errors.Is(err, domain.ErrNotFound):
		o.NotFound.Inc(1)
	default:
		o.Fail.Inc(1)
	}
}

// ManagerMetrics holds the metrics of every [domain.Manager] operation.
type ManagerMetrics struct {
	Insert     OpMetrics
	InsertMany OpMetrics
	Update     OpMetrics
	UpdateMany OpMetrics
	Delete     OpMetrics
	Select     OpMetrics
	Count      OpMetrics
	Close      OpMetrics

	// Selected counts the entities returned by selects.
	Selected tally.Counter
}

// NewManagerMetrics returns ManagerMetrics rooted at the "manager" sub scope
// of scope.
func NewManagerMetrics(scope tally.Scope) *ManagerMetrics {
	s := scope.SubScope("manager")
	return &ManagerMetrics{
		Insert:     newOpMetrics(s, "insert"),
		InsertMany: newOpMetrics(s, "insert_many"),
		Update:     newOpMetrics(s, "update"),
		UpdateMany: newOpMetrics(s, "update_many"),
		Delete:     newOpMetrics(s, "delete"),
		Select:     newOpMetrics(s, "select"),
		Count:      newOpMetrics(s, "count"),
		Close:      newOpMetrics(s, "close"),
		Selected:   s.Counter("selected"),
	}
}

// BucketMetrics holds the metrics of every [domain.BucketManager]
// operation.
type BucketMetrics struct {
	Put     OpMetrics
	PutMany OpMetrics
	Get     OpMetrics
	GetMany OpMetrics
	Delete  OpMetrics
	Close   OpMetrics
}

// NewBucketMetrics returns BucketMetrics rooted at the "bucket" sub scope of
// scope.
func NewBucketMetrics(scope tally.Scope) *BucketMetrics {
	s := scope.SubScope("bucket")
	return &BucketMetrics{
		Put:     newOpMetrics(s, "put"),
		PutMany: newOpMetrics(s, "put_many"),
		Get:     newOpMetrics(s, "get"),
		GetMany: newOpMetrics(s, "get_many"),
		Delete:  newOpMetrics(s, "delete"),
		Close:   newOpMetrics(s, "close"),
	}
}
