package resource

import (
	"go.uber.org/zap"
)

// LogObserver logs every resource event at debug level.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver returns an observer writing to l, or discarding events when
// l is nil.
func NewLogObserver(l *zap.Logger) *LogObserver {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogObserver{log: l}
}

func (o *LogObserver) OnResourceEvent(e Event) {
	o.log.Debug("resource event",
		zap.Stringer("event", e.Type),
		zap.Stringer("handle", e.Handle))
}
