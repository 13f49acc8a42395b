package sink

import "github.com/you/fakechat/internal/core"

type broadcaster interface {
	Broadcast(core.StoredEvent)
}

type WithBroadcast struct {
	*SQLiteSink
	api broadcaster
}

func WithAPI(base *SQLiteSink, api broadcaster) *WithBroadcast {
	return &WithBroadcast{SQLiteSink: base, api: api}
}

func (w *WithBroadcast) Write(ev core.StoredEvent) error {
	if err := w.SQLiteSink.Write(ev); err != nil {
		return err
	}
	if w.api != nil {
		w.api.Broadcast(ev)
	}
	return nil
}
