package navsync

import (
	"github.com/gocolly/colly/v2/debug"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LogDebugger struct {
}

// Init initializes the LogDebugger
func (l *LogDebugger) Init() error {
	return nil
}

// Event receives Collector events and logs them through zerolog
func (l *LogDebugger) Event(e *debug.Event) {

	var lg *zerolog.Event
	if e.Type == "error" {
		lg = log.Error()
	} else {
		lg = log.Info()
	}

	lg.Uint32("CollectorID", e.CollectorID).
		Uint32("RequestID", e.RequestID).
		Str("Type", e.Type).
		Str("URL", e.Values["url"]).
		Timestamp().
		Msg("Crawler Event")
}
