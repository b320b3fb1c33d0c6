package axis

import (
	"github.com/mainland/chdrsim/sim/component"
)

func recordWords(r *component.CSVWordRecorder, channel string, w BusWord) {
	words := make([]uint64, len(w))
	for i, sub := range w {
		words[i] = uint64(sub)
	}
	r.Record(channel, words)
}

// RecordSink captures words sent into a sink, when the recorder is active.
func RecordSink(r *component.CSVWordRecorder, channel string, sink WordSink) WordSink {
	if !r.IsRecording() {
		return sink
	}
	return TapSink(sink, func(w BusWord) {
		recordWords(r, channel, w)
	})
}

// RecordSource captures words consumed from a source, when the recorder is
// active.
func RecordSource(r *component.CSVWordRecorder, channel string, source WordSource) WordSource {
	if !r.IsRecording() {
		return source
	}
	return TapSource(source, func(w BusWord) {
		recordWords(r, channel, w)
	})
}
