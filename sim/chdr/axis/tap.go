package axis

// TapSink forwards to a sink, reporting every word that passes through.
func TapSink(sink WordSink, tap func(BusWord)) WordSink {
	return &tapSink{sink, tap}
}

type tapSink struct {
	WordSink
	tap func(BusWord)
}

func (t *tapSink) SendWord(w BusWord) {
	t.tap(w)
	t.WordSink.SendWord(w)
}

// TapSource forwards from a source, reporting every word that passes
// through. Peeks are not reported; only consumed words are.
func TapSource(source WordSource, tap func(BusWord)) WordSource {
	return &tapSource{source, tap}
}

type tapSource struct {
	WordSource
	tap func(BusWord)
}

func (t *tapSource) ReceiveWord() BusWord {
	w := t.WordSource.ReceiveWord()
	t.tap(w)
	return w
}
