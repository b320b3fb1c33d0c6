package component

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/mainland/chdrsim/sim/model"
)

// CSVWordRecorder captures timestamped groups of 64-bit words to a CSV file,
// one row per bus transfer, for offline inspection of wire traffic.
type CSVWordRecorder struct {
	sim    model.SimContext
	file   *os.File
	output *csv.Writer
}

func (r *CSVWordRecorder) IsRecording() bool {
	return r.output != nil
}

func (r *CSVWordRecorder) Record(channel string, words []uint64) {
	if channel == "" {
		panic("invalid empty channel name")
	}
	if r.output == nil {
		// not recording; discard
		return
	}
	row := []string{
		strconv.FormatUint(r.sim.Now().Nanoseconds(), 10),
		channel,
	}
	for _, w := range words {
		row = append(row, fmt.Sprintf("%016x", w))
	}
	err := r.output.Write(row)
	r.output.Flush()
	if err == nil {
		err = r.output.Error()
	}
	if err != nil {
		panic(fmt.Sprintf("cannot record words: %v", err))
	}
}

func (r *CSVWordRecorder) Close() error {
	if r.output == nil {
		return nil
	}
	var result *multierror.Error
	r.output.Flush()
	if err := r.output.Error(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := r.file.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	r.output = nil
	r.file = nil
	return result.ErrorOrNil()
}

func MakeNullWordRecorder() *CSVWordRecorder {
	return &CSVWordRecorder{}
}

func MakeCSVWordRecorder(sim model.SimContext, path string) (*CSVWordRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cw := csv.NewWriter(f)
	err = cw.Write([]string{"Nanoseconds", "Channel", "Hex Words..."})
	cw.Flush()
	if err == nil {
		err = cw.Error()
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &CSVWordRecorder{
		sim:    sim,
		file:   f,
		output: cw,
	}, nil
}
