// Package scenario runs configurable loopback traffic through a CHDR BFM:
// a YAML file describes the bus, the stall behavior and the traffic mix, and
// Run executes it under a seeded simulation so results are reproducible.
package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mainland/chdrsim/sim/chdr"
	"github.com/mainland/chdrsim/sim/chdr/axis"
	"github.com/mainland/chdrsim/sim/chdr/bfm"
	"github.com/mainland/chdrsim/sim/component"
	"github.com/mainland/chdrsim/sim/model"
)

type Scenario struct {
	Name             string `yaml:"name"`
	BusWidth         int    `yaml:"bus_width"`
	MasterStallProb  int    `yaml:"master_stall_prob"`
	SlaveStallProb   int    `yaml:"slave_stall_prob"`
	NumPackets       int    `yaml:"num_packets"`
	MaxPayloadWords  int    `yaml:"max_payload_words"`
	MaxMetadataWords int    `yaml:"max_metadata_words"`
	QueueCapacity    int    `yaml:"queue_capacity"`
	Seed             int64  `yaml:"seed"`
	RecordCSV        string `yaml:"record_csv"`
}

// DefaultScenario is the configuration used when a field is left zero.
var DefaultScenario = Scenario{
	Name:             "default",
	BusWidth:         64,
	NumPackets:       100,
	MaxPayloadWords:  32,
	MaxMetadataWords: 4,
	QueueCapacity:    64,
	Seed:             1,
}

func (sc *Scenario) applyDefaults() {
	if sc.BusWidth == 0 {
		sc.BusWidth = DefaultScenario.BusWidth
	}
	if sc.NumPackets == 0 {
		sc.NumPackets = DefaultScenario.NumPackets
	}
	if sc.MaxPayloadWords == 0 {
		sc.MaxPayloadWords = DefaultScenario.MaxPayloadWords
	}
	if sc.MaxMetadataWords == 0 {
		sc.MaxMetadataWords = DefaultScenario.MaxMetadataWords
	}
	if sc.QueueCapacity == 0 {
		sc.QueueCapacity = DefaultScenario.QueueCapacity
	}
	if sc.Seed == 0 {
		sc.Seed = DefaultScenario.Seed
	}
}

// Validate checks every field and reports all problems at once.
func (sc *Scenario) Validate() error {
	var result *multierror.Error
	if !chdr.Width(sc.BusWidth).Valid() {
		result = multierror.Append(result, fmt.Errorf("bus_width %d is not a positive multiple of 64", sc.BusWidth))
	}
	if sc.MasterStallProb < 0 || sc.MasterStallProb > 100 {
		result = multierror.Append(result, fmt.Errorf("master_stall_prob %d outside [0, 100]", sc.MasterStallProb))
	}
	if sc.SlaveStallProb < 0 || sc.SlaveStallProb > 100 {
		result = multierror.Append(result, fmt.Errorf("slave_stall_prob %d outside [0, 100]", sc.SlaveStallProb))
	}
	if sc.NumPackets < 1 {
		result = multierror.Append(result, fmt.Errorf("num_packets %d must be at least 1", sc.NumPackets))
	}
	if sc.MaxPayloadWords < 1 {
		result = multierror.Append(result, fmt.Errorf("max_payload_words %d must be at least 1", sc.MaxPayloadWords))
	}
	if sc.MaxMetadataWords < 0 {
		result = multierror.Append(result, fmt.Errorf("max_metadata_words %d must not be negative", sc.MaxMetadataWords))
	}
	if sc.QueueCapacity < 1 {
		result = multierror.Append(result, fmt.Errorf("queue_capacity %d must be at least 1", sc.QueueCapacity))
	}
	if chdr.Width(sc.BusWidth).Valid() && sc.MaxPayloadWords >= 1 {
		worst := 2*chdr.Width(sc.BusWidth).Bytes() +
			chdr.MaxNumMData*chdr.Width(sc.BusWidth).Bytes() +
			sc.MaxPayloadWords*chdr.WordBytes
		if worst > 0xFFFF {
			result = multierror.Append(result, fmt.Errorf("max_payload_words %d can overflow the 16-bit length field", sc.MaxPayloadWords))
		}
	}
	return result.ErrorOrNil()
}

func Parse(data []byte) (*Scenario, error) {
	sc := &Scenario{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("cannot parse scenario: %w", err)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Report is what one scenario run produced.
type Report struct {
	Sent       int
	Received   int
	Mismatches int
	RxErrors   int
	Elapsed    time.Duration
}

// maxSimTime bounds a run so a fully stalled configuration still terminates.
const maxSimTime = 10 * time.Second

// Run executes the scenario: one BFM looped back on itself through a bounded
// word queue, a producer coroutine putting generated packets and a consumer
// coroutine getting them back and checking them against the put order.
func Run(sc *Scenario, log logrus.FieldLogger) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	ctrl := component.MakeSimControllerSeeded(sc.Seed)
	width := chdr.Width(sc.BusWidth)

	recorder := component.MakeNullWordRecorder()
	if sc.RecordCSV != "" {
		var err error
		recorder, err = component.MakeCSVWordRecorder(ctrl, sc.RecordCSV)
		if err != nil {
			return nil, err
		}
	}

	source, sink := axis.WordBuffer(ctrl, sc.QueueCapacity)
	wire := axis.WordWire{
		Source: source,
		Sink:   axis.RecordSink(recorder, "loopback", sink),
	}
	b, err := bfm.MakeChdrBfm(ctrl, wire, width)
	if err != nil {
		return nil, err
	}
	b.SetLogger(log)
	if err := b.SetMasterStallProb(sc.MasterStallProb); err != nil {
		return nil, err
	}
	if err := b.SetSlaveStallProb(sc.SlaveStallProb); err != nil {
		return nil, err
	}

	expected := make([]*chdr.Packet, sc.NumPackets)
	for i := range expected {
		expected[i] = GeneratePacket(ctrl.Rand(), width, sc.MaxPayloadWords, sc.MaxMetadataWords)
		expected[i].Header.SeqNum = uint16(i)
	}

	report := &Report{}
	done := false

	component.BuildTwixt(ctrl, nil, func(io *component.TwixtIO) {
		for _, pkt := range expected {
			if err := b.PutChdr(io, pkt.Clone()); err != nil {
				log.WithError(err).Error("put failed")
				return
			}
			report.Sent++
		}
	})
	component.BuildTwixt(ctrl, nil, func(io *component.TwixtIO) {
		for i := 0; i < sc.NumPackets; i++ {
			pkt := b.GetChdr(io)
			report.Received++
			if !pkt.Equal(expected[i]) {
				report.Mismatches++
				log.WithField("index", i).Error("received packet does not match put order")
			}
		}
		done = true
	})

	deadline := model.TimeZero.Add(maxSimTime)
	for !done && ctrl.Now().Before(deadline) {
		next := ctrl.Advance(ctrl.Now().Add(time.Millisecond))
		if done {
			break
		}
		if !next.TimeExists() {
			// nothing left to run; the coroutines are wedged
			break
		}
	}
	report.RxErrors = b.RxErrorCount()
	report.Elapsed = ctrl.Now().Since(model.TimeZero)
	if err := recorder.Close(); err != nil {
		return report, err
	}
	if !done {
		return report, fmt.Errorf("scenario %q did not complete within %v of simulated time (received %d of %d)",
			sc.Name, maxSimTime, report.Received, sc.NumPackets)
	}
	return report, nil
}
