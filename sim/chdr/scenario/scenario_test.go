package scenario

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mainland/chdrsim/sim/chdr"
)

func TestParseAppliesDefaults(t *testing.T) {
	sc, err := Parse([]byte("name: smoke\n"))
	require.NoError(t, err)
	assert.Equal(t, "smoke", sc.Name)
	assert.Equal(t, DefaultScenario.BusWidth, sc.BusWidth)
	assert.Equal(t, DefaultScenario.NumPackets, sc.NumPackets)
	assert.Equal(t, DefaultScenario.QueueCapacity, sc.QueueCapacity)
	assert.Equal(t, DefaultScenario.Seed, sc.Seed)
	assert.Equal(t, 0, sc.MasterStallProb)
}

func TestParseOverrides(t *testing.T) {
	sc, err := Parse([]byte(`
name: stress
bus_width: 256
master_stall_prob: 30
slave_stall_prob: 40
num_packets: 7
seed: 99
`))
	require.NoError(t, err)
	assert.Equal(t, 256, sc.BusWidth)
	assert.Equal(t, 30, sc.MasterStallProb)
	assert.Equal(t, 40, sc.SlaveStallProb)
	assert.Equal(t, 7, sc.NumPackets)
	assert.Equal(t, int64(99), sc.Seed)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("bus_width: [not a number\n"))
	require.Error(t, err)
}

func TestValidateAggregatesErrors(t *testing.T) {
	sc := &Scenario{
		BusWidth:        96,
		MasterStallProb: -5,
		SlaveStallProb:  200,
		NumPackets:      1,
		MaxPayloadWords: 1,
		QueueCapacity:   1,
	}
	err := sc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus_width")
	assert.Contains(t, err.Error(), "master_stall_prob")
	assert.Contains(t, err.Error(), "slave_stall_prob")
}

func TestValidateRejectsOversizedPayload(t *testing.T) {
	sc := DefaultScenario
	sc.MaxPayloadWords = 10000
	err := sc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length field")
}

func TestRunSmallLoopback(t *testing.T) {
	sc := &Scenario{
		Name:            "loopback",
		NumPackets:      20,
		MasterStallProb: 20,
		SlaveStallProb:  20,
		Seed:            42,
	}
	sc.applyDefaults()
	report, err := Run(sc, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, 20, report.Sent)
	assert.Equal(t, 20, report.Received)
	assert.Zero(t, report.Mismatches)
	assert.Zero(t, report.RxErrors)
	assert.NotZero(t, report.Elapsed)
}

func TestRunRecordsCSV(t *testing.T) {
	sc := &Scenario{
		Name:       "recorded",
		NumPackets: 3,
		Seed:       7,
		RecordCSV:  filepath.Join(t.TempDir(), "words.csv"),
	}
	sc.applyDefaults()
	report, err := Run(sc, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Received)
	assert.FileExists(t, sc.RecordCSV)
}

func TestGeneratePacketHonorsBounds(t *testing.T) {
	r := rand.New(rand.NewSource(55))
	for _, width := range []chdr.Width{64, 128, 256, 512} {
		for trial := 0; trial < 200; trial++ {
			pkt := GeneratePacket(r, width, 16, 4)
			require.NoError(t, pkt.UpdateLengths())
			assert.Equal(t, width, pkt.Width)
			assert.LessOrEqual(t, len(pkt.Data), 16)
			assert.LessOrEqual(t, int(pkt.Header.NumMData), 4)
		}
	}
}
