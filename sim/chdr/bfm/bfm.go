package bfm

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mainland/chdrsim/sim/chdr"
	"github.com/mainland/chdrsim/sim/chdr/axis"
	"github.com/mainland/chdrsim/sim/component"
	"github.com/mainland/chdrsim/sim/model"
)

const (
	// DefaultSendCapacity bounds the outbound queue in bus words; TryPutChdr
	// fails once a packet no longer fits.
	DefaultSendCapacity = 1024
	// DefaultClockPeriod is the duration of one transfer attempt, used by
	// the stall gates.
	DefaultClockPeriod = 10 * time.Nanosecond
)

// ChdrBfm transacts whole CHDR packets over one duplex word wire: packets
// put on the master direction are serialized into bus words and pushed into
// the wire's sink; words arriving from the wire's source are reassembled
// into packets for get/peek. The two directions run independently and each
// carries its own stall gate for back-pressure modeling.
type ChdrBfm struct {
	ctx   model.SimContext
	log   logrus.FieldLogger
	width chdr.Width
	spw   int

	master *axis.StallSink
	slave  *axis.StallSource

	sendPending  []axis.BusWord
	sendCapacity int
	sendSpace    *component.EventDispatcher

	recvWords  []axis.BusWord
	recvNeeded int
	recvQueue  []*chdr.Packet
	recvAvail  *component.EventDispatcher

	rxErrors int
}

// MakeChdrBfm attaches a BFM to a word wire. The bus width must be a
// positive multiple of 64 bits; anything else is a configuration error and
// no BFM is constructed.
func MakeChdrBfm(ctx model.SimContext, wire axis.WordWire, width chdr.Width) (*ChdrBfm, error) {
	if err := chdr.CheckWidth(width); err != nil {
		return nil, err
	}
	b := &ChdrBfm{
		ctx:          ctx,
		log:          logrus.StandardLogger().WithField("component", "chdr-bfm"),
		width:        width,
		spw:          width.WordsPerBusWord(),
		master:       axis.MakeStallSink(ctx, wire.Sink, DefaultClockPeriod),
		slave:        axis.MakeStallSource(ctx, wire.Source, DefaultClockPeriod),
		sendCapacity: DefaultSendCapacity,
		sendSpace:    component.MakeEventDispatcher(ctx, "sim.chdr.bfm.ChdrBfm/SendSpace"),
		recvAvail:    component.MakeEventDispatcher(ctx, "sim.chdr.bfm.ChdrBfm/RecvAvail"),
	}
	b.master.Subscribe(b.pumpSend)
	b.slave.Subscribe(b.pumpRecv)
	ctx.Later("sim.chdr.bfm.ChdrBfm/Start", func() {
		b.pumpSend()
		b.pumpRecv()
	})
	return b, nil
}

// SetLogger replaces the structured logger used for per-packet tracing and
// receive-error reporting.
func (b *ChdrBfm) SetLogger(log logrus.FieldLogger) {
	b.log = log
}

func (b *ChdrBfm) Width() chdr.Width {
	return b.width
}

// SetSendCapacity bounds the outbound queue in bus words. Packets already
// queued are unaffected.
func (b *ChdrBfm) SetSendCapacity(busWords int) error {
	if busWords < 1 {
		return fmt.Errorf("%w: send capacity %d must be at least 1 bus word", chdr.ErrConfiguration, busWords)
	}
	b.sendCapacity = busWords
	return nil
}

// SetMasterStallProb configures the outbound direction's per-attempt stall
// probability (0-100).
func (b *ChdrBfm) SetMasterStallProb(prob int) error {
	return b.master.SetStallProb(prob)
}

// SetSlaveStallProb configures the inbound direction's per-attempt stall
// probability (0-100).
func (b *ChdrBfm) SetSlaveStallProb(prob int) error {
	return b.slave.SetStallProb(prob)
}

// RxErrorCount reports how many inbound word groups were discarded as
// malformed since construction.
func (b *ChdrBfm) RxErrorCount() int {
	return b.rxErrors
}

func (b *ChdrBfm) pumpSend() {
	freed := false
	for len(b.sendPending) > 0 && b.master.CanAccept() {
		b.master.SendWord(b.sendPending[0])
		b.sendPending = b.sendPending[1:]
		freed = true
	}
	if freed {
		b.sendSpace.DispatchLater()
	}
}

func (b *ChdrBfm) rxError(format string, args ...interface{}) {
	b.rxErrors++
	b.log.WithField("time", b.ctx.Now()).Errorf(format, args...)
	b.recvWords = nil
	b.recvNeeded = 0
}

func (b *ChdrBfm) pumpRecv() {
	for b.slave.HasWord() {
		w := b.slave.ReceiveWord()
		if b.recvNeeded == 0 {
			// first word of a packet group: the header's length field tells
			// us how many bus words to collect
			if len(w) != b.spw {
				b.rxError("bus word carries %d sub-words, expected %d", len(w), b.spw)
				continue
			}
			hdr := chdr.UnpackHeader(w[0])
			needed := divCeil(int(hdr.Length), b.width.Bytes())
			if needed < 1 {
				b.rxError("header declares zero-length packet: %#016x", uint64(w[0]))
				continue
			}
			b.recvWords = []axis.BusWord{w}
			b.recvNeeded = needed
		} else {
			b.recvWords = append(b.recvWords, w)
		}
		if len(b.recvWords) == b.recvNeeded {
			pkt, err := WordsToPacket(b.width, b.recvWords)
			if err != nil {
				b.rxError("discarding malformed packet group: %v", err)
				continue
			}
			b.recvWords = nil
			b.recvNeeded = 0
			b.recvQueue = append(b.recvQueue, pkt)
			b.recvAvail.DispatchLater()
		}
	}
}

// TryPutChdr serializes and enqueues a packet without blocking. It reports
// false when the outbound queue cannot take the whole packet; serialization
// failures are returned as errors.
func (b *ChdrBfm) TryPutChdr(p *chdr.Packet) (bool, error) {
	words, err := b.serialize(p)
	if err != nil {
		return false, err
	}
	if len(b.sendPending)+len(words) > b.sendCapacity {
		return false, nil
	}
	b.enqueue(words)
	return true, nil
}

// PutChdr serializes and enqueues a packet, suspending the calling Twixt
// until the outbound queue can take the whole packet.
func (b *ChdrBfm) PutChdr(io *component.TwixtIO, p *chdr.Packet) error {
	words, err := b.serialize(p)
	if err != nil {
		return err
	}
	for len(b.sendPending)+len(words) > b.sendCapacity {
		io.YieldWait(b.sendSpace)
	}
	b.enqueue(words)
	return nil
}

func (b *ChdrBfm) serialize(p *chdr.Packet) ([]axis.BusWord, error) {
	if p.Width != b.width {
		return nil, fmt.Errorf("%w: packet sized for a %v bus cannot be sent on a %v bus",
			chdr.ErrValidation, p.Width, b.width)
	}
	return PacketToWords(p)
}

func (b *ChdrBfm) enqueue(words []axis.BusWord) {
	b.log.WithFields(logrus.Fields{
		"time":  b.ctx.Now(),
		"words": len(words),
	}).Trace("enqueueing packet")
	b.sendPending = append(b.sendPending, words...)
	b.pumpSend()
}

// TryGetChdr removes and returns the next reassembled packet, if one is
// ready.
func (b *ChdrBfm) TryGetChdr() (*chdr.Packet, bool) {
	if len(b.recvQueue) == 0 {
		return nil, false
	}
	pkt := b.recvQueue[0]
	b.recvQueue = b.recvQueue[1:]
	return pkt, true
}

// GetChdr removes and returns the next reassembled packet, suspending the
// calling Twixt until one arrives.
func (b *ChdrBfm) GetChdr(io *component.TwixtIO) *chdr.Packet {
	for {
		if pkt, ok := b.TryGetChdr(); ok {
			return pkt
		}
		io.YieldWait(b.recvAvail)
	}
}

// TryPeekChdr returns a copy of the next reassembled packet without removing
// it; repeated peeks return equal copies until a get consumes the packet.
func (b *ChdrBfm) TryPeekChdr() (*chdr.Packet, bool) {
	if len(b.recvQueue) == 0 {
		return nil, false
	}
	return b.recvQueue[0].Clone(), true
}

// PeekChdr returns a copy of the next reassembled packet without removing
// it, suspending the calling Twixt until one arrives.
func (b *ChdrBfm) PeekChdr(io *component.TwixtIO) *chdr.Packet {
	for {
		if pkt, ok := b.TryPeekChdr(); ok {
			return pkt
		}
		io.YieldWait(b.recvAvail)
	}
}
