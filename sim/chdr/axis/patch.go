package axis

import (
	"github.com/mainland/chdrsim/sim/model"
)

// Patch pumps words from a source into a sink whenever both are ready. Used
// to stand in for the routing fabric between two endpoints.
func Patch(ctx model.SimContext, source WordSource, sink WordSink) {
	pump := func() {
		for source.HasWord() && sink.CanAccept() {
			sink.SendWord(source.ReceiveWord())
		}
	}
	source.Subscribe(pump)
	sink.Subscribe(pump)
	ctx.Later("sim.chdr.axis.Patch/Start", pump)
}

// PatchWires cross-connects two duplex attachment points.
func PatchWires(ctx model.SimContext, left WordWire, right WordWire) {
	Patch(ctx, left.Source, right.Sink)
	Patch(ctx, right.Source, left.Sink)
}
