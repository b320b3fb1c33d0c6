package scenario

import (
	"math/rand"

	"github.com/mainland/chdrsim/sim/chdr"
)

func randWords(r *rand.Rand, count int) []chdr.Word {
	words := make([]chdr.Word, count)
	for i := range words {
		words[i] = chdr.Word(r.Uint64())
	}
	return words
}

// GeneratePacket builds one random, internally consistent packet. Data
// packets dominate the mix, with the occasional control, management or
// stream packet so every payload layout gets exercised.
func GeneratePacket(r *rand.Rand, width chdr.Width, maxPayloadWords, maxMetadataWords int) *chdr.Packet {
	p := &chdr.Packet{Width: width}
	hdr := chdr.Header{
		VC:      uint8(r.Intn(8)),
		EOB:     r.Intn(4) == 0,
		DstEPID: uint16(r.Uint32()),
	}
	var err error
	switch r.Intn(8) {
	case 0:
		hdr.PktType = chdr.PktTypeCtrl
		numData := r.Intn(chdr.MaxCtrlNumData + 1)
		data := make([]uint32, numData)
		for i := range data {
			data[i] = r.Uint32()
		}
		ctrlHdr := chdr.CtrlHeader(0).
			WithDstPort(uint16(r.Intn(1 << 10))).
			WithSrcPort(uint16(r.Intn(1 << 10))).
			WithSrcEPID(uint16(r.Uint32())).
			WithSeqNum(uint8(r.Intn(1 << 6))).
			WithHasTime(r.Intn(2) == 0).
			WithNumData(numData)
		err = p.WriteCtrl(hdr, ctrlHdr, r.Uint32(), data, chdr.Word(r.Uint64()))
	case 1:
		hdr.PktType = chdr.PktTypeMgmt
		code, cerr := chdr.WidthToCode(width)
		if cerr != nil {
			code = chdr.WidthCode64
		}
		mgmt := chdr.MgmtPayload{
			Header: chdr.MgmtHeader{
				DstEPID:   hdr.DstEPID,
				NumHops:   uint16(r.Intn(1 << 10)),
				WidthCode: code,
				ProtoVer:  0x0100,
			},
		}
		for i := r.Intn(8); i >= 0; i-- {
			mgmt.Ops = append(mgmt.Ops, chdr.MgmtOp{
				OpsPending: uint8(i),
				OpCode:     uint8(r.Intn(256)),
				OpPayload:  r.Uint64() & ((1 << 48) - 1),
			})
		}
		err = p.WriteMgmt(hdr, mgmt)
	case 2:
		hdr.PktType = chdr.PktTypeStrS
		err = p.WriteStreamStatus(hdr, chdr.StreamStatus{
			SrcEPID:        uint16(r.Uint32()),
			Status:         uint8(r.Intn(1 << 4)),
			CapacityBytes:  r.Uint64() & ((1 << 40) - 1),
			CapacityPkts:   uint32(r.Intn(1 << 24)),
			XferCountPkts:  r.Uint64() & ((1 << 40) - 1),
			XferCountBytes: r.Uint64(),
			BuffInfo:       uint16(r.Uint32()),
			ExtendedInfo:   r.Uint64() & ((1 << 48) - 1),
		})
	case 3:
		hdr.PktType = chdr.PktTypeStrC
		err = p.WriteStreamCmd(hdr, chdr.StreamCmd{
			SrcEPID:  uint16(r.Uint32()),
			OpCode:   uint8(r.Intn(1 << 4)),
			OpData:   uint8(r.Intn(1 << 4)),
			NumPkts:  r.Uint64() & ((1 << 40) - 1),
			NumBytes: r.Uint64(),
		})
	default:
		if r.Intn(2) == 0 {
			hdr.PktType = chdr.PktTypeDataWithTS
		} else {
			hdr.PktType = chdr.PktTypeData
		}
		data := randWords(r, 1+r.Intn(maxPayloadWords))
		var metadata []chdr.Word
		if maxMetadataWords > 0 {
			metadata = randWords(r, r.Intn(maxMetadataWords+1))
		}
		err = p.WriteRaw(hdr, data, metadata, chdr.Word(r.Uint64()))
	}
	if err != nil {
		// generation stays inside every field's range, so a failure here is
		// a bug in the generator itself
		panic(err)
	}
	return p
}
