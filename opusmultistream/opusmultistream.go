// Package opusmultistream splits a single Ogg Opus container payload
// into the N substream packets named by a channel mapping table (RFC
// 7845 Section 5.1.1).
package opusmultistream

import (
	"github.com/opuscore/opuscore/channelmapping"
	"github.com/opuscore/opuscore/opuspacket"
	"github.com/opuscore/opuscore/opuserror"
)

const op = "opusmultistream.Split"

// Multistream is S sequential Opus packets parsed from one container
// payload.
type Multistream struct {
	Packets []opuspacket.Packet
}

// Split parses S = table.Streams() sequential packets out of data. All
// but the last packet are self-delimited (RFC 6716 Appendix B); the last
// packet is internally framed so its length is simply whatever remains
// of data.
func Split(data []byte, table channelmapping.MappingTable) (Multistream, error) {
	streams := table.Streams()
	if streams < 1 {
		return Multistream{}, opuserror.New(opuserror.KindIllegalStreams, op, nil)
	}

	packets := make([]opuspacket.Packet, streams)
	rest := data
	for i := 0; i < streams; i++ {
		selfDelim := i < streams-1
		pkt, trailing, err := opuspacket.Parse(rest, selfDelim)
		if err != nil {
			return Multistream{}, err
		}
		packets[i] = pkt
		rest = trailing
	}

	return Multistream{Packets: packets}, nil
}

// Frames flattens every packet's frames in (packet index, frame index)
// order.
func (m Multistream) Frames() []opuspacket.Frame {
	var frames []opuspacket.Frame
	for _, pkt := range m.Packets {
		frames = append(frames, pkt.Frames...)
	}
	return frames
}
