// Package channelmapping implements the Opus-in-Ogg channel mapping
// families of RFC 7845 Section 5.1.1 (mapping families 0, 1, 2, 3, 255)
// and their mapping-table wire structures.
package channelmapping

import (
	"encoding/binary"
	"fmt"

	"github.com/opuscore/opuscore/opuserror"
)

// Family is the channel-mapping family byte from an Identification
// Header.
type Family uint8

const (
	FamilyRTP        Family = 0   // implicit mono/stereo order
	FamilyVorbis     Family = 1   // 1-8 channels, Vorbis channel order
	FamilyAmbisonics Family = 2   // ACN/SN3D ambisonics, individual streams
	FamilyProjection Family = 3   // ACN/SN3D ambisonics, demixed/projected
	FamilyDiscrete   Family = 255 // N channels, no defined relationship
)

func (f Family) String() string {
	switch f {
	case FamilyRTP:
		return "rtp"
	case FamilyVorbis:
		return "vorbis"
	case FamilyAmbisonics:
		return "ambisonics"
	case FamilyProjection:
		return "projection"
	case FamilyDiscrete:
		return "discrete"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// silentChannel is the mapping-table sentinel meaning "no source stream".
const silentChannel = 255

// MappingTable is the small capability interface every mapping-table
// variant implements, per the sum-type-over-families design: rather than
// an object hierarchy, callers that only need (streams, coupled) counts
// depend on this interface and nothing else.
type MappingTable interface {
	Streams() int
	Coupled() int
}

// StandardMappingTable is the RFC 7845 mapping table used by families 1,
// 2, and 255: a stream count, a coupled-stream count, and a
// channel-to-stream index per output channel.
type StandardMappingTable struct {
	streams        int
	coupled        int
	ChannelToStream []byte
}

func (t StandardMappingTable) Streams() int { return t.streams }
func (t StandardMappingTable) Coupled() int { return t.coupled }

// ResolveChannel interprets one ChannelToStream entry, returning which
// stream and which channel within that stream feeds the given output
// channel. ok is false for the silent-channel sentinel (255).
func (t StandardMappingTable) ResolveChannel(outputChannel int) (streamIdx, chanInStream int, ok bool) {
	idx := int(t.ChannelToStream[outputChannel])
	if idx == silentChannel {
		return 0, 0, false
	}
	if idx < 2*t.coupled {
		return idx / 2, idx % 2, true
	}
	return t.coupled + (idx - 2*t.coupled), 0, true
}

// DemixTable is the RFC 8486 demixing/projection matrix used by mapping
// family 3: a flattened Q-format (Q15 signed) matrix of
// channels * (streams+coupled) coefficients.
type DemixTable struct {
	streams int
	coupled int
	Matrix  []int16 // Q15 signed coefficients, row-major by output channel
}

func (t DemixTable) Streams() int { return t.streams }
func (t DemixTable) Coupled() int { return t.coupled }

// ChannelMapping is the tagged union over the five mapping families.
// Exactly one of Standard/Demix is populated, selected by Family.
type ChannelMapping struct {
	Family   Family
	Channels uint8
	Standard *StandardMappingTable // families 0 (synthesized), 1, 2, 255
	Demix    *DemixTable           // family 3
}

// Table returns the mapping's MappingTable, regardless of which family
// produced it.
func (m ChannelMapping) Table() MappingTable {
	if m.Demix != nil {
		return *m.Demix
	}
	return *m.Standard
}

// NewRTP builds the implicit mapping family 0 configuration: 1 channel
// is a single mono stream, 2 channels is a single coupled (stereo)
// stream. Any other channel count is invalid for family 0.
func NewRTP(channels uint8) (ChannelMapping, error) {
	switch channels {
	case 1:
		return ChannelMapping{Family: FamilyRTP, Channels: 1, Standard: &StandardMappingTable{
			streams: 1, coupled: 0, ChannelToStream: []byte{0},
		}}, nil
	case 2:
		return ChannelMapping{Family: FamilyRTP, Channels: 2, Standard: &StandardMappingTable{
			streams: 1, coupled: 1, ChannelToStream: []byte{0, 1},
		}}, nil
	default:
		return ChannelMapping{}, opuserror.New(opuserror.KindBadChannelsForFamily, "channelmapping.NewRTP", nil)
	}
}

// vorbisDefaults holds the libopus/Vorbis-order default (streams,
// coupled, channel-to-stream mapping) for 1-8 channels, per RFC 7845
// Section 5.1.1.2.
var vorbisDefaults = map[uint8]struct {
	streams, coupled int
	mapping          []byte
}{
	1: {1, 0, []byte{0}},
	2: {1, 1, []byte{0, 1}},
	3: {2, 1, []byte{0, 2, 1}},
	4: {2, 2, []byte{0, 1, 2, 3}},
	5: {3, 2, []byte{0, 4, 1, 2, 3}},
	6: {4, 2, []byte{0, 4, 1, 2, 3, 5}},
	7: {4, 3, []byte{0, 4, 1, 2, 3, 5, 6}},
	8: {5, 3, []byte{0, 6, 1, 2, 3, 4, 5, 7}},
}

// NewVorbisDefault builds the default mapping family 1 configuration for
// 1-8 channels.
func NewVorbisDefault(channels uint8) (ChannelMapping, error) {
	def, ok := vorbisDefaults[channels]
	if !ok {
		return ChannelMapping{}, opuserror.New(opuserror.KindBadChannelsForFamily, "channelmapping.NewVorbisDefault", nil)
	}
	mapping := make([]byte, len(def.mapping))
	copy(mapping, def.mapping)
	return ChannelMapping{Family: FamilyVorbis, Channels: channels, Standard: &StandardMappingTable{
		streams: def.streams, coupled: def.coupled, ChannelToStream: mapping,
	}}, nil
}

// NewDiscrete builds a mapping family 255 configuration: the caller
// supplies streams, coupled and the wire-parsed channel-to-stream table
// directly, since family 255 carries no implied default.
func NewDiscrete(channels uint8, streams, coupled int, mapping []byte) (ChannelMapping, error) {
	if err := ValidateStreamCounts(streams, coupled); err != nil {
		return ChannelMapping{}, err
	}
	if len(mapping) != int(channels) {
		return ChannelMapping{}, opuserror.New(opuserror.KindBadChannelsForFamily, "channelmapping.NewDiscrete", nil)
	}
	return ChannelMapping{Family: FamilyDiscrete, Channels: channels, Standard: &StandardMappingTable{
		streams: streams, coupled: coupled, ChannelToStream: mapping,
	}}, nil
}

// ValidateStreamCounts checks the invariant streams >= 1, 0 <= coupled
// <= streams, streams+coupled <= 255.
func ValidateStreamCounts(streams, coupled int) error {
	if streams < 1 {
		return opuserror.New(opuserror.KindIllegalStreams, "channelmapping.ValidateStreamCounts", nil)
	}
	if coupled < 0 || coupled > streams {
		return opuserror.New(opuserror.KindIllegalStreams, "channelmapping.ValidateStreamCounts", nil)
	}
	if streams+coupled > 255 {
		return opuserror.New(opuserror.KindIllegalStreams, "channelmapping.ValidateStreamCounts", nil)
	}
	return nil
}

// ParseFamily maps a raw mapping-family byte to a Family, rejecting
// values with no defined meaning.
func ParseFamily(b byte) (Family, error) {
	switch b {
	case 0, 1, 2, 3, 255:
		return Family(b), nil
	default:
		return 0, opuserror.New(opuserror.KindUnknownFamily, "channelmapping.ParseFamily", nil)
	}
}

// ParseStandardTable parses the wire-level {stream_count, coupled_count,
// channel_to_stream[channels]} mapping table used by families 1, 2 and
// 255 (RFC 7845 Section 5.1.1). Returns the table and the number of
// bytes consumed.
func ParseStandardTable(data []byte, channels uint8) (StandardMappingTable, int, error) {
	const op = "channelmapping.ParseStandardTable"
	need := 2 + int(channels)
	if len(data) < need {
		return StandardMappingTable{}, 0, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
	}

	streams := int(data[0])
	coupled := int(data[1])
	if err := ValidateStreamCounts(streams, coupled); err != nil {
		return StandardMappingTable{}, 0, err
	}

	mapping := make([]byte, channels)
	copy(mapping, data[2:2+int(channels)])

	maxStream := streams + coupled
	for _, m := range mapping {
		if int(m) >= maxStream && m != silentChannel {
			return StandardMappingTable{}, 0, opuserror.New(opuserror.KindIllegalStreams, op, nil)
		}
	}

	return StandardMappingTable{streams: streams, coupled: coupled, ChannelToStream: mapping}, need, nil
}

// ParseDemixTable parses the wire-level {stream_count, coupled_count,
// matrix[channels*(streams+coupled)]} demixing table used by mapping
// family 3 (a flattened matrix of signed Q-format coefficients,
// little-endian). Returns the table and the number of bytes consumed.
func ParseDemixTable(data []byte, channels uint8) (DemixTable, int, error) {
	const op = "channelmapping.ParseDemixTable"
	if len(data) < 2 {
		return DemixTable{}, 0, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
	}

	streams := int(data[0])
	coupled := int(data[1])
	if err := ValidateStreamCounts(streams, coupled); err != nil {
		return DemixTable{}, 0, err
	}

	n := int(channels) * (streams + coupled)
	need := 2 + 2*n
	if len(data) < need {
		return DemixTable{}, 0, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
	}

	matrix := make([]int16, n)
	for i := range matrix {
		matrix[i] = int16(binary.LittleEndian.Uint16(data[2+2*i : 4+2*i]))
	}

	return DemixTable{streams: streams, coupled: coupled, Matrix: matrix}, need, nil
}
