package channelmapping

import "github.com/opuscore/opuscore/opuserror"

// Ambisonics channel mapping (families 2 and 3), per RFC 7845 Section
// 5.1.1.2 and libopus opus_multistream_encoder.c / opus_projection_encoder.c.
//
// The number of ACN/SN3D channels at ambisonics order N is (N+1)^2; an
// optional non-diegetic stereo pair adds 2 more. Family 2 keeps each
// component as its own mono stream (plus one coupled stream for the
// non-diegetic pair); family 3 projects/demixes down to coupled stereo
// streams, plus one mono stream when the channel count is odd.

const maxAmbisonicsChannels = 227 // order 14 + 2 non-diegetic

// isqrt32 computes floor(sqrt(n)) for n > 0 using the binary-search
// method from libopus celt/mathops.c:isqrt32.
func isqrt32(n int) int {
	if n <= 0 {
		return 0
	}
	val := uint32(n)
	var g uint32

	bshift := 0
	for t := val; t > 1; t >>= 1 {
		bshift++
	}
	bshift >>= 1

	b := uint32(1) << bshift
	for bshift >= 0 {
		t := ((g << 1) + b) << bshift
		if t <= val {
			g += b
			val -= t
		}
		b >>= 1
		bshift--
	}
	return int(g)
}

// ambisonicsOrderPlusOne validates channels as an ambisonics channel
// count ((order+1)^2, optionally +2 for a non-diegetic stereo pair) and
// returns order+1 and the non-diegetic channel count (0 or 2).
func ambisonicsOrderPlusOne(channels int) (orderPlusOne, nondiegetic int, err error) {
	const op = "channelmapping.ambisonicsOrderPlusOne"
	if channels < 1 || channels > maxAmbisonicsChannels {
		return 0, 0, opuserror.New(opuserror.KindBadChannelsForFamily, op, nil)
	}
	orderPlusOne = isqrt32(channels)
	acn := orderPlusOne * orderPlusOne
	nondiegetic = channels - acn
	if nondiegetic != 0 && nondiegetic != 2 {
		return 0, 0, opuserror.New(opuserror.KindBadChannelsForFamily, op, nil)
	}
	return orderPlusOne, nondiegetic, nil
}

// NewAmbisonicsIndividual builds a family-2 mapping: every ACN component
// is its own mono stream, with one additional coupled stream for an
// optional non-diegetic stereo pair.
func NewAmbisonicsIndividual(channels uint8) (ChannelMapping, error) {
	orderPlusOne, nondiegetic, err := ambisonicsOrderPlusOne(int(channels))
	if err != nil {
		return ChannelMapping{}, err
	}
	acn := orderPlusOne * orderPlusOne

	streams := acn
	coupled := 0
	if nondiegetic != 0 {
		streams++
		coupled = 1
	}

	mapping := make([]byte, channels)
	monoStreams := streams - coupled
	coupledOffset := coupled * 2
	for i := 0; i < monoStreams; i++ {
		mapping[i] = byte(i + coupledOffset)
	}
	for i := 0; i < coupled*2; i++ {
		mapping[monoStreams+i] = byte(i)
	}

	return ChannelMapping{Family: FamilyAmbisonics, Channels: channels, Standard: &StandardMappingTable{
		streams: streams, coupled: coupled, ChannelToStream: mapping,
	}}, nil
}

// NewAmbisonicsProjection builds a family-3 mapping: channels are
// maximally paired into coupled stereo streams via a demixing matrix.
// libopus projection encoding supports orders 1..5 (order+1 in [2,6]).
func NewAmbisonicsProjection(channels uint8, matrix []int16) (ChannelMapping, error) {
	const op = "channelmapping.NewAmbisonicsProjection"
	orderPlusOne, _, err := ambisonicsOrderPlusOne(int(channels))
	if err != nil {
		return ChannelMapping{}, err
	}
	if orderPlusOne < 2 || orderPlusOne > 6 {
		return ChannelMapping{}, opuserror.New(opuserror.KindBadChannelsForFamily, op, nil)
	}

	streams := (int(channels) + 1) / 2
	coupled := int(channels) / 2

	if matrix == nil {
		matrix = IdentityDemixMatrix(channels, streams, coupled)
	}
	want := int(channels) * (streams + coupled)
	if len(matrix) != want {
		return ChannelMapping{}, opuserror.New(opuserror.KindBadChannelsForFamily, op, nil)
	}

	return ChannelMapping{Family: FamilyProjection, Channels: channels, Demix: &DemixTable{
		streams: streams, coupled: coupled, Matrix: matrix,
	}}, nil
}

// IdentityDemixMatrix builds the trivial Q15 identity demixing matrix:
// each output channel is taken unmodified from the like-numbered row.
// NewAmbisonicsProjection uses it as the family-3 default whenever it is
// given a nil matrix.
func IdentityDemixMatrix(channels uint8, streams, coupled int) []int16 {
	cols := streams + coupled
	rows := int(channels)
	matrix := make([]int16, rows*cols)
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			if row == col {
				matrix[col*rows+row] = 32767 // Q15 unity gain
			}
		}
	}
	return matrix
}

// IsValidAmbisonicsChannelCount reports whether channels is a valid
// ambisonics channel count for family 2 or 3: (order+1)^2 or
// (order+1)^2+2 for orders 0-14.
func IsValidAmbisonicsChannelCount(channels int) bool {
	_, _, err := ambisonicsOrderPlusOne(channels)
	return err == nil
}

// IsValidProjectionChannelCount reports whether channels is a valid
// mapping family 3 (projection/demixed ambisonics) channel count:
// libopus projection encoding supports orders 1-5 (order+1 in [2,6]).
func IsValidProjectionChannelCount(channels int) bool {
	orderPlusOne, _, err := ambisonicsOrderPlusOne(channels)
	if err != nil {
		return false
	}
	return orderPlusOne >= 2 && orderPlusOne <= 6
}
