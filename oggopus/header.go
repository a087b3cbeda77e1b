// Package oggopus implements Ogg Opus container decoding per RFC 7845:
// the two mandatory header packets (Identification Header, Comment
// Header) and iteration over the audio packets/frames that follow them.
// Page-level Ogg framing (segment tables, CRC, page reconstruction
// across boundaries) is delegated to github.com/SaurusXI/ogg; this
// package only concerns itself with what the Opus-in-Ogg mapping adds
// on top of that.
package oggopus

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/opuscore/opuscore/channelmapping"
	"github.com/opuscore/opuscore/opuserror"
)

// idHeaderMagic and commentHeaderMagic are the 8-byte signatures that
// open the two mandatory header packets.
const (
	idHeaderMagic      = "OpusHead"
	commentHeaderMagic = "OpusTags"

	// idHeaderMinSize is the size of an Identification Header packet
	// carrying mapping family 0 (no mapping table follows).
	idHeaderMinSize = 19

	// versionMajorMask isolates the incompatible-version nibble of the
	// Identification Header's version byte; only major version 0 is
	// understood by this decoder (RFC 7845 Section 5.1).
	versionMajorMask = 0xF0
)

// IdHeader is the parsed Identification Header: the first packet of an
// Ogg Opus stream.
type IdHeader struct {
	// Version is the raw encapsulation specification version byte. Its
	// upper nibble (major version) must be 0 for this decoder to
	// understand the rest of the stream.
	Version uint8

	// PreSkip is the number of samples (at 48kHz) to discard at the
	// start of decoded output.
	PreSkip uint16

	// InputSampleRate is the original input sample rate in Hz, purely
	// informational; 0 means "unknown". Opus itself always decodes at
	// 48kHz internally.
	InputSampleRate uint32

	// OutputGain is a Q7.8 dB gain to apply to decoded output.
	OutputGain int16

	// Mapping describes how this stream's Opus channels (and, for
	// multistream mappings, its substreams) correspond to output
	// channels.
	Mapping channelmapping.ChannelMapping
}

// Channels returns the output channel count described by the header.
func (h IdHeader) Channels() uint8 { return h.Mapping.Channels }

const opIDHeader = "oggopus.ParseIDHeader"

// ParseIDHeader parses an Identification Header packet per RFC 7845
// Section 5.1.
func ParseIDHeader(data []byte) (IdHeader, error) {
	if len(data) < idHeaderMinSize {
		return IdHeader{}, opuserror.New(opuserror.KindUnexpectedEOF, opIDHeader, nil)
	}
	if string(data[0:8]) != idHeaderMagic {
		return IdHeader{}, opuserror.New(opuserror.KindBadMagic, opIDHeader, nil)
	}

	version := data[8]
	if version&versionMajorMask != 0 {
		return IdHeader{}, opuserror.New(opuserror.KindUnsupportedVersion, opIDHeader, nil)
	}

	channels := data[9]
	preSkip := binary.LittleEndian.Uint16(data[10:12])
	sampleRate := binary.LittleEndian.Uint32(data[12:16])
	outputGain := int16(binary.LittleEndian.Uint16(data[16:18]))
	familyByte := data[18]

	family, err := channelmapping.ParseFamily(familyByte)
	if err != nil {
		return IdHeader{}, err
	}

	mapping, err := parseMapping(family, channels, data[19:])
	if err != nil {
		return IdHeader{}, err
	}

	return IdHeader{
		Version:         version,
		PreSkip:         preSkip,
		InputSampleRate: sampleRate,
		OutputGain:      outputGain,
		Mapping:         mapping,
	}, nil
}

// parseMapping dispatches to the wire-level mapping-table parser for
// family, validating the channel count against each family's rules.
func parseMapping(family channelmapping.Family, channels uint8, table []byte) (channelmapping.ChannelMapping, error) {
	switch family {
	case channelmapping.FamilyRTP:
		return channelmapping.NewRTP(channels)

	case channelmapping.FamilyVorbis:
		if channels < 1 || channels > 8 {
			return channelmapping.ChannelMapping{}, opuserror.New(opuserror.KindBadChannelsForFamily, opIDHeader, nil)
		}
		std, _, err := channelmapping.ParseStandardTable(table, channels)
		if err != nil {
			return channelmapping.ChannelMapping{}, err
		}
		return channelmapping.ChannelMapping{Family: family, Channels: channels, Standard: &std}, nil

	case channelmapping.FamilyAmbisonics:
		if !channelmapping.IsValidAmbisonicsChannelCount(int(channels)) {
			return channelmapping.ChannelMapping{}, opuserror.New(opuserror.KindBadChannelsForFamily, opIDHeader, nil)
		}
		std, _, err := channelmapping.ParseStandardTable(table, channels)
		if err != nil {
			return channelmapping.ChannelMapping{}, err
		}
		return channelmapping.ChannelMapping{Family: family, Channels: channels, Standard: &std}, nil

	case channelmapping.FamilyProjection:
		if !channelmapping.IsValidProjectionChannelCount(int(channels)) {
			return channelmapping.ChannelMapping{}, opuserror.New(opuserror.KindBadChannelsForFamily, opIDHeader, nil)
		}
		demix, _, err := channelmapping.ParseDemixTable(table, channels)
		if err != nil {
			return channelmapping.ChannelMapping{}, err
		}
		return channelmapping.ChannelMapping{Family: family, Channels: channels, Demix: &demix}, nil

	case channelmapping.FamilyDiscrete:
		std, _, err := channelmapping.ParseStandardTable(table, channels)
		if err != nil {
			return channelmapping.ChannelMapping{}, err
		}
		return channelmapping.ChannelMapping{Family: family, Channels: channels, Standard: &std}, nil

	default:
		return channelmapping.ChannelMapping{}, opuserror.New(opuserror.KindUnknownFamily, opIDHeader, nil)
	}
}

// PacketLenMax is a denial-of-service guard: a Comment Header packet
// larger than this is rejected outright before any parsing is
// attempted (RFC 7845 places no such limit; this is a policy choice
// carried over from the reference decoder).
const PacketLenMax = 125_829_120

// DefaultCommentsIgnoreLen is the default value of
// CommentHeader.CommentsIgnoreLen: the packet offset beyond which
// individual comments are discarded rather than parsed, a second DoS
// guard against a Comment Header claiming an enormous comment count
// while supplying little actual data.
const DefaultCommentsIgnoreLen = 61_440

// CommentHeader is the parsed Comment Header: the second packet of an
// Ogg Opus stream. Individual comment tuples are not eagerly parsed;
// Comments returns a lazy iterator over them.
type CommentHeader struct {
	Vendor string

	comments []byte // raw NAME=VALUE blob, truncated at CommentsIgnoreLen
	count    uint32

	// CommentsIgnoreLen is the packet offset beyond which comment data
	// is discarded. Configurable per the Open Question in DESIGN.md;
	// defaults to DefaultCommentsIgnoreLen.
	CommentsIgnoreLen int
}

const opCommentHeader = "oggopus.ParseCommentHeader"

// ParseCommentHeader parses a Comment Header packet per RFC 7845
// Section 5.2. ignoreLen bounds how much of the comment blob is kept
// for later iteration; pass DefaultCommentsIgnoreLen unless the caller
// has a reason to change it.
func ParseCommentHeader(data []byte, ignoreLen int) (CommentHeader, error) {
	if len(data) > PacketLenMax {
		return CommentHeader{}, opuserror.New(opuserror.KindDenialOfService, opCommentHeader, nil)
	}
	if len(data) < 16 {
		return CommentHeader{}, opuserror.New(opuserror.KindUnexpectedEOF, opCommentHeader, nil)
	}
	if string(data[0:8]) != commentHeaderMagic {
		return CommentHeader{}, opuserror.New(opuserror.KindBadMagic, opCommentHeader, nil)
	}

	vendorLen := binary.LittleEndian.Uint32(data[8:12])
	commentsStart := 12 + int(vendorLen)
	if commentsStart+4 > len(data) {
		return CommentHeader{}, opuserror.New(opuserror.KindUnexpectedEOF, opCommentHeader, nil)
	}

	vendor := strings.ToValidUTF8(string(data[12:commentsStart]), "�")
	count := binary.LittleEndian.Uint32(data[commentsStart : commentsStart+4])

	rest := data[commentsStart+4:]
	if len(data) > ignoreLen {
		cut := ignoreLen - (commentsStart + 4)
		if cut < 0 {
			cut = 0
		}
		if cut > len(rest) {
			cut = len(rest)
		}
		rest = rest[:cut]
	}
	comments := make([]byte, len(rest))
	copy(comments, rest)

	return CommentHeader{
		Vendor:            vendor,
		comments:          comments,
		count:             count,
		CommentsIgnoreLen: ignoreLen,
	}, nil
}

// CommentIterator is a single-pass, non-restartable iterator over a
// Comment Header's (name, value) tuples, advancing a cursor on each
// Next call. Malformed UTF-8 or a missing '=' separator skips that one
// entry and continues; iteration only ends at the declared comment
// count or the end of the retained comment data.
type CommentIterator struct {
	data  []byte
	total uint32
	read  uint32
	pos   int
	name  string
	value string
}

// Comments returns a lazy iterator over h's (name, value) comment
// tuples.
func (h CommentHeader) Comments() *CommentIterator {
	return &CommentIterator{data: h.comments, total: h.count}
}

// Next advances the iterator, reporting whether a further tuple was
// produced. Malformed entries are skipped transparently; Next only
// returns false once the declared comment count or the retained data
// is exhausted.
func (it *CommentIterator) Next() bool {
	for it.read < it.total && it.pos < len(it.data) {
		if it.pos+4 > len(it.data) {
			return false
		}
		length := int(binary.LittleEndian.Uint32(it.data[it.pos : it.pos+4]))
		start := it.pos + 4
		end := start + length
		it.read++

		if length < 0 || end > len(it.data) {
			it.pos = len(it.data)
			return false
		}
		it.pos = end

		raw := it.data[start:end]
		if !utf8.Valid(raw) {
			continue
		}
		idx := bytes.IndexByte(raw, '=')
		if idx < 0 {
			continue
		}
		it.name = string(raw[:idx])
		it.value = string(raw[idx+1:])
		return true
	}
	return false
}

// Name returns the current tuple's name. Only valid after a Next call
// that returned true.
func (it *CommentIterator) Name() string { return it.name }

// Value returns the current tuple's value. Only valid after a Next
// call that returned true.
func (it *CommentIterator) Value() string { return it.value }

