package oggopus

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/opuscore/opuscore/channelmapping"
	"github.com/opuscore/opuscore/opuserror"
)

// idHeaderBytes builds a mapping-family-0 Identification Header packet
// per RFC 7845 Section 5.1: "OpusHead" | version | channels | pre_skip
// (LE u16) | sample_rate (LE u32) | output_gain (LE i16) | family.
func idHeaderBytes(version, channels byte, preSkip uint16, sampleRate uint32, gain int16, family byte) []byte {
	b := make([]byte, 19)
	copy(b[0:8], idHeaderMagic)
	b[8] = version
	b[9] = channels
	binary.LittleEndian.PutUint16(b[10:12], preSkip)
	binary.LittleEndian.PutUint32(b[12:16], sampleRate)
	binary.LittleEndian.PutUint16(b[16:18], uint16(gain))
	b[18] = family
	return b
}

func TestParseIDHeaderRoundTrip(t *testing.T) {
	// Testable-property scenario 6: stereo RTP stream, family 0.
	data := idHeaderBytes(1, 2, 312, 48000, 0, 0)
	h, err := ParseIDHeader(data)
	if err != nil {
		t.Fatalf("ParseIDHeader err = %v", err)
	}
	if h.Version != 1 {
		t.Fatalf("Version = %d, want 1", h.Version)
	}
	if h.PreSkip != 312 {
		t.Fatalf("PreSkip = %d, want 312", h.PreSkip)
	}
	if h.InputSampleRate != 48000 {
		t.Fatalf("InputSampleRate = %d, want 48000", h.InputSampleRate)
	}
	if h.OutputGain != 0 {
		t.Fatalf("OutputGain = %d, want 0", h.OutputGain)
	}
	if h.Mapping.Family != channelmapping.FamilyRTP {
		t.Fatalf("Family = %v, want RTP", h.Mapping.Family)
	}
	if h.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", h.Channels())
	}
	if h.Mapping.Table().Streams() != 1 || h.Mapping.Table().Coupled() != 1 {
		t.Fatalf("Table() = streams %d coupled %d, want 1 1", h.Mapping.Table().Streams(), h.Mapping.Table().Coupled())
	}
}

func TestParseIDHeaderBadMagic(t *testing.T) {
	data := idHeaderBytes(0, 1, 0, 48000, 0, 0)
	data[0] = 'X'
	_, err := ParseIDHeader(data)
	if !errors.Is(err, opuserror.BadMagic) {
		t.Fatalf("err = %v, want BadMagic", err)
	}
}

func TestParseIDHeaderUnsupportedVersion(t *testing.T) {
	data := idHeaderBytes(1<<4, 1, 0, 48000, 0, 0)
	_, err := ParseIDHeader(data)
	if !errors.Is(err, opuserror.UnsupportedVersion) {
		t.Fatalf("err = %v, want UnsupportedVersion", err)
	}
}

func TestParseIDHeaderTruncated(t *testing.T) {
	data := idHeaderBytes(0, 1, 0, 48000, 0, 0)
	_, err := ParseIDHeader(data[:10])
	if !errors.Is(err, opuserror.UnexpectedEOF) {
		t.Fatalf("err = %v, want UnexpectedEOF", err)
	}
}

func TestParseIDHeaderUnknownFamily(t *testing.T) {
	data := idHeaderBytes(0, 3, 0, 48000, 0, 7)
	_, err := ParseIDHeader(data)
	if !errors.Is(err, opuserror.UnknownFamily) {
		t.Fatalf("err = %v, want UnknownFamily", err)
	}
}

func TestParseIDHeaderVorbisFamilyWithMappingTable(t *testing.T) {
	data := idHeaderBytes(0, 3, 0, 48000, 0, 1)
	data = append(data, 2, 1, 0, 2, 1) // streams=2, coupled=1, channel_to_stream
	h, err := ParseIDHeader(data)
	if err != nil {
		t.Fatalf("ParseIDHeader err = %v", err)
	}
	if h.Mapping.Table().Streams() != 2 || h.Mapping.Table().Coupled() != 1 {
		t.Fatalf("Table() = %+v", h.Mapping.Table())
	}
}

func commentHeaderBytes(vendor string, comments []string) []byte {
	var b []byte
	b = append(b, commentHeaderMagic...)
	vlen := make([]byte, 4)
	binary.LittleEndian.PutUint32(vlen, uint32(len(vendor)))
	b = append(b, vlen...)
	b = append(b, vendor...)
	clen := make([]byte, 4)
	binary.LittleEndian.PutUint32(clen, uint32(len(comments)))
	b = append(b, clen...)
	for _, c := range comments {
		l := make([]byte, 4)
		binary.LittleEndian.PutUint32(l, uint32(len(c)))
		b = append(b, l...)
		b = append(b, c...)
	}
	return b
}

func TestParseCommentHeaderRoundTrip(t *testing.T) {
	data := commentHeaderBytes("opuscore 0.1", []string{"ARTIST=Test", "TITLE=Song"})
	ch, err := ParseCommentHeader(data, DefaultCommentsIgnoreLen)
	if err != nil {
		t.Fatalf("ParseCommentHeader err = %v", err)
	}
	if ch.Vendor != "opuscore 0.1" {
		t.Fatalf("Vendor = %q", ch.Vendor)
	}

	it := ch.Comments()
	var got []string
	for it.Next() {
		got = append(got, it.Name()+"="+it.Value())
	}
	if len(got) != 2 || got[0] != "ARTIST=Test" || got[1] != "TITLE=Song" {
		t.Fatalf("comments = %v", got)
	}
}

func TestParseCommentHeaderBadMagic(t *testing.T) {
	data := commentHeaderBytes("v", nil)
	data[0] = 'X'
	_, err := ParseCommentHeader(data, DefaultCommentsIgnoreLen)
	if !errors.Is(err, opuserror.BadMagic) {
		t.Fatalf("err = %v, want BadMagic", err)
	}
}

func TestParseCommentHeaderDenialOfServiceGuard(t *testing.T) {
	data := make([]byte, PacketLenMax+1)
	copy(data, commentHeaderMagic)
	_, err := ParseCommentHeader(data, DefaultCommentsIgnoreLen)
	if !errors.Is(err, opuserror.DenialOfService) {
		t.Fatalf("err = %v, want DenialOfService", err)
	}
}

func TestCommentIteratorSkipsMalformedEntriesSilently(t *testing.T) {
	data := commentHeaderBytes("v", []string{"NOEQUALSIGN", "ARTIST=Ok"})
	ch, err := ParseCommentHeader(data, DefaultCommentsIgnoreLen)
	if err != nil {
		t.Fatalf("ParseCommentHeader err = %v", err)
	}
	it := ch.Comments()
	if !it.Next() {
		t.Fatalf("Next() = false, want the well-formed second entry")
	}
	if it.Name() != "ARTIST" || it.Value() != "Ok" {
		t.Fatalf("Name/Value = %q/%q", it.Name(), it.Value())
	}
	if it.Next() {
		t.Fatalf("Next() = true, want iteration exhausted")
	}
}

func TestCommentIteratorTruncationAtIgnoreLen(t *testing.T) {
	comments := []string{"A=1", "B=2", "C=3"}
	data := commentHeaderBytes("v", comments)
	// Truncate right after the vendor+count preamble so no comment data
	// survives into the retained blob.
	ignoreLen := len(commentHeaderMagic) + 4 + 1 + 4
	ch, err := ParseCommentHeader(data, ignoreLen)
	if err != nil {
		t.Fatalf("ParseCommentHeader err = %v", err)
	}
	it := ch.Comments()
	if it.Next() {
		t.Fatalf("Next() = true, want no comments retained past ignoreLen")
	}
}
