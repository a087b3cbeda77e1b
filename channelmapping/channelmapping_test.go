package channelmapping

import (
	"errors"
	"testing"

	"github.com/opuscore/opuscore/opuserror"
)

func TestNewRTP(t *testing.T) {
	mono, err := NewRTP(1)
	if err != nil || mono.Table().Streams() != 1 || mono.Table().Coupled() != 0 {
		t.Fatalf("NewRTP(1) = %+v, %v", mono, err)
	}
	stereo, err := NewRTP(2)
	if err != nil || stereo.Table().Streams() != 1 || stereo.Table().Coupled() != 1 {
		t.Fatalf("NewRTP(2) = %+v, %v", stereo, err)
	}
	if _, err := NewRTP(3); !errors.Is(err, opuserror.BadChannelsForFamily) {
		t.Fatalf("NewRTP(3) err = %v, want BadChannelsForFamily", err)
	}
}

func TestNewVorbisDefaultAllChannelCounts(t *testing.T) {
	for ch := uint8(1); ch <= 8; ch++ {
		m, err := NewVorbisDefault(ch)
		if err != nil {
			t.Fatalf("NewVorbisDefault(%d) err = %v", ch, err)
		}
		if len(m.Standard.ChannelToStream) != int(ch) {
			t.Fatalf("NewVorbisDefault(%d) mapping len = %d", ch, len(m.Standard.ChannelToStream))
		}
		if err := ValidateStreamCounts(m.Table().Streams(), m.Table().Coupled()); err != nil {
			t.Fatalf("NewVorbisDefault(%d) invalid stream counts: %v", ch, err)
		}
	}
	if _, err := NewVorbisDefault(9); !errors.Is(err, opuserror.BadChannelsForFamily) {
		t.Fatalf("NewVorbisDefault(9) err = %v, want BadChannelsForFamily", err)
	}
}

func TestResolveChannelSilent(t *testing.T) {
	m, err := NewDiscrete(3, 2, 1, []byte{0, 255, 1})
	if err != nil {
		t.Fatalf("NewDiscrete err = %v", err)
	}
	if _, _, ok := m.Standard.ResolveChannel(1); ok {
		t.Fatalf("ResolveChannel(1) ok = true, want false (silent)")
	}
	streamIdx, chanInStream, ok := m.Standard.ResolveChannel(0)
	if !ok || streamIdx != 0 || chanInStream != 0 {
		t.Fatalf("ResolveChannel(0) = %d, %d, %v", streamIdx, chanInStream, ok)
	}
}

func TestValidateStreamCounts(t *testing.T) {
	cases := []struct {
		streams, coupled int
		wantErr          bool
	}{
		{1, 0, false},
		{5, 5, false},
		{0, 0, true},
		{5, 6, true},
		{200, 100, true},
	}
	for _, c := range cases {
		err := ValidateStreamCounts(c.streams, c.coupled)
		if c.wantErr != (err != nil) {
			t.Errorf("ValidateStreamCounts(%d,%d) err = %v, wantErr %v", c.streams, c.coupled, err, c.wantErr)
		}
	}
}

func TestParseFamily(t *testing.T) {
	for _, b := range []byte{0, 1, 2, 3, 255} {
		if _, err := ParseFamily(b); err != nil {
			t.Errorf("ParseFamily(%d) err = %v", b, err)
		}
	}
	if _, err := ParseFamily(4); !errors.Is(err, opuserror.UnknownFamily) {
		t.Errorf("ParseFamily(4) err = %v, want UnknownFamily", err)
	}
}

func TestParseStandardTable(t *testing.T) {
	data := []byte{2, 1, 0, 2, 1, 0xFF}
	table, n, err := ParseStandardTable(data, 3)
	if err != nil {
		t.Fatalf("ParseStandardTable err = %v", err)
	}
	if n != 5 {
		t.Fatalf("ParseStandardTable consumed = %d, want 5", n)
	}
	if table.Streams() != 2 || table.Coupled() != 1 {
		t.Fatalf("ParseStandardTable table = %+v", table)
	}

	if _, _, err := ParseStandardTable(data[:2], 3); !errors.Is(err, opuserror.UnexpectedEOF) {
		t.Fatalf("ParseStandardTable short data err = %v, want UnexpectedEOF", err)
	}
}

func TestAmbisonicsIndividualValidCounts(t *testing.T) {
	for _, ch := range []uint8{1, 4, 6, 9, 11, 16} {
		m, err := NewAmbisonicsIndividual(ch)
		if err != nil {
			t.Fatalf("NewAmbisonicsIndividual(%d) err = %v", ch, err)
		}
		if len(m.Standard.ChannelToStream) != int(ch) {
			t.Fatalf("NewAmbisonicsIndividual(%d) mapping len mismatch", ch)
		}
	}
	if _, err := NewAmbisonicsIndividual(5); !errors.Is(err, opuserror.BadChannelsForFamily) {
		t.Fatalf("NewAmbisonicsIndividual(5) err = %v, want BadChannelsForFamily", err)
	}
}

func TestAmbisonicsProjectionValidOrders(t *testing.T) {
	// order+1 in [2,6] => orders 1..5 => channel counts 4,9,16,25,36 (and +2 variants).
	if _, err := NewAmbisonicsProjection(4, nil); err != nil {
		t.Fatalf("NewAmbisonicsProjection(4) err = %v", err)
	}
	if _, err := NewAmbisonicsProjection(1, nil); err == nil {
		t.Fatalf("NewAmbisonicsProjection(1) err = nil, want error (order 0 unsupported)")
	}
}

func TestIsValidAmbisonicsChannelCount(t *testing.T) {
	valid := []int{1, 3, 4, 6, 9, 11, 16, 18, 25, 27}
	for _, ch := range valid {
		if !IsValidAmbisonicsChannelCount(ch) {
			t.Errorf("IsValidAmbisonicsChannelCount(%d) = false, want true", ch)
		}
	}
	invalid := []int{0, 2, 5, 7, 8, 228}
	for _, ch := range invalid {
		if IsValidAmbisonicsChannelCount(ch) {
			t.Errorf("IsValidAmbisonicsChannelCount(%d) = true, want false", ch)
		}
	}
}

func TestIdentityDemixMatrixDiagonal(t *testing.T) {
	m := IdentityDemixMatrix(2, 1, 1)
	if len(m) != 2*2 {
		t.Fatalf("IdentityDemixMatrix len = %d, want 4", len(m))
	}
	if m[0] != 32767 || m[3] != 32767 || m[1] != 0 || m[2] != 0 {
		t.Fatalf("IdentityDemixMatrix = %v, want unity on the diagonal only", m)
	}
}
