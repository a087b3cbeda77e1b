// Package opustoc implements the Opus configuration table and
// table-of-contents (TOC) byte data model per RFC 6716 Section 3.1,
// Table 2.
package opustoc

// Mode is the downstream codec that handles a frame.
type Mode uint8

const (
	ModeSilk Mode = iota
	ModeHybrid
	ModeCelt
)

func (m Mode) String() string {
	switch m {
	case ModeSilk:
		return "silk"
	case ModeHybrid:
		return "hybrid"
	case ModeCelt:
		return "celt"
	default:
		return "unknown"
	}
}

// Bandwidth is the audio bandwidth a Config encodes at.
type Bandwidth uint8

const (
	BandwidthNarrowband Bandwidth = iota // 4 kHz
	BandwidthMediumband                  // 6 kHz
	BandwidthWideband                    // 8 kHz
	BandwidthSuperwideband               // 12 kHz
	BandwidthFullband                    // 20 kHz
)

func (b Bandwidth) String() string {
	switch b {
	case BandwidthNarrowband:
		return "narrowband"
	case BandwidthMediumband:
		return "mediumband"
	case BandwidthWideband:
		return "wideband"
	case BandwidthSuperwideband:
		return "superwideband"
	case BandwidthFullband:
		return "fullband"
	default:
		return "unknown"
	}
}

// Config decomposes a 5-bit Opus configuration number (0-31) into its
// three orthogonal attributes.
type Config struct {
	Number      uint8
	Mode        Mode
	Bandwidth   Bandwidth
	FrameSizeUs int       // frame duration in microseconds
}

// configTable maps every configuration number 0-31 to its Config, per
// RFC 6716 Table 2. Every integer in 0..32 maps to exactly one entry.
var configTable = [32]Config{
	// SILK-only NB: configs 0-3 (10/20/40/60ms)
	{0, ModeSilk, BandwidthNarrowband, 10000},
	{1, ModeSilk, BandwidthNarrowband, 20000},
	{2, ModeSilk, BandwidthNarrowband, 40000},
	{3, ModeSilk, BandwidthNarrowband, 60000},
	// SILK-only MB: configs 4-7
	{4, ModeSilk, BandwidthMediumband, 10000},
	{5, ModeSilk, BandwidthMediumband, 20000},
	{6, ModeSilk, BandwidthMediumband, 40000},
	{7, ModeSilk, BandwidthMediumband, 60000},
	// SILK-only WB: configs 8-11
	{8, ModeSilk, BandwidthWideband, 10000},
	{9, ModeSilk, BandwidthWideband, 20000},
	{10, ModeSilk, BandwidthWideband, 40000},
	{11, ModeSilk, BandwidthWideband, 60000},
	// Hybrid SWB: configs 12-13
	{12, ModeHybrid, BandwidthSuperwideband, 10000},
	{13, ModeHybrid, BandwidthSuperwideband, 20000},
	// Hybrid FB: configs 14-15
	{14, ModeHybrid, BandwidthFullband, 10000},
	{15, ModeHybrid, BandwidthFullband, 20000},
	// CELT NB: configs 16-19 (2.5/5/10/20ms)
	{16, ModeCelt, BandwidthNarrowband, 2500},
	{17, ModeCelt, BandwidthNarrowband, 5000},
	{18, ModeCelt, BandwidthNarrowband, 10000},
	{19, ModeCelt, BandwidthNarrowband, 20000},
	// CELT WB: configs 20-23
	{20, ModeCelt, BandwidthWideband, 2500},
	{21, ModeCelt, BandwidthWideband, 5000},
	{22, ModeCelt, BandwidthWideband, 10000},
	{23, ModeCelt, BandwidthWideband, 20000},
	// CELT SWB: configs 24-27
	{24, ModeCelt, BandwidthSuperwideband, 2500},
	{25, ModeCelt, BandwidthSuperwideband, 5000},
	{26, ModeCelt, BandwidthSuperwideband, 10000},
	{27, ModeCelt, BandwidthSuperwideband, 20000},
	// CELT FB: configs 28-31
	{28, ModeCelt, BandwidthFullband, 2500},
	{29, ModeCelt, BandwidthFullband, 5000},
	{30, ModeCelt, BandwidthFullband, 10000},
	{31, ModeCelt, BandwidthFullband, 20000},
}

// ConfigForNumber returns the Config for a 5-bit configuration number.
// The caller must ensure n < 32; TOC parsing always derives n from a
// 5-bit field so this can never be out of range there.
func ConfigForNumber(n uint8) Config {
	return configTable[n&0x1F]
}

// FramesLayout is the frame-layout code occupying the low two bits of
// the TOC byte.
type FramesLayout uint8

const (
	LayoutOne FramesLayout = iota
	LayoutTwoEqual
	LayoutTwoDifferent
	LayoutArbitrary
)

func (l FramesLayout) String() string {
	switch l {
	case LayoutOne:
		return "one"
	case LayoutTwoEqual:
		return "two-equal"
	case LayoutTwoDifferent:
		return "two-different"
	case LayoutArbitrary:
		return "arbitrary"
	default:
		return "unknown"
	}
}

// TOC is the parsed table-of-contents byte: the first byte of every
// Opus packet.
type TOC struct {
	Config       Config
	Stereo       bool
	FramesLayout FramesLayout
}

// ParseTOC decodes a TOC byte: config in the upper 5 bits, stereo flag
// in bit 2, frames-layout code in the low 2 bits.
func ParseTOC(b byte) TOC {
	return TOC{
		Config:       ConfigForNumber(b >> 3),
		Stereo:       b&0x04 != 0,
		FramesLayout: FramesLayout(b & 0x03),
	}
}

// Byte re-encodes the TOC back into its single-byte wire form.
func (t TOC) Byte() byte {
	b := t.Config.Number << 3
	if t.Stereo {
		b |= 0x04
	}
	b |= byte(t.FramesLayout)
	return b
}

// FrameCount is the second byte of a packet when FramesLayout is
// LayoutArbitrary (code 3).
type FrameCount struct {
	VBR     bool
	Padding bool
	Count   uint8 // 1..48
}

// ParseFrameCount decodes a FrameCount byte: VBR flag in bit 7, padding
// flag in bit 6, frame count in the low 6 bits.
func ParseFrameCount(b byte) FrameCount {
	return FrameCount{
		VBR:     b&0x80 != 0,
		Padding: b&0x40 != 0,
		Count:   b & 0x3F,
	}
}

// Byte re-encodes the FrameCount back into its single-byte wire form.
func (fc FrameCount) Byte() byte {
	b := fc.Count & 0x3F
	if fc.VBR {
		b |= 0x80
	}
	if fc.Padding {
		b |= 0x40
	}
	return b
}

// MaxFrameBytes is the largest size a single Opus frame may encode to
// (RFC 6716 R2).
const MaxFrameBytes = 1275

// MaxFramesPerPacket is the largest number of frames a single packet may
// carry.
const MaxFramesPerPacket = 48

// MaxPacketDurationUs is the largest total frame duration a packet may
// carry (RFC 6716 R5).
const MaxPacketDurationUs = 120000
