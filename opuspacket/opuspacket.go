// Package opuspacket implements Opus packet framing per RFC 6716
// Section 3: the table-of-contents byte, the four frame-layout codes,
// the variable-length size code, self-delimited framing (Appendix B),
// and code 3's VBR/CBR, padding, and frame-count sub-structure.
package opuspacket

import (
	"github.com/opuscore/opuscore/opuserror"
	"github.com/opuscore/opuscore/opustoc"
	"github.com/opuscore/opuscore/slicex"
)

const op = "opuspacket.Parse"

// Frame is one opaque compressed frame payload plus the Config and
// stereo flag it was framed under. Data is always a heap copy so it
// outlives whatever buffer was parsed.
type Frame struct {
	Config opustoc.Config
	Stereo bool
	Data   []byte
}

// Packet is a parsed Opus packet: TOC plus an ordered list of frames.
type Packet struct {
	TOC    opustoc.TOC
	Frames []Frame
}

// lengthCode reads one RFC 6716 Section 3.2.1 length code from the front
// of data. A first byte in 0..251 is the length directly; 252..255 reads
// a second byte B, giving length = B*4 + firstByte.
func lengthCode(data []byte) (length, consumed int, err error) {
	l, err := slicex.Get(data, 0)
	if err != nil {
		return 0, 0, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
	}
	if l <= 251 {
		return int(l), 1, nil
	}
	b, err := slicex.Get(data, 1)
	if err != nil {
		return 0, 0, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
	}
	return int(b)*4 + int(l), 2, nil
}

// Parse parses one Opus packet from data. When selfDelim is true, data
// may be followed by trailing bytes belonging to another packet (e.g. a
// subsequent multistream substream); the self-delimited length code
// names the length of the *last* frame and whatever follows the parsed
// packet is returned as trailing. When selfDelim is false, the packet is
// expected to consume data exactly; any leftover byte is an error.
func Parse(data []byte, selfDelim bool) (pkt Packet, trailing []byte, err error) {
	tocByte, err := slicex.Get(data, 0)
	if err != nil {
		return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
	}

	toc := opustoc.ParseTOC(tocByte)
	offset := 1
	padding := 0
	var frameSizes []int

	switch toc.FramesLayout {
	case opustoc.LayoutOne:
		if selfDelim {
			length, consumed, lerr := lengthCode(data[offset:])
			if lerr != nil {
				return Packet{}, nil, lerr
			}
			offset += consumed
			frameSizes = []int{length}
		} else {
			frameSizes = []int{len(data) - offset}
		}

	case opustoc.LayoutTwoEqual:
		if selfDelim {
			length, consumed, lerr := lengthCode(data[offset:])
			if lerr != nil {
				return Packet{}, nil, lerr
			}
			offset += consumed
			frameSizes = []int{length, length}
		} else {
			rest := len(data) - offset
			if rest < 0 || rest%2 != 0 {
				return Packet{}, nil, opuserror.New(opuserror.KindUnevenFrameLengths, op, nil)
			}
			frameSizes = []int{rest / 2, rest / 2}
		}

	case opustoc.LayoutTwoDifferent:
		length0, consumed, lerr := lengthCode(data[offset:])
		if lerr != nil {
			return Packet{}, nil, lerr
		}
		offset += consumed

		var length1 int
		if selfDelim {
			length1, consumed, lerr = lengthCode(data[offset:])
			if lerr != nil {
				return Packet{}, nil, lerr
			}
			offset += consumed
		} else {
			length1 = len(data) - offset - length0
			if length1 < 0 {
				return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
			}
		}
		frameSizes = []int{length0, length1}

	case opustoc.LayoutArbitrary:
		fcByte, gerr := slicex.Get(data, offset)
		if gerr != nil {
			return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
		}
		fc := opustoc.ParseFrameCount(fcByte)
		offset++

		if fc.Count == 0 {
			return Packet{}, nil, opuserror.New(opuserror.KindZeroFrames, op, nil)
		}
		if fc.Count > opustoc.MaxFramesPerPacket {
			return Packet{}, nil, opuserror.New(opuserror.KindFrameOverflow, op, nil)
		}
		if int(fc.Count)*toc.Config.FrameSizeUs > opustoc.MaxPacketDurationUs {
			return Packet{}, nil, opuserror.New(opuserror.KindOverlongDuration, op, nil)
		}

		if fc.Padding {
			for {
				pb, perr := slicex.Get(data, offset)
				if perr != nil {
					return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
				}
				b := int(pb)
				offset++
				if b == 255 {
					padding += 254
				} else {
					padding += b
					break
				}
			}
		}

		count := int(fc.Count)
		frameSizes = make([]int, count)

		if fc.VBR {
			total := 0
			for i := 0; i < count-1; i++ {
				length, consumed, lerr := lengthCode(data[offset:])
				if lerr != nil {
					return Packet{}, nil, lerr
				}
				offset += consumed
				frameSizes[i] = length
				total += length
			}
			if selfDelim {
				length, consumed, lerr := lengthCode(data[offset:])
				if lerr != nil {
					return Packet{}, nil, lerr
				}
				offset += consumed
				frameSizes[count-1] = length
			} else {
				last := len(data) - offset - padding - total
				if last < 0 {
					return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
				}
				frameSizes[count-1] = last
			}
		} else {
			if selfDelim {
				length, consumed, lerr := lengthCode(data[offset:])
				if lerr != nil {
					return Packet{}, nil, lerr
				}
				offset += consumed
				for i := range frameSizes {
					frameSizes[i] = length
				}
			} else {
				rest := len(data) - offset - padding
				if rest < 0 || rest%count != 0 {
					return Packet{}, nil, opuserror.New(opuserror.KindUnevenFrameLengths, op, nil)
				}
				frameLen := rest / count
				for i := range frameSizes {
					frameSizes[i] = frameLen
				}
			}
		}
	}

	frameBytes := 0
	for _, sz := range frameSizes {
		if sz < 0 {
			return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
		}
		if sz > opustoc.MaxFrameBytes {
			return Packet{}, nil, opuserror.New(opuserror.KindOverlongFrame, op, nil)
		}
		frameBytes += sz
	}

	consumed := offset + frameBytes + padding
	if consumed > len(data) {
		return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
	}
	if !selfDelim && consumed != len(data) {
		return Packet{}, nil, opuserror.New(opuserror.KindUnevenFrameLengths, op, nil)
	}

	frames := make([]Frame, len(frameSizes))
	pos := offset
	end := offset + frameBytes
	for i, sz := range frameSizes {
		next := pos + sz
		if next > end {
			return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
		}
		span, rerr := slicex.GetRange(data, pos, next)
		if rerr != nil {
			return Packet{}, nil, opuserror.New(opuserror.KindUnexpectedEOF, op, nil)
		}
		buf := make([]byte, sz)
		copy(buf, span)
		frames[i] = Frame{Config: toc.Config, Stereo: toc.Stereo, Data: buf}
		pos = next
	}

	var tail []byte
	if selfDelim && consumed < len(data) {
		tail = data[consumed:]
	}

	return Packet{TOC: toc, Frames: frames}, tail, nil
}
