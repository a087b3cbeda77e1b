// Package opuserror defines the unified error taxonomy surfaced by every
// parsing package in this module. Each subsystem package (opuspacket,
// channelmapping, oggopus, ...) reports failures through New, so every
// error is the one Kind-tagged sum type callers at the module boundary
// are expected to switch on.
package opuserror

import (
	"errors"
	"fmt"
)

// Kind identifies which arm of the decoding-error taxonomy an Error
// belongs to.
type Kind uint8

const (
	// KindUnexpectedEOF means the input buffer ended mid-structure.
	KindUnexpectedEOF Kind = iota

	// KindOverlongFrame means a frame's computed length exceeds 1275 bytes.
	KindOverlongFrame
	// KindUnevenFrameLengths means an implicit frame-length split did not
	// divide evenly (e.g. an odd payload for two equal frames).
	KindUnevenFrameLengths
	// KindFrameOverflow means a packet would carry more than 48 frames.
	KindFrameOverflow
	// KindZeroFrames means a code-3 FrameCount byte encoded zero frames.
	KindZeroFrames
	// KindOverlongDuration means total frame duration exceeds 120ms.
	KindOverlongDuration

	// KindUnknownFamily means a channel mapping family is not one of
	// {0, 1, 2, 3, 255}.
	KindUnknownFamily
	// KindBadChannelsForFamily means the channel count is not valid for
	// the given mapping family.
	KindBadChannelsForFamily
	// KindIllegalStreams means the (streams, coupled) pair fails the
	// invariant streams >= 1, coupled <= streams, streams+coupled <= 255.
	KindIllegalStreams

	// KindDenialOfService means an input is large enough to trip a
	// resource guard (e.g. Comment Header packet length).
	KindDenialOfService
	// KindBadPaging means an Ogg page arrived out of the position the
	// Opus-in-Ogg mapping requires (e.g. the ID header not being first).
	KindBadPaging
	// KindBadMagic means a header's magic signature didn't match.
	KindBadMagic
	// KindUnsupportedVersion means an Identification Header's major
	// version field was non-zero.
	KindUnsupportedVersion

	// KindIO means the underlying byte source returned an I/O error.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindUnexpectedEOF:
		return "unexpected EOF"
	case KindOverlongFrame:
		return "overlong frame"
	case KindUnevenFrameLengths:
		return "uneven frame lengths"
	case KindFrameOverflow:
		return "frame overflow"
	case KindZeroFrames:
		return "zero frames"
	case KindOverlongDuration:
		return "overlong duration"
	case KindUnknownFamily:
		return "unknown channel mapping family"
	case KindBadChannelsForFamily:
		return "bad channel count for mapping family"
	case KindIllegalStreams:
		return "illegal stream counts"
	case KindDenialOfService:
		return "denial of service guard tripped"
	case KindBadPaging:
		return "bad Ogg paging"
	case KindBadMagic:
		return "bad magic signature"
	case KindUnsupportedVersion:
		return "unsupported version"
	case KindIO:
		return "I/O error"
	default:
		return "unknown error"
	}
}

// Error is the single decoding-error sum type surfaced to callers. It is
// cheap to copy, carries no backtrace, and chains to its underlying
// cause (if any) via Unwrap.
type Error struct {
	Kind Kind
	Op   string // e.g. "opuspacket.Parse", "oggopus.NewReader"
	Err  error  // the underlying cause this wraps, or nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the same Kind, so callers can do
// errors.Is(err, opuserror.ZeroFrames) style checks.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// New builds an Error of the given Kind, tagging it with op (the
// producing function's name) and wrapping err (the underlying cause),
// which may be nil.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// kindSentinel returns a zero-value Error carrying only a Kind, suitable
// as a comparison target for errors.Is.
func kindSentinel(k Kind) *Error { return &Error{Kind: k} }

// Sentinels for errors.Is(err, opuserror.Xxx) comparisons, mirroring
// the Kind constants above.
var (
	UnexpectedEOF        = kindSentinel(KindUnexpectedEOF)
	OverlongFrame        = kindSentinel(KindOverlongFrame)
	UnevenFrameLengths   = kindSentinel(KindUnevenFrameLengths)
	FrameOverflow        = kindSentinel(KindFrameOverflow)
	ZeroFrames           = kindSentinel(KindZeroFrames)
	OverlongDuration     = kindSentinel(KindOverlongDuration)
	UnknownFamily        = kindSentinel(KindUnknownFamily)
	BadChannelsForFamily = kindSentinel(KindBadChannelsForFamily)
	IllegalStreams       = kindSentinel(KindIllegalStreams)
	DenialOfService      = kindSentinel(KindDenialOfService)
	BadPaging            = kindSentinel(KindBadPaging)
	BadMagic             = kindSentinel(KindBadMagic)
	UnsupportedVersion   = kindSentinel(KindUnsupportedVersion)
	IO                   = kindSentinel(KindIO)
)
