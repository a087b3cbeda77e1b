package oggopus

import (
	"io"

	sauruxiogg "github.com/SaurusXI/ogg"
	"github.com/opuscore/opuscore/opuserror"
	"github.com/opuscore/opuscore/opusmultistream"
	"github.com/opuscore/opuscore/opuspacket"
)

// Reader reads the two mandatory Ogg Opus header packets from an
// io.Reader and iterates the audio frames that follow. Construction
// reads and validates both headers; Frames lazily pulls Ogg pages one
// at a time as the caller advances the returned iterator.
//
// Ogg packets may span multiple pages (a segment table whose last
// lacing value is 255 continues into the next page). Reader
// reconstructs these itself, holding the yet-incomplete tail packet as
// per-Reader state rather than in a package-level global — the
// teacher's own container/ogg/reader.go keeps this state in a
// package-level `pendingQueue` variable, which breaks the moment two
// readers are open concurrently.
type Reader struct {
	dec     *sauruxiogg.Decoder
	id      IdHeader
	comment CommentHeader

	queued  [][]byte // packets already reconstructed, not yet handed out
	pending []byte   // bytes of a not-yet-complete trailing packet
	haveEOS bool     // true once a page with the EOS flag has been seen
}

// ReaderOption configures optional Reader behavior.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	commentsIgnoreLen int
}

// WithCommentsIgnoreLen overrides the Comment Header truncation offset
// (default DefaultCommentsIgnoreLen). See the Open Question discussion
// in DESIGN.md: RFC 7845 does not mandate this limit, it is a
// denial-of-service policy choice, so it is made configurable here
// rather than hardcoded.
func WithCommentsIgnoreLen(n int) ReaderOption {
	return func(c *readerConfig) { c.commentsIgnoreLen = n }
}

const opNewReader = "oggopus.NewReader"

// NewReader constructs a Reader over r, reading and validating the
// Identification Header and Comment Header packets. Both headers must
// each occupy a single, non-continued Ogg page, per RFC 7845 Section 5.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	cfg := readerConfig{commentsIgnoreLen: DefaultCommentsIgnoreLen}
	for _, opt := range opts {
		opt(&cfg)
	}

	dec := sauruxiogg.NewDecoder(r)

	idData, err := readHeaderPage(dec, true)
	if err != nil {
		return nil, err
	}
	id, err := ParseIDHeader(idData)
	if err != nil {
		return nil, err
	}

	commentData, err := readHeaderPage(dec, false)
	if err != nil {
		return nil, err
	}
	comment, err := ParseCommentHeader(commentData, cfg.commentsIgnoreLen)
	if err != nil {
		return nil, err
	}

	return &Reader{dec: dec, id: id, comment: comment}, nil
}

// readHeaderPage reads one Ogg page and returns its sole packet, per
// the RFC 7845 requirement that each header packet be alone on its
// page and not a continuation of a prior one. requireBOS additionally
// requires the page to open the logical bitstream (the Identification
// Header must be the very first packet read).
func readHeaderPage(dec *sauruxiogg.Decoder, requireBOS bool) ([]byte, error) {
	const op = "oggopus.readHeaderPage"
	page, _, err := dec.Decode()
	if err != nil {
		return nil, opuserror.New(opuserror.KindIO, op, err)
	}
	if requireBOS && page.Type&sauruxiogg.BOS == 0 {
		return nil, opuserror.New(opuserror.KindBadPaging, op, nil)
	}
	if page.Type&sauruxiogg.COP != 0 {
		return nil, opuserror.New(opuserror.KindBadPaging, op, nil)
	}
	if len(page.Packets) != 1 {
		return nil, opuserror.New(opuserror.KindBadPaging, op, nil)
	}

	data := make([]byte, len(page.Packets[0]))
	copy(data, page.Packets[0])
	return data, nil
}

// IDHeader returns the stream's parsed Identification Header.
func (r *Reader) IDHeader() IdHeader { return r.id }

// CommentHeader returns the stream's parsed Comment Header (without its
// comment tuples parsed; see Comments).
func (r *Reader) CommentHeader() CommentHeader { return r.comment }

// Comments returns a lazy iterator over the stream's comment tuples.
func (r *Reader) Comments() *CommentIterator { return r.comment.Comments() }

const opNextPacket = "oggopus.Reader.nextPacket"

// nextPacket returns the next fully reconstructed Ogg packet payload
// belonging to this stream, pulling additional Ogg pages as needed to
// resolve packets that straddle a page boundary. Returns io.EOF once
// the stream is exhausted.
func (r *Reader) nextPacket() ([]byte, error) {
	for {
		if len(r.queued) > 0 {
			pkt := r.queued[0]
			r.queued = r.queued[1:]
			return pkt, nil
		}
		if r.haveEOS {
			return nil, io.EOF
		}

		page, _, err := r.dec.Decode()
		if err != nil {
			if err == io.EOF {
				if r.pending != nil {
					pkt := r.pending
					r.pending = nil
					r.haveEOS = true
					return pkt, nil
				}
				return nil, io.EOF
			}
			return nil, opuserror.New(opuserror.KindIO, opNextPacket, err)
		}

		packets := page.Packets
		if len(packets) == 0 {
			continue
		}

		continued := page.Type&sauruxiogg.COP != 0
		if continued && r.pending == nil {
			// A continuation flag with nothing pending means the page
			// sequence doesn't line up with the segment tables that
			// produced it.
			return nil, opuserror.New(opuserror.KindBadPaging, opNextPacket, nil)
		}
		if continued {
			merged := make([]byte, 0, len(r.pending)+len(packets[0]))
			merged = append(merged, r.pending...)
			merged = append(merged, packets[0]...)
			packets[0] = merged
			r.pending = nil
		} else if r.pending != nil {
			// The prior page's trailing packet ended on a page boundary
			// (it was never continued into this page), so it was
			// already complete: flush it ahead of this page's packets.
			r.queued = append(r.queued, r.pending)
			r.pending = nil
		}

		if len(packets) > 1 {
			r.queued = append(r.queued, packets[:len(packets)-1]...)
		}

		last := packets[len(packets)-1]
		if page.Type&sauruxiogg.EOS != 0 {
			r.queued = append(r.queued, last)
			r.haveEOS = true
		} else {
			pending := make([]byte, len(last))
			copy(pending, last)
			r.pending = pending
		}
	}
}

// FrameIterator is a lazy, single-pass iterator over the Frames of an
// Ogg Opus stream's audio packets. Pulling one Frame reads Ogg pages
// until a complete packet is available. The last packet of each page is
// held until the following page shows whether it continues, so a packet
// may need one more page read than the pages it occupies.
type FrameIterator struct {
	r    *Reader
	buf  []opuspacket.Frame
	cur  opuspacket.Frame
	err  error
	done bool
}

// Frames returns a lazy iterator over r's audio frames.
func (r *Reader) Frames() *FrameIterator { return &FrameIterator{r: r} }

// Next advances the iterator, reporting whether a further Frame was
// produced. Once Next returns false, check Err to distinguish a clean
// end of stream from a parse failure.
func (it *FrameIterator) Next() bool {
	if it.done {
		return false
	}
	for len(it.buf) == 0 {
		data, err := it.r.nextPacket()
		if err == io.EOF {
			it.done = true
			return false
		}
		if err != nil {
			it.err = err
			it.done = true
			return false
		}

		ms, err := opusmultistream.Split(data, it.r.id.Mapping.Table())
		if err != nil {
			it.err = err
			it.done = true
			return false
		}
		it.buf = ms.Frames()
	}

	it.cur, it.buf = it.buf[0], it.buf[1:]
	return true
}

// Frame returns the Frame produced by the most recent successful Next
// call.
func (it *FrameIterator) Frame() opuspacket.Frame { return it.cur }

// Err returns the error that stopped iteration, or nil if iteration
// ended because the stream was exhausted.
func (it *FrameIterator) Err() error { return it.err }
