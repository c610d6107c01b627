package atlottery

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/branched-services/go-atlottery/isa"
	"github.com/ethereum/go-ethereum/common"
)

// Creation header defaults.
const (
	ArtifactVersion = 2

	// PageSize is the unit of code, data and stack sizes in the header.
	PageSize = 256
)

// Header is the fixed part of the creation bytes.
type Header struct {
	Version             uint16
	NumCallStackPages   uint16
	NumUserStackPages   uint16
	MinActivationAmount int64
}

// Artifact is a synthesized program: a header, the code segment and the
// initial data segment.
type Artifact struct {
	Header
	Template Template
	Code     []byte
	Data     []byte

	// Segment maps slot names to addresses. It is nil for parsed artifacts.
	Segment *DataSegment
}

func newArtifact(t Template, code []byte, seg *DataSegment) *Artifact {
	return &Artifact{
		Header:   Header{Version: ArtifactVersion},
		Template: t,
		Code:     code,
		Data:     seg.Bytes(),
		Segment:  seg,
	}
}

// build plans the layout, assembles emit and logs the result.
func build(cfg *buildConfig, t Template, l *Layout, emit EmitFunc) (*Artifact, error) {
	seg, err := l.Plan()
	if err != nil {
		return nil, err
	}
	code, err := Assemble(emit, cfg.maxCodeSize)
	if err != nil {
		return nil, err
	}

	art := newArtifact(t, code, seg)
	cfg.logger.Debug("Synthesized AT program",
		"template", t,
		"code", len(art.Code),
		"data", len(art.Data),
		"hash", art.CodeHash(),
	)
	return art, nil
}

// CodeHash returns the SHA-256 digest of the code segment. The code of a
// template does not depend on its numeric parameters, so the hash identifies
// the template.
func (a *Artifact) CodeHash() common.Hash {
	return sha256Hash(a.Code)
}

// DataWord returns the initial value of the data word at addr.
func (a *Artifact) DataWord(addr int64) int64 {
	return int64(binary.BigEndian.Uint64(a.Data[addr*isa.WordSize:]))
}

func sha256Hash(b []byte) common.Hash {
	return common.Hash(sha256.Sum256(b))
}

func pages(n int) int {
	return (n + PageSize - 1) / PageSize
}

// lengthWidth is the byte width of a segment length prefix for a segment of
// the given page count.
func lengthWidth(numPages int) int {
	switch n := numPages * PageSize; {
	case n <= 0xff+1:
		return 1
	case n <= 0xffff+1:
		return 2
	default:
		return 4
	}
}

// CreationBytes serializes the artifact for deployment:
//
//	version, reserved, code pages, data pages, call stack pages,
//	user stack pages (uint16 each), min activation amount (int64),
//	code length + code, data length + data
//
// Each length prefix is 1, 2 or 4 bytes wide depending on the segment's
// page count. All integers are big-endian.
func (a *Artifact) CreationBytes() []byte {
	codePages, dataPages := pages(len(a.Code)), pages(len(a.Data))
	cw, dw := lengthWidth(codePages), lengthWidth(dataPages)

	out := make([]byte, 0, 20+cw+len(a.Code)+dw+len(a.Data))
	out = binary.BigEndian.AppendUint16(out, a.Version)
	out = binary.BigEndian.AppendUint16(out, 0)
	out = binary.BigEndian.AppendUint16(out, uint16(codePages))
	out = binary.BigEndian.AppendUint16(out, uint16(dataPages))
	out = binary.BigEndian.AppendUint16(out, a.NumCallStackPages)
	out = binary.BigEndian.AppendUint16(out, a.NumUserStackPages)
	out = binary.BigEndian.AppendUint64(out, uint64(a.MinActivationAmount))
	out = appendLength(out, cw, len(a.Code))
	out = append(out, a.Code...)
	out = appendLength(out, dw, len(a.Data))
	out = append(out, a.Data...)
	return out
}

func appendLength(dst []byte, width, n int) []byte {
	switch width {
	case 1:
		return append(dst, byte(n))
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		return binary.BigEndian.AppendUint32(dst, uint32(n))
	}
}

// creationReader walks creation bytes.
type creationReader struct {
	b   []byte
	off int
	err error
}

func (r *creationReader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.b) {
		r.err = fmt.Errorf("%w: truncated %s at byte %d", ErrMalformedArtifact, what, r.off)
		return nil
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p
}

func (r *creationReader) uint16(what string) uint16 {
	if p := r.take(2, what); p != nil {
		return binary.BigEndian.Uint16(p)
	}
	return 0
}

func (r *creationReader) length(width int, what string) int {
	p := r.take(width, what)
	if p == nil {
		return 0
	}
	switch width {
	case 1:
		return int(p[0])
	case 2:
		return int(binary.BigEndian.Uint16(p))
	default:
		return int(binary.BigEndian.Uint32(p))
	}
}

// ParseCreationBytes decodes bytes produced by CreationBytes. The template
// is recognized from the code; Segment is left nil.
func ParseCreationBytes(b []byte) (*Artifact, error) {
	r := &creationReader{b: b}
	art := &Artifact{}

	art.Version = r.uint16("version")
	r.uint16("reserved")
	codePages := int(r.uint16("code pages"))
	dataPages := int(r.uint16("data pages"))
	art.NumCallStackPages = r.uint16("call stack pages")
	art.NumUserStackPages = r.uint16("user stack pages")
	if p := r.take(8, "min activation amount"); p != nil {
		art.MinActivationAmount = int64(binary.BigEndian.Uint64(p))
	}

	codeLen := r.length(lengthWidth(codePages), "code length")
	if r.err == nil && codeLen > codePages*PageSize {
		return nil, fmt.Errorf("%w: code length %d exceeds %d pages", ErrMalformedArtifact, codeLen, codePages)
	}
	art.Code = append([]byte(nil), r.take(codeLen, "code")...)

	dataLen := r.length(lengthWidth(dataPages), "data length")
	if r.err == nil && dataLen > dataPages*PageSize {
		return nil, fmt.Errorf("%w: data length %d exceeds %d pages", ErrMalformedArtifact, dataLen, dataPages)
	}
	art.Data = append([]byte(nil), r.take(dataLen, "data")...)

	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(b) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedArtifact, len(b)-r.off)
	}

	art.Template = Identify(art.Code)
	return art, nil
}
