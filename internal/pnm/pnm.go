// Package pnm implements the PNM P1-P6 file formats (§6): the external
// collaborator format cmd/qfinspect reads sample rasters from and writes
// rendered/binarized output to. Grounded on the teacher's internal/encode
// packaging idiom (one small, self-contained codec per format) applied
// from scratch to PNM's header grammar, since the teacher has no ASCII
// raster format of its own.
package pnm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/qferr"
)

// Variant identifies one of the six PNM magic numbers.
type Variant byte

const (
	P1 Variant = '1' // ASCII bitmap
	P2 Variant = '2' // ASCII graymap
	P3 Variant = '3' // ASCII pixmap
	P4 Variant = '4' // binary bitmap
	P5 Variant = '5' // binary graymap
	P6 Variant = '6' // binary pixmap
)

func (v Variant) ascii() bool { return v == P1 || v == P2 || v == P3 }
func (v Variant) step() int {
	if v == P3 || v == P6 {
		return 3
	}
	return 1
}
func (v Variant) hasMaxval() bool { return v != P1 && v != P4 }

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f' }

// readToken reads one whitespace-delimited token, skipping '#'-to-end-of-
// line comments wherever they occur between tokens. The single whitespace
// byte terminating the token is consumed as part of finding its boundary,
// which is exactly the "one separator byte" PNM's binary variants require
// between their header and raw payload.
func readToken(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			for {
				b2, err := br.ReadByte()
				if err != nil {
					return "", err
				}
				if b2 == '\n' {
					break
				}
			}
			continue
		}
		if isSpace(b) {
			continue
		}
		buf = append(buf, b)
		break
	}
	for {
		b, err := br.ReadByte()
		if err != nil {
			break
		}
		if isSpace(b) {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

type header struct {
	variant       Variant
	width, height int
	maxval        int
}

func readHeader(br *bufio.Reader) (header, error) {
	var h header
	magic, err := readToken(br)
	if err != nil || len(magic) != 2 || magic[0] != 'P' {
		return h, qferr.New(qferr.InputError, "pnm.read", "missing or malformed magic number")
	}
	switch Variant(magic[1]) {
	case P1, P2, P3, P4, P5, P6:
		h.variant = Variant(magic[1])
	default:
		return h, qferr.Errorf(qferr.InputError, "pnm.read", "unsupported PNM variant %q", magic)
	}

	wTok, err := readToken(br)
	if err != nil {
		return h, qferr.Wrap(qferr.InputError, "pnm.read", err)
	}
	h.width, err = strconv.Atoi(wTok)
	if err != nil || h.width <= 0 {
		return h, qferr.Errorf(qferr.InputError, "pnm.read", "bad width %q", wTok)
	}

	hTok, err := readToken(br)
	if err != nil {
		return h, qferr.Wrap(qferr.InputError, "pnm.read", err)
	}
	h.height, err = strconv.Atoi(hTok)
	if err != nil || h.height <= 0 {
		return h, qferr.Errorf(qferr.InputError, "pnm.read", "bad height %q", hTok)
	}

	if h.variant.hasMaxval() {
		mTok, err := readToken(br)
		if err != nil {
			return h, qferr.Wrap(qferr.InputError, "pnm.read", err)
		}
		h.maxval, err = strconv.Atoi(mTok)
		if err != nil || h.maxval <= 0 {
			return h, qferr.Errorf(qferr.InputError, "pnm.read", "bad maxval %q", mTok)
		}
	} else {
		h.maxval = 1
	}
	return h, nil
}

// Read parses a PNM stream of any of the six variants into a U8
// grayscale (step 1) or RGB (step 3) image. Maxval > 255 is rejected with
// NotImplemented: every consumer in this repository works in 8-bit
// samples, and the external interface only requires U16/U32 support for
// inputs this package is never asked to produce.
func Read(r io.Reader) (*pixel.Image[uint8], error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	if h.maxval > 255 {
		return nil, qferr.Errorf(qferr.NotImplemented, "pnm.read", "maxval %d exceeds 8-bit support", h.maxval)
	}

	step := h.variant.step()
	n := h.width * h.height * step
	data := make([]uint8, n)

	if h.variant.ascii() {
		for i := 0; i < n; i++ {
			tok, err := readToken(br)
			if err != nil {
				return nil, qferr.Wrap(qferr.InputError, "pnm.read", err)
			}
			v, err := strconv.Atoi(tok)
			if err != nil || v < 0 || v > h.maxval {
				return nil, qferr.Errorf(qferr.InputError, "pnm.read", "sample %d out of range for maxval %d", v, h.maxval)
			}
			data[i] = uint8(v)
		}
	} else {
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, qferr.Wrap(qferr.InputError, "pnm.read", err)
		}
	}

	format := pixel.FormatGrey
	if step == 3 {
		format = pixel.FormatRGB
	}
	return pixel.CreateFromData(data, pixel.U8, format, h.width, h.height, step, 0)
}

// Write serializes img as the given PNM variant, with a fixed
// "Created by cvsu" header comment per the external format contract.
// variant's step (1 or 3) must match img.Step().
func Write(w io.Writer, img *pixel.Image[uint8], variant Variant) error {
	if img == nil {
		return qferr.New(qferr.BadPointer, "pnm.write", "nil image")
	}
	if img.Step() != variant.step() {
		return qferr.Errorf(qferr.BadType, "pnm.write", "variant %c requires step %d, image has step %d", byte(variant), variant.step(), img.Step())
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P%c\n# Created by cvsu\n%d %d\n", byte(variant), img.Width(), img.Height())
	if variant.hasMaxval() {
		fmt.Fprintf(bw, "255\n")
	}

	if variant.ascii() {
		for y := 0; y < img.Height(); y++ {
			row := img.Row(y)
			for i, v := range row {
				if i > 0 {
					bw.WriteByte(' ')
				}
				fmt.Fprintf(bw, "%d", v)
			}
			bw.WriteByte('\n')
		}
	} else {
		for y := 0; y < img.Height(); y++ {
			if _, err := bw.Write(img.Row(y)); err != nil {
				return qferr.Wrap(qferr.Fatal, "pnm.write", err)
			}
		}
	}
	return bw.Flush()
}
