// Package fingerprint derives exact and near-duplicate identity signatures
// for raw image bytes.
//
// A Fingerprint carries an MD5 content digest for exact matches plus two
// independent 64-bit perceptual hashes (pHash and dHash) for matches that
// survive re-encoding or resizing. Computing a fingerprint performs no I/O.
package fingerprint

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode marks image bytes that could not be decoded.
var ErrDecode = errors.New("image decode failed")

// Fingerprint identifies an image. It is a value type and never mutated after
// Compute returns it.
type Fingerprint struct {
	ContentHash    string `json:"contentHash"`
	PerceptualHash string `json:"perceptualHash"`
	SecondaryHash  string `json:"secondaryHash"`
	ByteSize       int    `json:"byteSize"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Format         string `json:"format,omitempty"`
}

// Dimensions renders the pixel size as WxH.
func (f Fingerprint) Dimensions() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Compute decodes data and returns its fingerprint.
func Compute(data []byte) (Fingerprint, error) {
	if len(data) == 0 {
		return Fingerprint{}, fmt.Errorf("%w: empty input", ErrDecode)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return Fingerprint{}, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	phash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: perceptual hash: %w", ErrDecode, err)
	}
	dhash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: difference hash: %w", ErrDecode, err)
	}

	sum := md5.Sum(data)
	return Fingerprint{
		ContentHash:    hex.EncodeToString(sum[:]),
		PerceptualHash: formatHash(phash.GetHash()),
		SecondaryHash:  formatHash(dhash.GetHash()),
		ByteSize:       len(data),
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		Format:         format,
	}, nil
}

// Distance returns the Hamming distance between two perceptual hashes of the
// same algorithm, as produced in Fingerprint.PerceptualHash.
func Distance(a, b string) (int, error) {
	left, err := parseHash(a)
	if err != nil {
		return 0, err
	}
	right, err := parseHash(b)
	if err != nil {
		return 0, err
	}
	return goimagehash.NewImageHash(left, goimagehash.PHash).Distance(goimagehash.NewImageHash(right, goimagehash.PHash))
}

func formatHash(v uint64) string {
	return fmt.Sprintf("%016x", v)
}

func parseHash(s string) (uint64, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("invalid perceptual hash %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid perceptual hash %q: %w", s, err)
	}
	return v, nil
}
