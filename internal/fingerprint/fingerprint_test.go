package fingerprint_test

import (
	"errors"
	"testing"

	"visualverify/internal/fingerprint"
	"visualverify/internal/testsupport"
)

func TestComputePNG(t *testing.T) {
	data := testsupport.PNG(t, 64, 48)

	fp, err := fingerprint.Compute(data)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(fp.ContentHash) != 32 {
		t.Fatalf("content hash length = %d", len(fp.ContentHash))
	}
	if len(fp.PerceptualHash) != 16 || len(fp.SecondaryHash) != 16 {
		t.Fatalf("unexpected perceptual hashes %q %q", fp.PerceptualHash, fp.SecondaryHash)
	}
	if fp.ByteSize != len(data) {
		t.Fatalf("byte size = %d, want %d", fp.ByteSize, len(data))
	}
	if fp.Dimensions() != "64x48" {
		t.Fatalf("dimensions = %s", fp.Dimensions())
	}
	if fp.Format != "png" {
		t.Fatalf("format = %s", fp.Format)
	}
}

func TestComputeDeterministic(t *testing.T) {
	data := testsupport.PNG(t, 32, 32)
	a, err := fingerprint.Compute(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := fingerprint.Compute(data)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("fingerprints differ: %+v vs %+v", a, b)
	}
}

func TestComputeReencodedIsNearDuplicate(t *testing.T) {
	png := testsupport.PNG(t, 64, 64)
	jpg := testsupport.JPEG(t, 64, 64)

	a, err := fingerprint.Compute(png)
	if err != nil {
		t.Fatal(err)
	}
	b, err := fingerprint.Compute(jpg)
	if err != nil {
		t.Fatal(err)
	}
	if a.ContentHash == b.ContentHash {
		t.Fatal("expected different content hashes across encodings")
	}
	dist, err := fingerprint.Distance(a.PerceptualHash, b.PerceptualHash)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if dist > 10 {
		t.Fatalf("perceptual distance %d too large for re-encoded image", dist)
	}
}

func TestComputeDecodeFailure(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("definitely not an image"),
	} {
		_, err := fingerprint.Compute(data)
		if !errors.Is(err, fingerprint.ErrDecode) {
			t.Fatalf("%s: expected ErrDecode, got %v", name, err)
		}
	}
}

func TestDistanceRejectsMalformed(t *testing.T) {
	if _, err := fingerprint.Distance("abc", "0000000000000000"); err == nil {
		t.Fatal("expected error for short hash")
	}
	dist, err := fingerprint.Distance("00000000000000ff", "0000000000000000")
	if err != nil {
		t.Fatal(err)
	}
	if dist != 8 {
		t.Fatalf("distance = %d, want 8", dist)
	}
}
