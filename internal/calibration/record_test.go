package calibration

import (
	"errors"
	"testing"
	"time"

	"github.com/askumar/violincoach/internal/pose"
)

// completeRecord builds a full record from the upright fixture.
func completeRecord() *Record {
	lm := pose.UprightLandmarks()
	return &Record{
		Posture:     capturePosture(lm),
		BowFrog:     captureBow(lm),
		BowMiddle:   captureBow(lm),
		BowTip:      captureBow(lm),
		FingerFirst: captureFinger(lm),
		FingerThird: captureFinger(lm),
		FingerHigh:  captureFinger(lm),
		CapturedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecord_Complete(t *testing.T) {
	r := completeRecord()
	if !r.Complete() {
		t.Fatal("expected complete record")
	}

	// Dropping any single snapshot makes the record incomplete
	partial := *r
	partial.BowMiddle = nil
	if partial.Complete() {
		t.Error("expected incomplete record without bow middle")
	}

	partial = *r
	partial.Posture = nil
	if partial.Complete() {
		t.Error("expected incomplete record without posture")
	}

	partial = *r
	partial.CapturedAt = time.Time{}
	if partial.Complete() {
		t.Error("expected incomplete record without timestamp")
	}
}

func TestRecord_EncodeDecode(t *testing.T) {
	r := completeRecord()

	data, err := r.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decoded.Posture.Angles != r.Posture.Angles {
		t.Errorf("reference angles changed across round trip: %+v vs %+v",
			decoded.Posture.Angles, r.Posture.Angles)
	}
	if decoded.BowFrog.ElbowAngle != r.BowFrog.ElbowAngle {
		t.Errorf("elbow angle changed across round trip: %f vs %f",
			decoded.BowFrog.ElbowAngle, r.BowFrog.ElbowAngle)
	}
	if !decoded.CapturedAt.Equal(r.CapturedAt) {
		t.Errorf("timestamp changed across round trip: %v vs %v",
			decoded.CapturedAt, r.CapturedAt)
	}
}

func TestRecord_EncodeIncomplete(t *testing.T) {
	r := completeRecord()
	r.FingerHigh = nil

	if _, err := r.Encode(); !errors.Is(err, ErrIncompleteRecord) {
		t.Errorf("expected ErrIncompleteRecord, got %v", err)
	}
}

func TestDecodeRecord_RejectsPartial(t *testing.T) {
	// A record missing snapshots must be rejected wholesale, never
	// partially adopted
	if _, err := DecodeRecord([]byte(`{"bow_frog": {"elbow_angle": 90}}`)); !errors.Is(err, ErrIncompleteRecord) {
		t.Errorf("expected ErrIncompleteRecord, got %v", err)
	}
}

func TestDecodeRecord_RejectsMalformed(t *testing.T) {
	if _, err := DecodeRecord([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed data")
	}
}
