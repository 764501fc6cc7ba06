// Package calibration captures and holds per-player reference snapshots:
// a posture reference plus bow and finger position snapshots taken during
// a step-sequenced calibration session.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/askumar/violincoach/internal/angles"
	"github.com/askumar/violincoach/internal/pose"
)

// ErrIncompleteRecord is returned when a persisted calibration record is
// missing required fields. Such records are rejected wholesale and never
// partially adopted.
var ErrIncompleteRecord = errors.New("calibration record incomplete")

// ReferenceAngles holds the derived angles captured with the posture
// reference.
type ReferenceAngles struct {
	LeftShoulder  float64 `json:"left_shoulder"`
	RightShoulder float64 `json:"right_shoulder"`
	Back          float64 `json:"back"`
	Neck          float64 `json:"neck"`
}

// PostureReference is the snapshot of a correctly held playing posture.
// It is immutable after capture; recalibration replaces it wholesale.
type PostureReference struct {
	Nose          pose.Point3D    `json:"nose"`
	LeftShoulder  pose.Point3D    `json:"left_shoulder"`
	RightShoulder pose.Point3D    `json:"right_shoulder"`
	LeftElbow     pose.Point3D    `json:"left_elbow"`
	RightElbow    pose.Point3D    `json:"right_elbow"`
	LeftWrist     pose.Point3D    `json:"left_wrist"`
	RightWrist    pose.Point3D    `json:"right_wrist"`
	LeftHip       pose.Point3D    `json:"left_hip"`
	RightHip      pose.Point3D    `json:"right_hip"`
	Angles        ReferenceAngles `json:"angles"`
}

// BowPosition is the snapshot of the bowing arm at one point of the bow
// (frog, middle or tip).
type BowPosition struct {
	Shoulder   pose.Point3D `json:"shoulder"`
	Elbow      pose.Point3D `json:"elbow"`
	Wrist      pose.Point3D `json:"wrist"`
	ElbowAngle float64      `json:"elbow_angle"`
}

// FingerPosition is the snapshot of the fingering arm in one left-hand
// position. The pose model has no per-finger landmarks, so the arm joints
// stand in for hand placement.
type FingerPosition struct {
	Shoulder pose.Point3D `json:"shoulder"`
	Elbow    pose.Point3D `json:"elbow"`
	Wrist    pose.Point3D `json:"wrist"`
}

// Record is the complete calibration package: the posture reference plus
// three bow and three finger snapshots. It becomes available as an atomic
// immutable value once every step has been captured.
type Record struct {
	Posture     *PostureReference `json:"posture_reference"`
	BowFrog     *BowPosition      `json:"bow_frog"`
	BowMiddle   *BowPosition      `json:"bow_middle"`
	BowTip      *BowPosition      `json:"bow_tip"`
	FingerFirst *FingerPosition   `json:"finger_first"`
	FingerThird *FingerPosition   `json:"finger_third"`
	FingerHigh  *FingerPosition   `json:"finger_high"`
	CapturedAt  time.Time         `json:"captured_at"`
}

// Complete reports whether every calibration step has been captured.
func (r *Record) Complete() bool {
	return r.Posture != nil &&
		r.BowFrog != nil && r.BowMiddle != nil && r.BowTip != nil &&
		r.FingerFirst != nil && r.FingerThird != nil && r.FingerHigh != nil &&
		!r.CapturedAt.IsZero()
}

// Encode serializes the record for persistence.
func (r *Record) Encode() ([]byte, error) {
	if !r.Complete() {
		return nil, ErrIncompleteRecord
	}
	return json.Marshal(r)
}

// DecodeRecord parses a persisted calibration record, rejecting it
// wholesale if any required field is missing.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse calibration record: %w", err)
	}
	if !r.Complete() {
		return nil, ErrIncompleteRecord
	}
	return &r, nil
}

// capturePosture snapshots the posture-relevant joints and derived angles
// from a landmark frame.
func capturePosture(lm *pose.Landmarks) *PostureReference {
	posture, _ := angles.ComputePosture(lm)

	return &PostureReference{
		Nose:          lm.Points[pose.Nose],
		LeftShoulder:  lm.Points[pose.LeftShoulder],
		RightShoulder: lm.Points[pose.RightShoulder],
		LeftElbow:     lm.Points[pose.LeftElbow],
		RightElbow:    lm.Points[pose.RightElbow],
		LeftWrist:     lm.Points[pose.LeftWrist],
		RightWrist:    lm.Points[pose.RightWrist],
		LeftHip:       lm.Points[pose.LeftHip],
		RightHip:      lm.Points[pose.RightHip],
		Angles: ReferenceAngles{
			LeftShoulder:  posture.LeftShoulder,
			RightShoulder: posture.RightShoulder,
			Back:          posture.BackVertical,
			Neck:          posture.Neck,
		},
	}
}

// captureBow snapshots the bowing arm joints and elbow angle.
func captureBow(lm *pose.Landmarks) *BowPosition {
	elbowAngle, _ := angles.ElbowAngle(lm)

	return &BowPosition{
		Shoulder:   lm.Points[pose.RightShoulder],
		Elbow:      lm.Points[pose.RightElbow],
		Wrist:      lm.Points[pose.RightWrist],
		ElbowAngle: elbowAngle,
	}
}

// captureFinger snapshots the fingering arm joints.
func captureFinger(lm *pose.Landmarks) *FingerPosition {
	return &FingerPosition{
		Shoulder: lm.Points[pose.LeftShoulder],
		Elbow:    lm.Points[pose.LeftElbow],
		Wrist:    lm.Points[pose.LeftWrist],
	}
}
