package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PointingHandLandmarks returns a preset HandLandmarks with the index
// finger extended and its tip at the given normalized frame position.
// The remaining fingers are curled toward the palm below the tip.
func PointingHandLandmarks(tipX, tipY float64) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	// Palm below and slightly left of the fingertip
	landmarks.Points[Wrist] = Point3D{X: tipX - 0.05, Y: tipY + 0.30, Z: 0.0}

	// Thumb tucked across the palm
	landmarks.Points[ThumbCMC] = Point3D{X: tipX - 0.02, Y: tipY + 0.27, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: tipX + 0.01, Y: tipY + 0.24, Z: -0.01}
	landmarks.Points[ThumbIP] = Point3D{X: tipX + 0.03, Y: tipY + 0.22, Z: -0.02}
	landmarks.Points[ThumbTip] = Point3D{X: tipX + 0.04, Y: tipY + 0.21, Z: -0.02}

	// Index finger extended toward the tip
	landmarks.Points[IndexMCP] = Point3D{X: tipX - 0.02, Y: tipY + 0.20, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: tipX - 0.01, Y: tipY + 0.13, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: tipX, Y: tipY + 0.06, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: tipX, Y: tipY, Z: 0.0}

	// Middle finger curled
	landmarks.Points[MiddleMCP] = Point3D{X: tipX - 0.05, Y: tipY + 0.20, Z: -0.01}
	landmarks.Points[MiddlePIP] = Point3D{X: tipX - 0.05, Y: tipY + 0.16, Z: -0.04}
	landmarks.Points[MiddleDIP] = Point3D{X: tipX - 0.06, Y: tipY + 0.20, Z: -0.04}
	landmarks.Points[MiddleTip] = Point3D{X: tipX - 0.06, Y: tipY + 0.23, Z: -0.02}

	// Ring finger curled
	landmarks.Points[RingMCP] = Point3D{X: tipX - 0.08, Y: tipY + 0.21, Z: -0.01}
	landmarks.Points[RingPIP] = Point3D{X: tipX - 0.08, Y: tipY + 0.17, Z: -0.04}
	landmarks.Points[RingDIP] = Point3D{X: tipX - 0.09, Y: tipY + 0.21, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: tipX - 0.09, Y: tipY + 0.24, Z: -0.02}

	// Pinky curled
	landmarks.Points[PinkyMCP] = Point3D{X: tipX - 0.11, Y: tipY + 0.23, Z: -0.01}
	landmarks.Points[PinkyPIP] = Point3D{X: tipX - 0.11, Y: tipY + 0.19, Z: -0.04}
	landmarks.Points[PinkyDIP] = Point3D{X: tipX - 0.12, Y: tipY + 0.22, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: tipX - 0.12, Y: tipY + 0.25, Z: -0.02}

	return landmarks
}
