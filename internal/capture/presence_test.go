package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewPresenceDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
	}{
		{
			name:      "default threshold",
			threshold: DefaultPresenceThreshold,
		},
		{
			name:      "high threshold",
			threshold: 5.0,
		},
		{
			name:      "low threshold",
			threshold: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd := NewPresenceDetector(tt.threshold)
			if pd == nil {
				t.Fatal("NewPresenceDetector returned nil")
			}
			defer pd.Close()

			if pd.threshold != tt.threshold {
				t.Errorf("threshold = %f, want %f", pd.threshold, tt.threshold)
			}

			if pd.initialized {
				t.Error("detector should not be initialized initially")
			}
		})
	}
}

func TestPresenceDetector_EmptyLane(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	pd := NewPresenceDetector(1.0)
	defer pd.Close()

	// Two identical black frames: nobody at the lane
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()

	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	detected, changePercent := pd.Detect(&frame1)
	if detected {
		t.Error("first frame should not report presence")
	}
	if changePercent != 0 {
		t.Errorf("first frame changePercent = %f, want 0", changePercent)
	}

	detected, changePercent = pd.Detect(&frame2)
	if detected {
		t.Errorf("identical frames should not report presence, changePercent = %f", changePercent)
	}
}

func TestPresenceDetector_ShopperArrives(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	pd := NewPresenceDetector(1.0)
	defer pd.Close()

	blackFrame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer blackFrame.Close()

	whiteFrame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer whiteFrame.Close()
	whiteFrame.SetTo(gocv.NewScalar(255, 255, 255, 0))

	detected, _ := pd.Detect(&blackFrame)
	if detected {
		t.Error("first frame should not report presence")
	}

	detected, changePercent := pd.Detect(&whiteFrame)
	if !detected {
		t.Errorf("black to white should report presence, changePercent = %f", changePercent)
	}

	if changePercent < 50.0 {
		t.Errorf("changePercent = %f, expected > 50%% for black to white transition", changePercent)
	}
}

func TestPresenceDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	pd := NewPresenceDetector(1.0)
	defer pd.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	pd.Detect(&frame)

	if !pd.initialized {
		t.Error("detector should be initialized after first Detect")
	}

	pd.Reset()

	if pd.initialized {
		t.Error("detector should not be initialized after Reset")
	}

	if !pd.prevGray.Empty() {
		t.Error("prevGray should be empty after Reset")
	}
}

func TestPresenceDetector_SetThreshold(t *testing.T) {
	pd := NewPresenceDetector(1.0)
	defer pd.Close()

	if pd.threshold != 1.0 {
		t.Errorf("initial threshold = %f, want 1.0", pd.threshold)
	}

	pd.SetThreshold(5.0)
	if pd.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0 after SetThreshold", pd.threshold)
	}

	pd.SetThreshold(0.5)
	if pd.threshold != 0.5 {
		t.Errorf("threshold = %f, want 0.5 after SetThreshold", pd.threshold)
	}
}

func TestPresenceDetector_SetThreshold_Negative(t *testing.T) {
	pd := NewPresenceDetector(1.0)
	defer pd.Close()

	pd.SetThreshold(-1.0)
	if pd.threshold != 1.0 {
		t.Errorf("negative threshold should be ignored, got %f, want 1.0", pd.threshold)
	}
}

func TestPresenceDetector_Close_Multiple(t *testing.T) {
	pd := NewPresenceDetector(1.0)

	pd.Close()
	pd.Close()
}

func TestPresenceDetector_Detect_AfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	pd := NewPresenceDetector(1.0)

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	pd.Detect(&frame)
	pd.Close()

	// Detect after close re-seeds the baseline
	detected, _ := pd.Detect(&frame)
	if detected {
		t.Error("first frame after close should not report presence")
	}
}
