package classifier

import "gocv.io/x/gocv"

// MockClassifier is a test implementation of the Classifier interface.
// It allows tests to control the prediction results.
type MockClassifier struct {
	prediction Prediction
	err        error
}

// NewMockClassifier creates a MockClassifier that predicts nothing
// (confidence 0) until configured.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// SetPrediction sets the prediction returned by Classify.
func (m *MockClassifier) SetPrediction(classID int, confidence float64) {
	m.prediction = Prediction{ClassID: classID, Confidence: confidence}
}

// SetError sets the error returned by Classify.
func (m *MockClassifier) SetError(err error) {
	m.err = err
}

// Classify returns the pre-configured prediction or error.
func (m *MockClassifier) Classify(frame *gocv.Mat) (Prediction, error) {
	if m.err != nil {
		return Prediction{}, m.err
	}
	return m.prediction, nil
}

// Close is a no-op for the mock classifier.
func (m *MockClassifier) Close() error {
	return nil
}
