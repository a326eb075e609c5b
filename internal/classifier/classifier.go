// Package classifier provides product recognition interfaces for the kiosk.
// The classifier is treated as an opaque oracle: it returns a class index
// and confidence, and everything below the confidence threshold is "no
// product identified".
package classifier

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/kirana/internal/checkout"
)

// ConfidenceThreshold is the minimum confidence for a prediction to be
// accepted as a recognized product.
const ConfidenceThreshold = 0.92

// Prediction is the raw classifier output for one frame.
type Prediction struct {
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
}

// Classifier defines the interface for product classification
// implementations.
type Classifier interface {
	// Classify analyzes a video frame and returns the most likely product
	// class with its confidence score.
	Classify(frame *gocv.Mat) (Prediction, error)

	// Close releases any resources held by the classifier.
	Close() error
}

// Resolver applies the confidence threshold to predictions and maps
// accepted class indices to catalog products. Class index order equals
// catalog order.
type Resolver struct {
	threshold float64
	products  []checkout.Item
}

// NewResolver creates a Resolver over the given catalog with the default
// confidence threshold. The catalog slice order must match the model's
// class order.
func NewResolver(products []checkout.Item) *Resolver {
	return &Resolver{
		threshold: ConfidenceThreshold,
		products:  products,
	}
}

// Resolve converts a prediction to a catalog item. It reports false when
// the confidence is below the threshold or the class index has no catalog
// entry; both mean "no product identified" and are not errors.
func (r *Resolver) Resolve(p Prediction) (checkout.Item, bool) {
	if p.Confidence < r.threshold {
		return checkout.Item{}, false
	}
	if p.ClassID < 0 || p.ClassID >= len(r.products) {
		return checkout.Item{}, false
	}
	return r.products[p.ClassID], true
}
