package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/kirana/internal/app"
	"github.com/ayusman/kirana/internal/capture"
	"github.com/ayusman/kirana/internal/checkout"
	"github.com/ayusman/kirana/internal/classifier"
	"github.com/ayusman/kirana/internal/detector"
	"github.com/ayusman/kirana/internal/server"
	"github.com/ayusman/kirana/internal/store"
)

const catalogCSV = `Product_ID,Product_Name,Price,Discount
1001,Oat Biscuits,$10.00,10%
1002,Green Tea,$5.00,0%`

// laneFrames builds an alternating black/white frame sequence so the
// presence detector sees constant change, keeping the pipeline active.
func laneFrames(t *testing.T) []*gocv.Mat {
	t.Helper()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	t.Cleanup(func() {
		black.Close()
		white.Close()
	})
	return []*gocv.Mat{&black, &white}
}

// capturePlayback wraps the synthetic frames in a looping mock camera.
func capturePlayback(t *testing.T) capture.Camera {
	t.Helper()
	return capture.NewMockCamera(laneFrames(t), true)
}

func postAction(t *testing.T, client *http.Client, base, action, body string) *http.Response {
	t.Helper()

	resp, err := client.Post(base+"/api/session/"+action, "application/json", strings.NewReader(body))
	require.NoError(t, err, "POST /api/session/%s", action)
	return resp
}

func TestE2E_CashCheckout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	require.NoError(t, err)
	defer s.Close()

	kiosk := app.New(app.Config{
		Store:    s,
		CameraID: -1,
		QRDir:    filepath.Join(tmpDir, "qr_codes"),
	})
	defer kiosk.Stop()

	// The lane camera plays back synthetic frames; recognition always sees
	// product class 0 with high confidence.
	kiosk.SetCamera(capturePlayback(t))
	kiosk.SetDetector(detector.NewMockDetector())
	mockCls := classifier.NewMockClassifier()
	mockCls.SetPrediction(0, 0.99)
	kiosk.SetClassifier(mockCls)

	srv := server.New(server.Config{Store: s, App: kiosk})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// Stock the catalog over the API, then load it into the recognizer.
	resp, err := client.Post(ts.URL+"/api/products/import", "text/csv", strings.NewReader(catalogCSV))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	require.NoError(t, kiosk.LoadCatalog())

	require.NoError(t, kiosk.Start())
	kiosk.SetEnabled(true)

	resp = postAction(t, client, ts.URL, "start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The pipeline needs a few frames to warm up presence detection and
	// run recognition; wait for a candidate to appear.
	require.Eventually(t, func() bool {
		return kiosk.Snapshot().Candidate != nil
	}, 5*time.Second, 50*time.Millisecond, "recognition never produced a candidate")

	// Scan the recognized product twice.
	for i := 0; i < 2; i++ {
		resp = postAction(t, client, ts.URL, "scan", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var scanResp struct {
			Scanned bool `json:"scanned"`
			Item    struct {
				Name string `json:"name"`
			} `json:"item"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&scanResp))
		resp.Body.Close()

		require.True(t, scanResp.Scanned)
		assert.Equal(t, "Oat Biscuits", scanResp.Item.Name)
	}

	for _, action := range []string{"bill", "payment", "cash"} {
		resp = postAction(t, client, ts.URL, action, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, "action %s", action)
		resp.Body.Close()
	}

	// Two biscuits at 10.00 less 10% each: 18.00 due, 50.00 tendered.
	resp = postAction(t, client, ts.URL, "pay", `{"amount": "50.00"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var paid struct {
		Result  checkout.PaymentResult `json:"result"`
		Session checkout.Snapshot      `json:"session"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&paid))
	resp.Body.Close()

	require.True(t, paid.Result.Accepted)
	assert.InDelta(t, 32.00, paid.Result.Change, 1e-9)
	assert.Equal(t, checkout.StateSettled, paid.Session.State)

	// The sale is journaled with its lines.
	sales, err := s.Sales().List()
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, checkout.MethodCash, sales[0].Method)
	assert.InDelta(t, 18.00, sales[0].Total, 1e-9)
}

func TestE2E_QRCheckout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	require.NoError(t, err)
	defer s.Close()

	qrDir := filepath.Join(tmpDir, "qr_codes")
	kiosk := app.New(app.Config{
		Store:    s,
		CameraID: -1,
		QRDir:    qrDir,
	})
	defer kiosk.Stop()

	srv := server.New(server.Config{Store: s, App: kiosk})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// An empty bill settles for zero; the QR flow itself is the subject.
	for _, action := range []string{"start", "bill", "payment", "qr"} {
		resp := postAction(t, client, ts.URL, action, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, "action %s", action)
		resp.Body.Close()
	}

	resp, err := client.Get(ts.URL + "/api/session")
	require.NoError(t, err)
	var snap checkout.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()

	require.NotNil(t, snap.Artifact)
	assert.Len(t, snap.Artifact.Reference, 12)

	// The QR image exists on disk.
	info, err := os.Stat(snap.Artifact.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	resp = postAction(t, client, ts.URL, "confirm", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	sales, err := s.Sales().List()
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, checkout.MethodQR, sales[0].Method)
}

func TestE2E_AbandonedTransactionRecovery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	require.NoError(t, err)
	defer s.Close()

	kiosk := app.New(app.Config{
		Store:    s,
		CameraID: -1,
		QRDir:    filepath.Join(tmpDir, "qr_codes"),
	})
	defer kiosk.Stop()

	srv := server.New(server.Config{Store: s, App: kiosk})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// Walk deep into a transaction, then abandon it.
	for _, action := range []string{"start", "bill", "payment", "cash"} {
		resp := postAction(t, client, ts.URL, action, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := postAction(t, client, ts.URL, "reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap checkout.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()

	assert.Equal(t, checkout.StateIdle, snap.State)
	assert.Zero(t, snap.Items)
	assert.Empty(t, snap.Buffer)

	// Nothing was settled, so nothing was journaled.
	sales, err := s.Sales().List()
	require.NoError(t, err)
	assert.Empty(t, sales)

	// A new transaction starts cleanly.
	resp = postAction(t, client, ts.URL, "start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
