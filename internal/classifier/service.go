package classifier

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
)

// ServiceClassifier implements Classifier using a Python subprocess that
// wraps the trained Keras model. Frames travel as length-prefixed JPEG over
// stdin; predictions come back as one JSON object per line on stdout.
type ServiceClassifier struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	mu      sync.Mutex
	started bool
}

// NewServiceClassifier creates a classifier backed by the model service
// script. The Python process is started lazily on first classification.
func NewServiceClassifier() (*ServiceClassifier, error) {
	if findModelScript() == "" {
		return nil, fmt.Errorf("model_service.py not found")
	}
	return &ServiceClassifier{}, nil
}

// Classify sends the frame to the model service and returns its prediction.
func (c *ServiceClassifier) Classify(frame *gocv.Mat) (Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureStarted(); err != nil {
		return Prediction{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Prediction{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Length-prefixed framing: 4 bytes big-endian, then the JPEG bytes.
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := c.stdin.Write(length); err != nil {
		return Prediction{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := c.stdin.Write(data); err != nil {
		return Prediction{}, fmt.Errorf("write data: %w", err)
	}

	line, err := c.stdout.ReadString('\n')
	if err != nil {
		return Prediction{}, fmt.Errorf("read response: %w", err)
	}

	var p Prediction
	if err := json.Unmarshal([]byte(line), &p); err != nil {
		return Prediction{}, fmt.Errorf("parse response: %w", err)
	}
	return p, nil
}

// Close shuts down the Python process.
func (c *ServiceClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	if c.stdin != nil {
		c.stdin.Close()
	}
	err := c.cmd.Wait()
	c.started = false
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil
	return err
}

func (c *ServiceClassifier) ensureStarted() error {
	if c.started {
		return nil
	}

	scriptPath := findModelScript()
	if scriptPath == "" {
		return fmt.Errorf("model_service.py not found")
	}

	c.cmd = exec.Command("python3", scriptPath)

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	c.cmd.Stderr = os.Stderr

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start model service: %w", err)
	}

	c.stdin = stdin
	c.stdout = bufio.NewReader(stdout)
	c.started = true
	return nil
}

func findModelScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/model_service.py",
		"../scripts/model_service.py",
		filepath.Join(execDir, "scripts/model_service.py"),
		filepath.Join(os.Getenv("HOME"), ".kirana/scripts/model_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
