package paper

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"revertbot-go/internal/execution"
)

// JSONLRecorder appends settled fills as JSON lines, one per order.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	log  zerolog.Logger
}

var _ execution.FillRecorder = (*JSONLRecorder)(nil)

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string, log zerolog.Logger) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
		log:  log.With().Str("journal", path).Logger(),
	}, nil
}

// Record writes a single fill. Write failures are logged since the order has already settled.
func (r *JSONLRecorder) Record(fill execution.Fill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		r.log.Warn().Str("order_id", fill.OrderID).Msg("journal closed, fill dropped")
		return
	}
	if err := r.enc.Encode(fill); err != nil {
		r.log.Error().Err(err).Str("order_id", fill.OrderID).Msg("journal write failed")
	}
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
