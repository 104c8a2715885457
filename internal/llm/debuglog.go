package llm

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// DebugLog appends OCR input and raw completions to a plain-text transcript.
// A nil *DebugLog is valid and records nothing.
type DebugLog struct {
	mu   sync.Mutex
	path string
}

func NewDebugLog(path string) *DebugLog {
	if path == "" {
		return nil
	}
	return &DebugLog{path: path}
}

// Record writes one request block. Failures are returned but never block extraction.
func (d *DebugLog) Record(ocrText, completion string) error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.OpenFile(d.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	_, werr := fmt.Fprintf(f, "\n\n--- NEW REQUEST %s ---\nOCR TEXT LEN: %d\nOCR TEXT:\n%s\nLLM OUTPUT:\n%s\n",
		time.Now().UTC().Format(time.RFC3339), len(ocrText), ocrText, completion)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("write debug log: %w", werr)
	}
	return cerr
}
