package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skerrick/gantry/pkg/structs"
)

type filePayload struct {
	// Op is one of write, append, read, delete or list.
	Op string `json:"op"`

	// Path is relative to the configured file root. Attempts to step
	// outside the root are flattened back into it.
	Path string `json:"path"`

	// Content is the text written for write and append ops.
	Content string `json:"content"`
}

type fileResult struct {
	Op      string   `json:"op"`
	Path    string   `json:"path"`
	Bytes   int      `json:"bytes,omitempty"`
	Content string   `json:"content,omitempty"`
	Entries []string `json:"entries,omitempty"`
}

// FileOp reads and writes files under a single configured root directory.
type FileOp struct {
	root string
}

// NewFileOp returns a file_op action handler confined to root.
func NewFileOp(root string) *FileOp {
	return &FileOp{root: root}
}

// Type returns the ActionType this handler serves.
func (h *FileOp) Type() structs.ActionType {
	return structs.ActionFileOp
}

// Execute performs one file operation.
func (h *FileOp) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	p := filePayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode file_op payload: %w", err)
	}

	full, err := h.resolve(p.Path)
	if err != nil {
		return nil, err
	}
	logs.Logf("%s %s", p.Op, p.Path)

	switch p.Op {
	case "write":
		if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
			return nil, err
		}
		if err := os.WriteFile(full, []byte(p.Content), 0640); err != nil {
			return nil, err
		}
		return json.Marshal(&fileResult{Op: p.Op, Path: p.Path, Bytes: len(p.Content)})
	case "append":
		if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err != nil {
			return nil, err
		}
		n, err := f.WriteString(p.Content)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		return json.Marshal(&fileResult{Op: p.Op, Path: p.Path, Bytes: n})
	case "read":
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		return json.Marshal(&fileResult{Op: p.Op, Path: p.Path, Bytes: len(data), Content: string(data)})
	case "delete":
		if err := os.Remove(full); err != nil {
			return nil, err
		}
		return json.Marshal(&fileResult{Op: p.Op, Path: p.Path})
	case "list":
		entries, err := os.ReadDir(full)
		if err != nil {
			return nil, err
		}
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return json.Marshal(&fileResult{Op: p.Op, Path: p.Path, Entries: names})
	default:
		return nil, fmt.Errorf("unknown file op %q", p.Op)
	}
}

// resolve maps a payload path to an absolute path inside the root.
func (h *FileOp) resolve(p string) (string, error) {
	if h.root == "" {
		return "", fmt.Errorf("no file root configured")
	}
	// Clean("/"+p) strips any ".." so the result cannot escape the root.
	return filepath.Join(h.root, filepath.Clean("/"+p)), nil
}
