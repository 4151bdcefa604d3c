package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/logging"
)

// batchExtensions are the file types picked up from a directory.
var batchExtensions = map[string]bool{".csv": true, ".txt": true}

// FileResult is the outcome of one file of a directory import.
type FileResult struct {
	File   string
	Result *core.ImportResult // nil when the file failed fatally
	Err    error
}

// ImportDir imports every delimited file directly inside dir, in name order,
// into the scope of base. FileName and Data of base are ignored.
//
// Files run one after another: they share a scope, and each file must see
// the signatures saved by the previous one for duplicates across files to
// be caught. A failed file does not stop the batch. When base.Clear is set
// the period is cleared once before the first file.
func ImportDir(ctx context.Context, svc *core.Service, dir string, base core.ImportRequest) ([]FileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !batchExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, e.Name())
	}

	log := logging.WithFields(ctx, "dir", dir, "client_id", base.ClientID, "period", base.Period)
	if len(files) == 0 {
		log.Warn("no importable files found")
		return nil, nil
	}

	if base.Clear {
		if base.Period == "" {
			return nil, fmt.Errorf("%w: clearing before import needs a period", core.ErrInvalidRequest)
		}
		if _, err := svc.Clear(ctx, base.ClientID, base.Period); err != nil {
			return nil, fmt.Errorf("clear before batch: %w", err)
		}
		base.Clear = false
	}

	results := make([]FileResult, 0, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("operation cancelled: %w", err)
		}

		res := FileResult{File: name}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			res.Err = fmt.Errorf("read %s: %w", name, err)
		} else {
			req := base
			req.FileName = name
			req.Data = data
			res.Result, res.Err = svc.Import(ctx, req)
		}
		if res.Err != nil {
			log.Warn("file import failed", "file", name, "error", res.Err)
		}
		results = append(results, res)
	}

	log.Info("directory imported", "files", len(results))
	return results, nil
}
