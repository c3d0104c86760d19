package provenance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/harmonizer/internal/ir"
)

// WriteDataset writes ds to path as indented JSON. The file is replaced
// atomically so a failed run never leaves a partial document behind.
func WriteDataset(path string, ds *ir.HarmonizedDataset) error {
	data, err := ir.EncodeDataset(ds)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeRules encodes doc and writes it to path.
func writeRules(path string, doc *ir.RuleDocument) error {
	data, err := ir.EncodeRuleDocument(doc)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
