package provenance

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/roach88/harmonizer/internal/config"
	"github.com/roach88/harmonizer/internal/ir"
)

// chunkSize is the read size used when hashing files.
const chunkSize = 4096

// Artifact describes one file for a reference_file group.
type Artifact struct {
	Category    string
	Name        string
	Type        string
	Size        int64
	MD5         string
	Description string
	URL         string
}

// FileArtifact describes the local file at location (a path or file://
// URL). The size and MD5 are read from disk.
func FileArtifact(category, location, description string) (Artifact, error) {
	p, err := config.LocalPath(location)
	if err != nil {
		return Artifact{}, err
	}
	sum, size, err := MD5File(p)
	if err != nil {
		return Artifact{}, err
	}
	a := newArtifact(category, filepath.Base(p), description)
	a.Size = size
	a.MD5 = sum
	if config.IsRemote(location) || strings.HasPrefix(location, "file://") {
		a.URL = location
	}
	return a, nil
}

// BytesArtifact describes content already in memory, such as a schema
// fetched over HTTP. url is recorded as reference_file_url.
func BytesArtifact(category, url string, data []byte, description string) Artifact {
	sum := md5.Sum(data)
	a := newArtifact(category, baseName(url), description)
	a.Size = int64(len(data))
	a.MD5 = hex.EncodeToString(sum[:])
	if config.IsRemote(url) {
		a.URL = url
	}
	return a
}

// PlaceholderArtifact describes a file whose size and MD5 are filled in
// later.
func PlaceholderArtifact(category, name, description string) Artifact {
	return newArtifact(category, name, description)
}

func newArtifact(category, name, description string) Artifact {
	return Artifact{
		Category:    category,
		Name:        name,
		Type:        strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		Description: description,
	}
}

// InputDescription is the file_description of a discovered input file.
func InputDescription(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "File containing input source data"
	}
	return strings.ToUpper(ext) + " file containing input source data"
}

// MD5File returns the hex MD5 and size of the file at path, reading it in
// 4096-byte chunks.
func MD5File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	size, err := io.CopyBuffer(h, f, make([]byte, chunkSize))
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// RefFilesPath returns where the augmented copy of a rule document is
// written: next to a local document, or in outputDir for a remote one.
func RefFilesPath(rulesLocation, outputDir string) (string, error) {
	name := RefFilesName(rulesLocation)
	if config.IsRemote(rulesLocation) {
		return filepath.Join(outputDir, name), nil
	}
	p, err := config.LocalPath(rulesLocation)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), name), nil
}

// RefFilesName returns "<stem>.ref_files<ext>" for a rule document. A
// document that already is a copy keeps its name.
func RefFilesName(rulesLocation string) string {
	base := baseName(rulesLocation)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if strings.HasSuffix(stem, ".ref_files") {
		return base
	}
	return stem + ".ref_files" + ext
}

func baseName(location string) string {
	if config.IsRemote(location) {
		if i := strings.IndexAny(location, "?#"); i >= 0 {
			location = location[:i]
		}
		return path.Base(location)
	}
	return filepath.Base(location)
}

// rulesArtifact is the self-referential entry for the rule document copy.
func rulesArtifact(refPath string) Artifact {
	return PlaceholderArtifact(ir.CategoryMapping, filepath.Base(refPath), "Harmonization transformation/mapping rules")
}

// EngineArtifact describes the program that produced the output. An empty
// location means the running executable.
func EngineArtifact(location string) (Artifact, error) {
	if location == "" {
		exe, err := os.Executable()
		if err != nil {
			return Artifact{}, fmt.Errorf("locate engine: %w", err)
		}
		location = exe
	}
	desc := fmt.Sprintf("%s %s harmonization engine", ir.EngineName, ir.EngineVersion)
	if config.IsRemote(location) {
		return PlaceholderArtifact(ir.CategoryEngine, baseName(location), desc), nil
	}
	return FileArtifact(ir.CategoryEngine, location, desc)
}

// SchemaArtifact describes the output schema fetched from location.
func SchemaArtifact(location string, data []byte) Artifact {
	return BytesArtifact(ir.CategorySchema, location, data, "JSON schema describing the harmonized output")
}
