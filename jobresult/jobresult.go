// Package jobresult defines the structured result object a job produces,
// along with YAML/JSON serialisation to a caller-supplied directory.
package jobresult

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StatusCode is the terminal status of a job.
type StatusCode int

const (
	StatusSucceeded StatusCode = iota
	StatusFailed
)

func (s StatusCode) String() string {
	if s == StatusSucceeded {
		return "SUCCEEDED"
	}
	return "FAILED"
}

func (s StatusCode) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s StatusCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ObjectType is the kind of produced object recorded in a Result's object
// map.
type ObjectType int

const (
	ObjectData ObjectType = iota
	ObjectFile
	ObjectStorage
	ObjectModel
	ObjectResult
)

func (t ObjectType) String() string {
	switch t {
	case ObjectData:
		return "DATA"
	case ObjectFile:
		return "FILE"
	case ObjectStorage:
		return "STORAGE"
	case ObjectModel:
		return "MODEL"
	case ObjectResult:
		return "RESULT"
	default:
		return "UNKNOWN"
	}
}

func (t ObjectType) MarshalYAML() (any, error) { return t.String(), nil }
func (t ObjectType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ObjectDefinition is one entry produced by the job: the minimal metadata
// the caller needs to locate and interpret the produced artifact.
type ObjectDefinition struct {
	Type       ObjectType        `yaml:"type" json:"type"`
	DataID     string            `yaml:"dataId,omitempty" json:"dataId,omitempty"`
	StorageID  string            `yaml:"storageId,omitempty" json:"storageId,omitempty"`
	Path       string            `yaml:"path,omitempty" json:"path,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Result is the final job result object.
type Result struct {
	JobID      string                      `yaml:"jobId" json:"jobId"`
	Status     StatusCode                  `yaml:"statusCode" json:"statusCode"`
	Objects    map[string]ObjectDefinition `yaml:"objects,omitempty" json:"objects,omitempty"`
	ErrorText  string                      `yaml:"error,omitempty" json:"error,omitempty"`
}

// Format selects the on-disk encoding SaveJobResult writes.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// ParseFormat maps a caller-supplied format name onto a Format, defaulting
// to YAML for anything unrecognised.
func ParseFormat(name string) Format {
	if name == "json" || name == "JSON" {
		return FormatJSON
	}
	return FormatYAML
}

// Save writes the result to <dir>/<jobId>.<ext> in the requested format.
func (r Result) Save(dir string, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("jobresult: create dir: %w", err)
	}

	var data []byte
	var err error
	ext := "yaml"
	switch format {
	case FormatJSON:
		ext = "json"
		data, err = json.MarshalIndent(r, "", "  ")
	default:
		data, err = yaml.Marshal(r)
	}
	if err != nil {
		return "", fmt.Errorf("jobresult: encode: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s", r.JobID, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("jobresult: write: %w", err)
	}
	return path, nil
}
