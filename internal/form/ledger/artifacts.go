// -- internal/form/ledger/artifacts.go --
package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// Artifact file names within a run's artifact directory.
const (
	FieldsFile    = "fields.json"
	AnswersFile   = "answers.json"
	SkippedFile   = "skipped.json"
	CompletedFile = "completed.json"
)

// Store reads and writes the pipeline's serialized artifacts. All writes
// go through a temp-file rename so a crashed run never leaves a truncated
// artifact behind.
type Store struct {
	dir string
}

// NewStore ensures the artifact directory exists and returns a store
// rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute location of a named artifact.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return nil
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// WriteFields persists the discovered field list.
func (s *Store) WriteFields(fields []schemas.Field) error {
	return s.writeJSON(FieldsFile, fields)
}

// ReadFields loads a previously serialized field list.
func (s *Store) ReadFields() ([]schemas.Field, error) {
	var fields []schemas.Field
	if err := s.readJSON(FieldsFile, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// WriteAnswers persists the flat {id: value} answer map.
func (s *Store) WriteAnswers(answers map[string]any) error {
	return s.writeJSON(AnswersFile, answers)
}

// ReadAnswers loads the flat answer map; a missing file yields an empty
// map so a first pass needs no special casing.
func (s *Store) ReadAnswers() (map[string]any, error) {
	answers := make(map[string]any)
	if err := s.readJSON(AnswersFile, &answers); err != nil {
		if os.IsNotExist(err) {
			return answers, nil
		}
		return nil, err
	}
	return answers, nil
}

// WriteSkipped persists the skip list.
func (s *Store) WriteSkipped(records []schemas.SkipRecord) error {
	return s.writeJSON(SkippedFile, records)
}

// ReadSkipped loads the skip list; missing file yields an empty list.
func (s *Store) ReadSkipped() ([]schemas.SkipRecord, error) {
	var records []schemas.SkipRecord
	if err := s.readJSON(SkippedFile, &records); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// WriteCompleted persists the wrapped {id: {question, answer}} map
// produced by an interactive completion pass.
func (s *Store) WriteCompleted(completed map[string]schemas.ReviewedAnswer) error {
	return s.writeJSON(CompletedFile, completed)
}

// ReadCompleted loads the wrapped reviewed-answer map; missing file
// yields an empty map.
func (s *Store) ReadCompleted() (map[string]schemas.ReviewedAnswer, error) {
	completed := make(map[string]schemas.ReviewedAnswer)
	if err := s.readJSON(CompletedFile, &completed); err != nil {
		if os.IsNotExist(err) {
			return completed, nil
		}
		return nil, err
	}
	return completed, nil
}

// WriteScreenshot saves a page capture alongside the JSON artifacts.
func (s *Store) WriteScreenshot(name string, png []byte) error {
	if err := os.WriteFile(s.Path(name), png, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}
