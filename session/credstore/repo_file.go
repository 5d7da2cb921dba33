package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const stateFileName = "authstate.json"

// FileRepo is a file-backed implementation of Repo. It keeps the state as a
// single JSON document inside the data directory, the process-local
// equivalent of the browser's localStorage slot.
type FileRepo struct {
	path string
}

var _ Repo = (*FileRepo)(nil)

// NewFileRepo creates a file-backed credential repository rooted at dataDir.
// The directory is created if it does not exist.
func NewFileRepo(dataDir string) (*FileRepo, error) {
	if dataDir == "" {
		return nil, errors.New("[NewFileRepo] dataDir is required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileRepo] os.MkdirAll")
	}
	return &FileRepo{path: filepath.Join(dataDir, stateFileName)}, nil
}

// Load reads the persisted state. Any read or decode failure degrades to the
// zero State rather than surfacing an error.
func (r *FileRepo) Load() State {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return State{}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Warn().Str("path", r.path).Err(err).Msg("discarding malformed credential state")
		return State{}
	}

	// An authenticated flag without a user record is not a valid session
	if state.IsAuthenticated && state.User == nil {
		return State{}
	}
	return state
}

// Save overwrites the persisted state. The write goes through a temp file and
// rename so a crash mid-write cannot leave a truncated document behind.
func (r *FileRepo) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "[FileRepo.Save] json.Marshal")
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileRepo.Save] os.WriteFile")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrap(err, "[FileRepo.Save] os.Rename")
	}
	return nil
}
