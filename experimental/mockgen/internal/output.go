package mockgen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// stagingDir collects output files next to their destination and moves them
// into place once every file has been produced, so a failed run leaves no
// generated file behind. Directories the run had to create are removed again
// unless the run commits.
type stagingDir struct {
	dir       string
	pending   []stagedFile
	created   []string // deepest first
	committed bool
}

type stagedFile struct {
	staged string
	final  string
}

// newStagingDir creates outDir when it is missing and a staging directory
// inside it.
func newStagingDir(outDir string) (*stagingDir, error) {
	s := &stagingDir{}
	if err := s.mkdirAll(outDir); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	dir, err := os.MkdirTemp(outDir, ".oapi-mockgen-")
	if err != nil {
		s.removeCreated()
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	s.dir = dir
	return s, nil
}

// mkdirAll creates dir and its missing parents, remembering which ones it
// created.
func (s *stagingDir) mkdirAll(dir string) error {
	var missing []string
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil || !errors.Is(err, fs.ErrNotExist) {
			break
		}
		missing = append(missing, d)
		if filepath.Dir(d) == d {
			break
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.created = append(missing, s.created...)
	return nil
}

// path reserves a staged location for final and returns it. The file must
// exist by the time commit runs.
func (s *stagingDir) path(final string) string {
	staged := filepath.Join(s.dir, strconv.Itoa(len(s.pending))+"-"+filepath.Base(final))
	s.pending = append(s.pending, stagedFile{staged: staged, final: final})
	return staged
}

// write stages data for final.
func (s *stagingDir) write(final string, data []byte) error {
	if err := os.WriteFile(s.path(final), data, 0o644); err != nil {
		return fmt.Errorf("staging %s: %w", final, err)
	}
	return nil
}

// scratch writes a working file that is discarded with the staging directory.
func (s *stagingDir) scratch(name string, data []byte) (string, error) {
	dir := filepath.Join(s.dir, "scratch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}

// replaced is a committed file and the earlier file it displaced.
type replaced struct {
	final  string
	backup string // empty when final did not exist
}

// commit moves every staged file to its final path. Files are renamed one at
// a time; when a rename fails, the files moved so far are taken back out and
// the files they replaced are restored. A crash part way through can still
// leave a mix of old and new files.
func (s *stagingDir) commit() error {
	for _, f := range s.pending {
		if _, err := os.Stat(f.staged); err != nil {
			return fmt.Errorf("missing output for %s: %w", f.final, err)
		}
	}
	var done []replaced
	for i, f := range s.pending {
		r, err := s.replace(f, filepath.Join(s.dir, "backup-"+strconv.Itoa(i)))
		if err != nil {
			s.rollback(done)
			return err
		}
		done = append(done, r)
	}
	s.pending = nil
	s.committed = true
	return nil
}

func (s *stagingDir) replace(f stagedFile, backup string) (replaced, error) {
	if err := s.mkdirAll(filepath.Dir(f.final)); err != nil {
		return replaced{}, fmt.Errorf("creating directory for %s: %w", f.final, err)
	}
	r := replaced{final: f.final}
	if info, err := os.Lstat(f.final); err == nil {
		if info.IsDir() {
			return replaced{}, fmt.Errorf("writing %s: is a directory", f.final)
		}
		if err := os.Rename(f.final, backup); err != nil {
			return replaced{}, fmt.Errorf("writing %s: %w", f.final, err)
		}
		r.backup = backup
	}
	if err := os.Rename(f.staged, f.final); err != nil {
		if r.backup != "" {
			_ = os.Rename(r.backup, f.final)
		}
		return replaced{}, fmt.Errorf("writing %s: %w", f.final, err)
	}
	return r, nil
}

func (s *stagingDir) rollback(done []replaced) {
	for i := len(done) - 1; i >= 0; i-- {
		_ = os.Remove(done[i].final)
		if done[i].backup != "" {
			_ = os.Rename(done[i].backup, done[i].final)
		}
	}
}

// cleanup removes the staging directory and, unless commit succeeded, the
// directories created for this run. Directories that are no longer empty are
// left alone.
func (s *stagingDir) cleanup() {
	_ = os.RemoveAll(s.dir)
	if !s.committed {
		s.removeCreated()
	}
}

func (s *stagingDir) removeCreated() {
	for _, d := range s.created {
		_ = os.Remove(d)
	}
	s.created = nil
}
