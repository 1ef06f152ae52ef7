package maildir

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emersion/go-maildir"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/errors"
)

// subdirs are the directories every maildir folder must contain.
var subdirs = []string{"cur", "new", "tmp"}

// Maildir represents a single maildir directory.
type Maildir struct {
	path string
}

// New creates a Maildir instance for the given path.
// It does not create the directory; use Create() for that.
func New(path string) *Maildir {
	return &Maildir{path: filepath.Clean(path)}
}

// Path returns the maildir path.
func (m *Maildir) Path() string {
	return m.path
}

// Create creates the maildir directory structure (new, cur, tmp).
// Existing directories are left untouched.
func (m *Maildir) Create() error {
	if err := os.MkdirAll(m.path, 0700); err != nil {
		return err
	}
	return maildir.Dir(m.path).Init()
}

// Exists checks if the maildir exists and has the required structure.
func (m *Maildir) Exists() bool {
	return len(m.missing()) == 0
}

// Validate returns a *errors.MaildirStructureError if the maildir is absent
// or lacks any of cur, new and tmp.
func (m *Maildir) Validate() error {
	info, err := os.Stat(m.path)
	if err != nil {
		return &errors.MaildirStructureError{Path: m.path, Err: err}
	}
	if !info.IsDir() {
		return &errors.MaildirStructureError{Path: m.path, Err: errors.ErrInvalidPath}
	}
	if missing := m.missing(); len(missing) > 0 {
		return &errors.MaildirStructureError{Path: m.path, Missing: missing}
	}
	return nil
}

func (m *Maildir) missing() []string {
	var missing []string
	for _, sub := range subdirs {
		info, err := os.Stat(filepath.Join(m.path, sub))
		if err != nil || !info.IsDir() {
			missing = append(missing, sub)
		}
	}
	return missing
}

// Folder returns a Maildir for a subfolder. The name is normalized to
// carry a leading dot, so Folder("Work") and Folder(".Work") are the same.
func (m *Maildir) Folder(name string) *Maildir {
	return New(filepath.Join(m.path, mzfilter.NormalizeFolder(name)))
}

// EnsureFolder returns the subfolder maildir, creating it if necessary.
//
// A missing folder is assembled under tmp/ and renamed into place, so
// other processes see either no folder or one with all of cur, new and
// tmp. Concurrent callers racing on the same name all succeed. A folder
// left incomplete by another tool is completed in place.
func (m *Maildir) EnsureFolder(name string) (*Maildir, error) {
	if err := mzfilter.ValidateFolder(name); err != nil {
		return nil, &errors.FolderCreationError{Folder: name, Err: err}
	}
	folder := m.Folder(name)
	if folder.Exists() {
		return folder, nil
	}

	fail := func(err error) (*Maildir, error) {
		return nil, &errors.FolderCreationError{Folder: filepath.Base(folder.path), Err: err}
	}

	staging := filepath.Join(m.path, "tmp", "."+generateFilename())
	if err := os.Mkdir(staging, 0700); err != nil {
		return fail(err)
	}
	if err := maildir.Dir(staging).Init(); err != nil {
		_ = os.RemoveAll(staging)
		return fail(err)
	}

	if err := os.Rename(staging, folder.path); err != nil {
		_ = os.RemoveAll(staging)
		if _, statErr := os.Stat(folder.path); statErr != nil {
			// Nothing at the destination, so the rename itself failed.
			return fail(err)
		}
		// Lost a race, or the folder exists partially: fill in what is missing.
		if err := maildir.Dir(folder.path).Init(); err != nil {
			return fail(err)
		}
	}
	if !folder.Exists() {
		return fail(stderrors.New("incomplete folder structure"))
	}
	return folder, nil
}

// List returns the sorted filenames of messages in a subfolder.
// Directories and dot-files are skipped.
func (m *Maildir) List(sub mzfilter.Subfolder) ([]string, error) {
	dir := filepath.Join(m.path, string(sub))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrMaildirNotFound
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Open opens a message file for reading.
func (m *Maildir) Open(msg mzfilter.Message) (*os.File, error) {
	if !validFilename(msg.Filename) {
		return nil, errors.ErrInvalidPath
	}
	return os.Open(m.messagePath(msg))
}

func (m *Maildir) messagePath(msg mzfilter.Message) string {
	return filepath.Join(m.path, string(msg.Subfolder), msg.Filename)
}
