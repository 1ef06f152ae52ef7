package maildir

import (
	"bytes"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/errors"
)

// Replaced in tests to simulate cross-device moves and their failures.
var (
	rename  = os.Rename
	remove  = os.Remove
	sumFile = fileSum
)

// Move relocates a message from m into the same subfolder of dest
// (new stays new, cur stays cur), keeping its filename.
//
// The move is a single rename(2). Only when the destination is on another
// device does Move fall back to copying into dest's tmp/, verifying the
// copy, renaming it into place and removing the source. Errors are
// returned as *errors.RelocationError; on error exactly one copy of the
// message remains.
func (m *Maildir) Move(msg mzfilter.Message, dest *Maildir) error {
	fail := func(err error) error {
		return &errors.RelocationError{Filename: msg.Filename, Folder: filepath.Base(dest.path), Err: err}
	}

	if !validFilename(msg.Filename) {
		return fail(errors.ErrInvalidPath)
	}
	if _, err := mzfilter.ParseSubfolder(string(msg.Subfolder)); err != nil {
		return fail(err)
	}

	src := m.messagePath(msg)
	dst := dest.messagePath(msg)

	if _, err := os.Lstat(dst); err == nil {
		return fail(errors.ErrDestinationExists)
	}

	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if _, statErr := os.Lstat(src); os.IsNotExist(statErr) {
		return fail(fmt.Errorf("%w: %v", errors.ErrMessageNotFound, err))
	}
	if !isCrossDevice(err) {
		return fail(err)
	}
	if err := copyAcross(src, dst, dest); err != nil {
		return fail(err)
	}
	return nil
}

// copyAcross moves src to dst when they live on different devices.
func copyAcross(src, dst string, dest *Maildir) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp := filepath.Join(dest.path, "tmp", generateFilename())
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	srcSum := newHash()
	_, err = io.Copy(io.MultiWriter(out, srcSum), in)
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}

	dstSum, err := sumFile(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if !bytes.Equal(srcSum.Sum(nil), dstSum) {
		_ = os.Remove(tmp)
		return errors.ErrVerifyFailed
	}
	_ = os.Chtimes(tmp, info.ModTime(), info.ModTime())

	if _, err := os.Lstat(dst); err == nil {
		_ = os.Remove(tmp)
		return errors.ErrDestinationExists
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := remove(src); err != nil {
		// Keep the source copy rather than leave two.
		_ = os.Remove(dst)
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

func newHash() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only a key longer than 64 bytes makes New256 fail.
		panic(err)
	}
	return h
}

func fileSum(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
