// Package digest computes BLAKE3 digests of AppDir trees. Two trees with the
// same relative paths, file kinds, permission bits and file contents have the
// same digest, which is how repeated builds are checked for convergence.
package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 hash.
type Digest [32]byte

// Domain keys keep file hashes and tree hashes from colliding. ASCII
// zero-padded to 32 bytes.
var (
	fileKey = [32]byte{
		'a', 'p', 'p', 'd', 'i', 'r', 'b', 'u', 'i', 'l', 'd', 'e', 'r', '.',
		'f', 'i', 'l', 'e',
	}
	treeKey = [32]byte{
		'a', 'p', 'p', 'd', 'i', 'r', 'b', 'u', 'i', 'l', 'd', 'e', 'r', '.',
		't', 'r', 'e', 'e',
	}
)

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Parse decodes a 64-character hex digest.
func Parse(s string) (Digest, error) {
	var d Digest
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return d, errors.Wrap(err, errors.ErrInvalidInput, "invalid digest")
	}
	if len(decoded) != len(d) {
		return d, errors.Newf(errors.ErrInvalidInput, "digest is %d bytes, want %d", len(decoded), len(d))
	}
	copy(d[:], decoded)
	return d, nil
}

// Entry describes one tree member.
type Entry struct {
	Path string // slash separated, relative to the root
	Type byte   // 'f', 'd', 'l' or '?'
	Mode fs.FileMode
	Hash Digest // zero for anything but regular files
}

func (e Entry) record() string {
	return fmt.Sprintf("%c %04o %s %s\n", e.Type, e.Mode.Perm(), e.Hash, e.Path)
}

// Entries lists every entry under root in lexical order.
func Entries(fsys filesystem.FS, root string) ([]Entry, error) {
	var entries []Entry
	err := filesystem.Walk(fsys, root, func(path string, d fs.DirEntry) error {
		info, err := fsys.Lstat(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		entry := Entry{Path: filepath.ToSlash(rel), Mode: info.Mode()}
		switch {
		case info.Mode().IsRegular():
			entry.Type = 'f'
			if entry.Hash, err = File(fsys, path); err != nil {
				return err
			}
		case info.IsDir():
			entry.Type = 'd'
		case info.Mode()&fs.ModeSymlink != 0:
			entry.Type = 'l'
		default:
			entry.Type = '?'
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		if errors.GetErrorCode(err) != errors.ErrUnknown {
			return nil, err
		}
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot walk %s", root)
	}
	return entries, nil
}

// File hashes the contents of a single file.
func File(fsys filesystem.FS, path string) (Digest, error) {
	var d Digest
	f, err := fsys.Open(path)
	if err != nil {
		return d, errors.Wrapf(err, errors.ErrFileSystem, "cannot open %s", path)
	}
	defer func() { _ = f.Close() }()

	hasher := newHasher(fileKey)
	if _, err := io.Copy(hasher, f); err != nil {
		return d, errors.Wrapf(err, errors.ErrFileSystem, "cannot read %s", path)
	}
	copy(d[:], hasher.Sum(nil))
	return d, nil
}

// Tree returns the digest of everything under root. The root itself is not
// part of the digest, so identical trees at different locations match.
func Tree(fsys filesystem.FS, root string) (Digest, error) {
	var d Digest
	entries, err := Entries(fsys, root)
	if err != nil {
		return d, err
	}

	hasher := newHasher(treeKey)
	for _, entry := range entries {
		_, _ = io.WriteString(hasher, entry.record())
	}
	copy(d[:], hasher.Sum(nil))
	return d, nil
}

func newHasher(key [32]byte) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// Only returned for keys that are not 32 bytes.
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}
