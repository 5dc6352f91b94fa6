package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encodings lists the accepted encoding names.
var Encodings = []string{"utf-8", "latin-1", "windows-1252", "utf-16", "utf-16be"}

// SaveOptions controls how Save persists a document.
type SaveOptions struct {
	Backup    bool
	BackupDir string
}

// Load reads the whole file at path and decodes it. Paths may start with ~
// and symlinks are resolved so Save rewrites the link target.
func Load(path, enc string) (*Document, error) {
	codec, err := encodingByName(enc)
	if err != nil {
		return nil, err
	}

	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, err
	}
	text, err := decode(data, codec)
	if err != nil {
		return nil, fmt.Errorf("decode %s as %s: %w", path, enc, err)
	}

	doc := New(text)
	doc.path = resolved
	doc.encoding = enc
	if doc.encoding == "" {
		doc.encoding = "utf-8"
	}
	doc.perm = uint32(info.Mode().Perm())
	return doc, nil
}

// Save writes the document back to its file through a temporary file and a
// rename. Nothing is written when the text is unchanged since Load. The
// returned path names the backup, if one was made.
func Save(doc *Document, opts SaveOptions) (string, error) {
	if doc.path == "" {
		return "", errors.New("document has no backing file")
	}
	if !doc.Changed() {
		return "", nil
	}

	codec, err := encodingByName(doc.Encoding())
	if err != nil {
		return "", err
	}
	perm := os.FileMode(doc.perm)
	if perm == 0 {
		perm = 0o644
	}

	var backupPath string
	if opts.Backup {
		original, err := encode(doc.original, codec)
		if err != nil {
			return "", err
		}
		backupPath, err = createBackup(doc.path, opts.BackupDir, original, perm)
		if err != nil {
			return "", fmt.Errorf("backup %s: %w", doc.path, err)
		}
	}

	data, err := encode(doc.text, codec)
	if err != nil {
		return "", fmt.Errorf("encode %s as %s: %w", doc.path, doc.encoding, err)
	}
	if err := writeFileAtomic(doc.path, data, perm); err != nil {
		return "", err
	}
	doc.original = doc.text
	return backupPath, nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			path = home
		} else if strings.HasPrefix(path, "~/") {
			path = filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".retag-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func createBackup(path, backupDir string, content []byte, perm os.FileMode) (string, error) {
	targetDir := filepath.Dir(path)
	if strings.TrimSpace(backupDir) != "" {
		expanded, err := expandPath(backupDir)
		if err != nil {
			return "", err
		}
		targetDir = expanded
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", err
	}

	timestamp := time.Now().UTC().Format("20060102T150405")
	backupPath := filepath.Join(targetDir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), timestamp))
	if err := os.WriteFile(backupPath, content, perm); err != nil {
		return "", err
	}
	return backupPath, nil
}

func decode(data []byte, codec encoding.Encoding) (string, error) {
	if codec == nil {
		return string(data), nil
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), codec.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func encode(text string, codec encoding.Encoding) ([]byte, error) {
	if codec == nil {
		return []byte(text), nil
	}
	var buf bytes.Buffer
	writer := transform.NewWriter(&buf, codec.NewEncoder())
	if _, err := writer.Write([]byte(text)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252":
		return charmap.Windows1252, nil
	case "utf-16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
