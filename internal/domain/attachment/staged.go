package attachment

import (
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// MaxFiles is the most attachments a single request may carry.
	MaxFiles = 5
	// MaxFileSize is the per-file byte limit.
	MaxFileSize = 5 << 20
)

var (
	ErrTooManyFiles = errors.New("maximum 5 files allowed")
	ErrFileTooLarge = errors.New("file exceeds 5MB limit")
	ErrNotImage     = errors.New("only image files are allowed")
	ErrEmptyFile    = errors.New("file is empty")
)

// Staged is an uploaded image held in memory until the request is submitted.
type Staged struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"data"`
}

// Rejection records why a single file was refused.
type Rejection struct {
	Filename string
	Err      error
}

// Inspect checks one file and stamps it with its sniffed content type.
// The content type the client declared is ignored.
func Inspect(f Staged) (Staged, error) {
	f.Size = int64(len(f.Data))
	if f.Size == 0 {
		return f, ErrEmptyFile
	}
	if f.Size > MaxFileSize {
		return f, ErrFileTooLarge
	}
	mt := mimetype.Detect(f.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return f, ErrNotImage
	}
	f.ContentType = mt.String()
	return f, nil
}

// Admit validates a batch against the files already staged.
//
// A batch that would push the total past MaxFiles is refused as a whole with ErrTooManyFiles.
// Otherwise each file is inspected on its own: invalid files are returned as rejections
// and valid siblings are accepted.
func Admit(existing int, batch []Staged) ([]Staged, []Rejection, error) {
	if existing+len(batch) > MaxFiles {
		return nil, nil, ErrTooManyFiles
	}

	accepted := make([]Staged, 0, len(batch))
	var rejected []Rejection
	for _, f := range batch {
		checked, err := Inspect(f)
		if err != nil {
			rejected = append(rejected, Rejection{Filename: f.Filename, Err: err})
			continue
		}
		accepted = append(accepted, checked)
	}
	return accepted, rejected, nil
}
