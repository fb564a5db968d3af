// Package imagehost uploads listing photos to an external image host and
// reports byte-level progress while doing so.
package imagehost

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MaxFileBytes bounds a single photo.
const MaxFileBytes = 10 << 20

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadFile loads a photo from disk, sniffing its content type.
func ReadFile(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return File{Name: filepath.Base(path), ContentType: http.DetectContentType(b), Data: b}, nil
}

func (f File) IsImage() bool {
	ct := f.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(f.Data)
	}
	return strings.HasPrefix(ct, "image/")
}

type Progress struct {
	Index int // position in the batch; 0 for single uploads
	Name  string
	Sent  int64
	Total int64
}

func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return int(p.Sent * 100 / p.Total)
}

// ProgressFunc observes upload progress. It may be nil.
type ProgressFunc func(Progress)

type Result struct {
	URL   string `json:"url"`
	Key   string `json:"key,omitempty"`
	Bytes int64  `json:"bytes"`
}

type Uploader interface {
	Upload(ctx context.Context, f File, progress ProgressFunc) (Result, error)
}

// UploadError is a failure reported by (or while talking to) the image host.
type UploadError struct {
	Backend string
	Name    string
	Status  int
	Msg     string
	Err     error
}

func (e *UploadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s upload", e.Backend)
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	b.WriteString(" failed")
	if e.Status != 0 {
		fmt.Fprintf(&b, " with status %d", e.Status)
	}
	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	} else if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *UploadError) Unwrap() error { return e.Err }

// UploadAll uploads files concurrently. Results keep the order of files.
// Any failure cancels the rest and no results are returned.
// progress is serialized, so it needs no locking of its own.
func UploadAll(ctx context.Context, up Uploader, files []File, progress ProgressFunc) ([]Result, error) {
	var mu sync.Mutex
	report := func(i int) ProgressFunc {
		if progress == nil {
			return nil
		}
		return func(p Progress) {
			p.Index = i
			mu.Lock()
			defer mu.Unlock()
			progress(p)
		}
	}

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		i := i
		g.Go(func() error {
			r, err := up.Upload(gctx, files[i], report(i))
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteFilePart adds f to mw as a file field carrying its content type.
func WriteFilePart(mw *multipart.Writer, field string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
	ct := f.ContentType
	if ct == "" {
		ct = http.DetectContentType(f.Data)
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}

// TrackProgress wraps a request body so fn sees every chunk the transport
// reads from it.
func TrackProgress(r io.ReadSeeker, name string, total int64, fn ProgressFunc) io.ReadSeeker {
	return newProgressReader(r, name, total, fn)
}

// progressReader counts bytes handed to the transport.
type progressReader struct {
	r     io.ReadSeeker
	name  string
	sent  int64
	total int64
	fn    ProgressFunc
}

func newProgressReader(r io.ReadSeeker, name string, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{r: r, name: name, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(Progress{Name: p.name, Sent: p.sent, Total: p.total})
		}
	}
	return n, err
}

// Seek lets signing transports rewind the body; the counter follows.
func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := p.r.Seek(offset, whence)
	if err == nil {
		p.sent = pos
	}
	return pos, err
}
