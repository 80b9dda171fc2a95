package resource

import (
	"context"
	"encoding/base64"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/httputil"
)

// Loader resolves source references to bytes. It is safe for concurrent use.
type Loader struct {
	client  *httputil.Client
	builtin fs.FS
	noFiles bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithClient sets the HTTP client for remote sources.
func WithClient(c *httputil.Client) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithBuiltin sets the filesystem behind "builtin:" references.
func WithBuiltin(fsys fs.FS) LoaderOption {
	return func(l *Loader) { l.builtin = fsys }
}

// WithoutFiles rejects local filesystem paths. The API server uses this so
// requests cannot read server files.
func WithoutFiles() LoaderOption {
	return func(l *Loader) { l.noFiles = true }
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{client: httputil.NewClient()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the bytes behind src. Failures carry ErrCodeResourceLoad or
// a more specific fetch code.
func (l *Loader) Load(ctx context.Context, src string) ([]byte, error) {
	if err := errors.ValidateSource(src); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.client.GetBytes(ctx, src)
	case strings.HasPrefix(src, "data:"):
		return decodeDataURL(src)
	case strings.HasPrefix(src, "builtin:"):
		return l.loadBuiltin(strings.TrimPrefix(src, "builtin:"))
	default:
		if l.noFiles {
			return nil, errors.New(errors.ErrCodeInvalidSource, "local file sources are disabled")
		}
		data, err := os.ReadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", src)
			}
			return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "read %s", src)
		}
		return data, nil
	}
}

func (l *Loader) loadBuiltin(name string) ([]byte, error) {
	if l.builtin == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no builtin assets registered for %q", name)
	}
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return nil, errors.New(errors.ErrCodeInvalidSource, "invalid builtin name %q", name)
	}
	data, err := fs.ReadFile(l.builtin, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "builtin %s", name)
	}
	return data, nil
}

// decodeDataURL decodes an RFC 2397 data URL.
func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidSource, "malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(payload)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "decode data url")
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "decode data url")
	}
	return []byte(s), nil
}

// DataURL encodes data as a base64 data URL with the given media type.
func DataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
