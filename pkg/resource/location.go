// Package resource opens graph inputs and label outputs by URI. Plain paths
// and file:// URIs are local files, s3://bucket/key names an object, and a
// ".sz" or ".snappy" suffix adds snappy stream framing on top of either.
package resource

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Common sentinel errors
var (
	ErrInvalidURI        = errors.New("invalid resource uri")
	ErrUnsupportedScheme = errors.New("unsupported resource scheme")
	ErrMissingS3Client   = errors.New("s3 resource requires an s3 client")
)

// Supported schemes
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
)

// Location is a parsed resource URI.
type Location struct {
	Scheme     string
	Path       string // local path for SchemeFile
	Bucket     string // bucket for SchemeS3
	Key        string // object key for SchemeS3
	Compressed bool   // snappy framed
}

func (l Location) String() string {
	if l.Scheme == SchemeS3 {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// Parse splits uri into a Location. Anything without "://" is a local path.
func Parse(uri string) (Location, error) {
	if strings.TrimSpace(uri) == "" {
		return Location{}, fmt.Errorf("%w: empty", ErrInvalidURI)
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: SchemeFile, Path: uri, Compressed: compressed(uri)}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case SchemeFile:
		if u.Path == "" {
			return Location{}, fmt.Errorf("%w: %q has no path", ErrInvalidURI, uri)
		}
		return Location{Scheme: SchemeFile, Path: u.Path, Compressed: compressed(u.Path)}, nil
	case SchemeS3:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidURI, uri)
		}
		return Location{Scheme: SchemeS3, Bucket: u.Host, Key: key, Compressed: compressed(key)}, nil
	default:
		return Location{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func compressed(name string) bool {
	return strings.HasSuffix(name, ".sz") || strings.HasSuffix(name, ".snappy")
}
