// internal/media/media.go
// Package media resolves stored relative asset paths (photos, marksheets,
// preview pages, full PDFs) into URLs a client can fetch. Cached aggregates
// store relative paths only; resolution happens at the serving edge so
// cached entries never embed expiring URLs.
package media

import (
	"context"
	"strings"
)

// URLResolver turns a stored relative path into a fetchable URL.
type URLResolver interface {
	Resolve(ctx context.Context, relativePath string) (string, error)
}

type localResolver struct {
	baseURL string
}

// NewLocal resolves paths against a static base URL, for locally served
// uploads.
func NewLocal(baseURL string) URLResolver {
	return &localResolver{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (r *localResolver) Resolve(ctx context.Context, relativePath string) (string, error) {
	if relativePath == "" {
		return "", nil
	}
	return r.baseURL + "/" + strings.TrimPrefix(relativePath, "/"), nil
}

// ResolveAll maps a slice of relative paths, preserving order. An empty
// input returns an empty slice.
func ResolveAll(ctx context.Context, r URLResolver, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		u, err := r.Resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
