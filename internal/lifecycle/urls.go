package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/skydrive/internal/urlcache"
)

// SignedURL returns a time-limited download link for path. Links are cached
// for most of their lifetime and concurrent requests for one path share a
// single signing call.
func (m *Machine) SignedURL(ctx context.Context, path string) (string, error) {
	if url, err := m.urls.Get(ctx, path); err == nil {
		return url, nil
	} else if !errors.Is(err, urlcache.ErrMiss) {
		m.log.Warn(ctx, "url cache read failed", "path", path, "error", err)
	}

	v, err, _ := m.signing.Do(path, func() (any, error) {
		url, err := m.objects.SignedURL(ctx, path, m.opts.SignedURLTTL)
		if err != nil {
			return "", err
		}
		// expire the cached copy before the link itself does
		if err := m.urls.Set(ctx, path, url, m.opts.SignedURLTTL*9/10); err != nil {
			m.log.Warn(ctx, "url cache write failed", "path", path, "error", err)
		}
		return url, nil
	})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", path, err)
	}
	return v.(string), nil
}

// ResolveShare returns a download link for a shared record that is not in
// the trash. Any other id resolves to common.ErrorNotFound.
func (m *Machine) ResolveShare(ctx context.Context, id string) (string, error) {
	f, err := m.repo.GetShared(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve share %s: %w", id, err)
	}
	return m.SignedURL(ctx, f.StoragePath)
}

func (m *Machine) forgetURL(ctx context.Context, path string) {
	if err := m.urls.Delete(ctx, path); err != nil {
		m.log.Warn(ctx, "url cache delete failed", "path", path, "error", err)
	}
}
