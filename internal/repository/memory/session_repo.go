package memory

import (
	"context"
	"time"

	"github.com/dom/study-buddy/internal/domain"
)

type sessionRepository struct {
	store *Store
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !r.store.userExists(session.UserID.String()) {
		return domain.ErrNotFound
	}
	for _, s := range r.store.sessions {
		if s.SessionToken == session.SessionToken {
			return domain.ErrDuplicateIdentity
		}
	}

	c := *session
	c.User = nil
	r.store.sessions = append(r.store.sessions, &c)
	return nil
}

func (r *sessionRepository) GetLiveByToken(ctx context.Context, token string, now time.Time) (*domain.UserSession, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, s := range r.store.sessions {
		if s.SessionToken != token {
			continue
		}
		if !s.Live(now) {
			return nil, domain.ErrNotFound
		}
		c := *s
		for _, u := range r.store.users {
			if u.ID == s.UserID {
				c.User = cloneUser(u)
				break
			}
		}
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.sessions = filterSessions(r.store.sessions, func(s *domain.UserSession) bool {
		return s.SessionToken != token
	})
	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	before := len(r.store.sessions)
	r.store.sessions = filterSessions(r.store.sessions, func(s *domain.UserSession) bool {
		return s.Live(now)
	})
	return int64(before - len(r.store.sessions)), nil
}

func (r *sessionRepository) Count(ctx context.Context) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.sessions)), nil
}

func filterSessions(in []*domain.UserSession, keep func(*domain.UserSession) bool) []*domain.UserSession {
	out := in[:0]
	for _, s := range in {
		if keep(s) {
			out = append(out, s)
		}
	}
	// drop dangling pointers past the new length
	for i := len(out); i < len(in); i++ {
		in[i] = nil
	}
	return out
}
