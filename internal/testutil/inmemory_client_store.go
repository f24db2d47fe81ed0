package testutil

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/tutordesk/tutordesk/internal/domain/client"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

// InMemoryClientStore implements client.Repository
type InMemoryClientStore struct {
	*InMemoryStore[*client.Client]
}

func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{InMemoryStore: NewInMemoryStore[*client.Client]()}
}

func copyClient(c *client.Client) *client.Client {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Identity = client.CloneIdentity(c.Identity)
	cp.FormTokenExpiresAt = copyTime(c.FormTokenExpiresAt)
	cp.Renewal.TokenExpiresAt = copyTime(c.Renewal.TokenExpiresAt)
	cp.Renewal.LastEmailAt = copyTime(c.Renewal.LastEmailAt)
	cp.Renewal.RespondedAt = copyTime(c.Renewal.RespondedAt)
	if c.Renewal.Wish != nil {
		cp.Renewal.Wish = lo.ToPtr(*c.Renewal.Wish)
	}
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (s *InMemoryClientStore) Create(ctx context.Context, c *client.Client) error {
	if err := s.InMemoryStore.Create(ctx, c.ID, copyClient(c)); err != nil {
		return ierr.WithError(err).
			WithHint("Ce client existe déjà").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryClientStore) Get(ctx context.Context, id string) (*client.Client, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, client.ErrClientNotFound(id)
	}
	return copyClient(c), nil
}

func clientMatches(filter *types.ClientFilter) func(*client.Client) bool {
	return func(c *client.Client) bool {
		if filter == nil {
			return true
		}
		if filter.Type != "" && c.Type() != filter.Type {
			return false
		}
		if filter.Status != "" && c.Status != filter.Status {
			return false
		}
		if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
			hay := strings.ToLower(c.Name() + " " + c.Email())
			if !strings.Contains(hay, q) {
				return false
			}
		}
		return true
	}
}

func newestFirst(a, b *client.Client) bool { return a.CreatedAt.After(b.CreatedAt) }

func (s *InMemoryClientStore) List(ctx context.Context, filter *types.ClientFilter) ([]*client.Client, error) {
	items := s.Find(ctx, clientMatches(filter), newestFirst)
	if filter != nil && filter.QueryFilter != nil {
		offset := lo.Min([]int{filter.GetOffset(), len(items)})
		end := lo.Min([]int{offset + filter.GetLimit(), len(items)})
		items = items[offset:end]
	}
	return lo.Map(items, func(c *client.Client, _ int) *client.Client { return copyClient(c) }), nil
}

func (s *InMemoryClientStore) Count(ctx context.Context, filter *types.ClientFilter) (int, error) {
	return len(s.Find(ctx, clientMatches(filter), nil)), nil
}

func (s *InMemoryClientStore) Update(ctx context.Context, c *client.Client) error {
	return s.mutate(ctx, c.ID, func(stored *client.Client) error {
		stored.Identity = client.CloneIdentity(c.Identity)
		stored.SubType = c.SubType
		stored.Status = c.Status
		stored.Notes = c.Notes
		stored.UpdatedAt = c.UpdatedAt
		return nil
	})
}

func (s *InMemoryClientStore) mutate(ctx context.Context, id string, fn func(*client.Client) error) error {
	err := s.Mutate(ctx, id, func(stored *client.Client) (*client.Client, error) {
		cp := copyClient(stored)
		if err := fn(cp); err != nil {
			return nil, err
		}
		return cp, nil
	})
	if err == errItemNotFound {
		return client.ErrClientNotFound(id)
	}
	return err
}

func (s *InMemoryClientStore) findOne(ctx context.Context, match func(*client.Client) bool) (*client.Client, error) {
	items := s.Find(ctx, match, nil)
	if len(items) == 0 {
		return nil, types.ErrInvalidToken()
	}
	return copyClient(items[0]), nil
}

func (s *InMemoryClientStore) GetByFormToken(ctx context.Context, token string) (*client.Client, error) {
	return s.findOne(ctx, func(c *client.Client) bool { return token != "" && c.FormToken == token })
}

func (s *InMemoryClientStore) GetByRenewalToken(ctx context.Context, token string) (*client.Client, error) {
	return s.findOne(ctx, func(c *client.Client) bool { return token != "" && c.Renewal.Token == token })
}

func (s *InMemoryClientStore) SetFormToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return s.mutate(ctx, id, func(c *client.Client) error {
		c.FormToken = token
		c.FormTokenExpiresAt = &expiresAt
		return nil
	})
}

func (s *InMemoryClientStore) CompleteForm(ctx context.Context, id, token string, identity client.Identity) error {
	return s.mutate(ctx, id, func(c *client.Client) error {
		if c.FormToken == "" || c.FormToken != token {
			return types.ErrTokenUsed()
		}
		c.Identity = client.CloneIdentity(identity)
		c.FormToken = ""
		c.FormTokenExpiresAt = nil
		return nil
	})
}

func (s *InMemoryClientStore) StartRenewal(ctx context.Context, id, token string, expiresAt time.Time) error {
	return s.mutate(ctx, id, func(c *client.Client) error {
		c.Renewal = client.Renewal{
			Token:          token,
			TokenExpiresAt: &expiresAt,
		}
		return nil
	})
}

func (s *InMemoryClientStore) RecordRenewalEmail(ctx context.Context, id string, sentAt time.Time) error {
	return s.mutate(ctx, id, func(c *client.Client) error {
		c.Renewal.LastEmailAt = &sentAt
		return nil
	})
}

func (s *InMemoryClientStore) RecordRenewalResponse(ctx context.Context, id, token string, wish bool, comment string, at time.Time) error {
	return s.mutate(ctx, id, func(c *client.Client) error {
		if c.Renewal.Token != token || c.Renewal.RespondedAt != nil {
			return types.ErrAlreadyResponded()
		}
		c.Renewal.Wish = lo.ToPtr(wish)
		c.Renewal.Comment = comment
		c.Renewal.RespondedAt = &at
		return nil
	})
}

func (s *InMemoryClientStore) ListRenewalCandidates(ctx context.Context, yearStart time.Time) ([]*client.Client, error) {
	items := s.Find(ctx, func(c *client.Client) bool {
		return c.Type() == types.ClientTypeIndividual &&
			c.Status == types.ClientStatusClient &&
			(c.Renewal.RespondedAt == nil || c.Renewal.RespondedAt.Before(yearStart))
	}, func(a, b *client.Client) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return lo.Map(items, func(c *client.Client, _ int) *client.Client { return copyClient(c) }), nil
}

func (s *InMemoryClientStore) ListRenewalReminders(ctx context.Context, now, lastEmailBefore time.Time) ([]*client.Client, error) {
	items := s.Find(ctx, func(c *client.Client) bool {
		r := c.Renewal
		return r.Token != "" &&
			r.TokenExpiresAt != nil && !r.TokenExpiresAt.Before(now) &&
			r.RespondedAt == nil &&
			(r.LastEmailAt == nil || r.LastEmailAt.Before(lastEmailBefore))
	}, nil)
	return lo.Map(items, func(c *client.Client, _ int) *client.Client { return copyClient(c) }), nil
}
