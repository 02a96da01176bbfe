// Package session keeps the serialized current-user record between requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"billed-backend/models"

	"github.com/google/uuid"
)

// UserKey is the item key holding the serialized current user
const UserKey = "user"

// ErrItemNotFound is returned by stores for missing or expired keys
var ErrItemNotFound = errors.New("session item not found")

// Store is a string key-value store
type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Provider exposes the user the current request acts for
type Provider interface {
	CurrentUser(ctx context.Context) (*models.Session, bool)
}

// StoreProvider reads the current user from a Store.
// A non-empty namespace scopes the lookup to one session id.
type StoreProvider struct {
	store     Store
	namespace string
}

// NewProvider returns a provider reading the "user" item of namespace
func NewProvider(store Store, namespace string) *StoreProvider {
	return &StoreProvider{store: store, namespace: namespace}
}

// CurrentUser decodes the stored user; missing, malformed or email-less records are absent
func (p *StoreProvider) CurrentUser(ctx context.Context) (*models.Session, bool) {
	raw, err := p.store.GetItem(ctx, itemKey(p.namespace, UserKey))
	if err != nil {
		return nil, false
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, false
	}
	if sess.Email == "" {
		return nil, false
	}
	return &sess, true
}

// Save writes sess as the "user" item of namespace
func Save(ctx context.Context, store Store, namespace string, sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return store.SetItem(ctx, itemKey(namespace, UserKey), string(data))
}

// Start opens a new namespaced session for sess and returns its id
func Start(ctx context.Context, store Store, sess models.Session) (string, error) {
	id := uuid.NewString()
	if err := Save(ctx, store, id, sess); err != nil {
		return "", err
	}
	return id, nil
}

// End removes the session's user item
func End(ctx context.Context, store Store, namespace string) error {
	return store.RemoveItem(ctx, itemKey(namespace, UserKey))
}

func itemKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
