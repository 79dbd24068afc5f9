// ABOUTME: Tests for the API key authentication gate
// ABOUTME: Uses an in-memory key store fake to avoid touching SQLite

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2389/leanlog/internal/apikeys"
	"github.com/2389/leanlog/internal/store"
)

type fakeKeyStore struct {
	keys    []*store.APIKey
	listErr error
	touched chan string
}

func (f *fakeKeyStore) ListActiveAPIKeys(ctx context.Context) ([]*store.APIKey, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.keys, nil
}

func (f *fakeKeyStore) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	if f.touched != nil {
		f.touched <- id
	}
	return nil
}

func TestAuthenticate(t *testing.T) {
	rawKey := apikeys.GenerateRawKey()
	hashed, err := apikeys.HashKey(rawKey)
	if err != nil {
		t.Fatalf("HashKey: %v", err)
	}

	newGate := func(fake *fakeKeyStore) *Authenticator {
		fake.keys = []*store.APIKey{
			{ID: "key-1", UserID: "user-1", HashedKey: hashed},
		}
		return NewAuthenticator(fake)
	}

	t.Run("valid key", func(t *testing.T) {
		fake := &fakeKeyStore{touched: make(chan string, 1)}
		gate := newGate(fake)

		authCtx, err := gate.Authenticate(context.Background(), "Bearer "+rawKey)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if authCtx.UserID != "user-1" || authCtx.KeyID != "key-1" {
			t.Errorf("unexpected identity: %+v", authCtx)
		}

		select {
		case id := <-fake.touched:
			if id != "key-1" {
				t.Errorf("touched wrong key: %s", id)
			}
		case <-time.After(2 * time.Second):
			t.Error("key usage was never recorded")
		}
	})

	t.Run("case-insensitive scheme", func(t *testing.T) {
		gate := newGate(&fakeKeyStore{})
		if _, err := gate.Authenticate(context.Background(), "bearer "+rawKey); err != nil {
			t.Errorf("lowercase scheme rejected: %v", err)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		gate := newGate(&fakeKeyStore{})
		headers := map[string]string{
			"missing header": "",
			"no scheme":      rawKey,
			"wrong scheme":   "Basic " + rawKey,
			"empty key":      "Bearer ",
			"unknown key":    "Bearer " + apikeys.GenerateRawKey(),
			"garbage key":    "Bearer not-a-key",
		}
		for name, header := range headers {
			t.Run(name, func(t *testing.T) {
				_, err := gate.Authenticate(context.Background(), header)
				if !errors.Is(err, ErrUnauthenticated) {
					t.Errorf("want ErrUnauthenticated, got %v", err)
				}
			})
		}
	})

	t.Run("store failure is unauthenticated", func(t *testing.T) {
		gate := NewAuthenticator(&fakeKeyStore{listErr: errors.New("db closed")})
		_, err := gate.Authenticate(context.Background(), "Bearer "+rawKey)
		if !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("want ErrUnauthenticated, got %v", err)
		}
	})
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("empty context should have no auth, got %+v", got)
	}

	want := &AuthContext{UserID: "user-1", KeyID: "key-1"}
	ctx := WithAuth(context.Background(), want)
	if got := FromContext(ctx); got != want {
		t.Errorf("FromContext = %+v, want %+v", got, want)
	}
}
