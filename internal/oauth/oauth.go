package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// Profile is the shared shape every provider normalizes its payload into.
// VKID and Email are optional; a provider may withhold either.
type Profile struct {
	VKID   *int64
	Email  *string
	Name   string
	Avatar string
}

// Provider turns an authorization code into a normalized Profile.
// One implementation per upstream identity provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*Profile, error)
}

type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

func StateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
