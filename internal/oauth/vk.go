package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/vk"
)

const vkUsersGetURL = "https://api.vk.com/method/users.get"

type VK struct {
	conf   *oauth2.Config
	apiURL string
}

func NewVK(clientID, clientSecret, serverURL string) *VK {
	return &VK{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     vk.Endpoint,
			RedirectURL:  serverURL + "/auth/vk/callback",
			Scopes:       []string{"email"},
		},
		apiURL: vkUsersGetURL,
	}
}

func (v *VK) Name() string { return "vk" }

func (v *VK) AuthCodeURL(state string) string {
	return v.conf.AuthCodeURL(state)
}

type vkUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Photo200  string `json:"photo_200"`
}

type vkUsersGetResponse struct {
	Response []vkUser `json:"response"`
	Error    *struct {
		ErrorMsg string `json:"error_msg"`
	} `json:"error"`
}

func (v *VK) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	token, err := v.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("vk exchange: %w", err)
	}

	q := url.Values{}
	q.Set("fields", "photo_200")
	q.Set("v", "5.131")
	q.Set("access_token", token.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vk users.get: %w", err)
	}
	defer resp.Body.Close()

	var body vkUsersGetResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("vk users.get decode: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("vk users.get: %s", body.Error.ErrorMsg)
	}
	if len(body.Response) == 0 {
		return nil, fmt.Errorf("vk users.get: empty response")
	}

	// VK delivers the email alongside the token, not in users.get.
	var email string
	if e, ok := token.Extra("email").(string); ok {
		email = e
	}

	return normalizeVK(body.Response[0], email), nil
}

func normalizeVK(u vkUser, email string) *Profile {
	vkID := u.ID
	p := &Profile{
		VKID:   &vkID,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
		Avatar: u.Photo200,
	}
	if email != "" {
		p.Email = &email
	}
	return p
}
