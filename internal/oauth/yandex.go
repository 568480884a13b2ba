package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/yandex"
)

const yandexInfoURL = "https://login.yandex.ru/info?format=json"

type Yandex struct {
	conf    *oauth2.Config
	infoURL string
}

func NewYandex(clientID, clientSecret, serverURL string) *Yandex {
	return &Yandex{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     yandex.Endpoint,
			RedirectURL:  serverURL + "/auth/yandex/callback",
			Scopes:       []string{"login:email", "login:info", "login:avatar"},
		},
		infoURL: yandexInfoURL,
	}
}

func (y *Yandex) Name() string { return "yandex" }

func (y *Yandex) AuthCodeURL(state string) string {
	return y.conf.AuthCodeURL(state)
}

type yandexInfo struct {
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	RealName        string `json:"real_name"`
	DefaultEmail    string `json:"default_email"`
	DefaultAvatarID string `json:"default_avatar_id"`
	IsAvatarEmpty   bool   `json:"is_avatar_empty"`
}

func (y *Yandex) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	token, err := y.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("yandex exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.infoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+token.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yandex userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yandex userinfo status %d", resp.StatusCode)
	}

	var info yandexInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("yandex userinfo decode: %w", err)
	}

	return normalizeYandex(info), nil
}

func normalizeYandex(info yandexInfo) *Profile {
	p := &Profile{Name: info.DisplayName}
	if p.Name == "" {
		p.Name = info.RealName
	}
	if p.Name == "" {
		p.Name = info.Login
	}
	if info.DefaultEmail != "" {
		email := info.DefaultEmail
		p.Email = &email
	}
	if info.DefaultAvatarID != "" && !info.IsAvatarEmpty {
		p.Avatar = fmt.Sprintf("https://avatars.yandex.net/get-yapic/%s/islands-200", info.DefaultAvatarID)
	}
	return p
}
