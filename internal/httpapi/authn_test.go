package httpapi

import (
	"net/http"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer token123", want: "token123"},
		{name: "empty", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "scheme only", header: "Bearer ", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractBearerToken(tc.header)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/v1/users/me", "/v1/teams"} {
		resp := api.get(path, nil, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
		if resp.Header.Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("%s: missing WWW-Authenticate header", path)
		}
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/v1/users/me", nil, map[string]string{
		"Authorization": "Bearer not-a-jwt",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != "could not validate credentials" {
		t.Fatalf("unexpected error body: %v", body["error"])
	}
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	api := newTestAPI(t)

	_, tokens := api.register("dana@example.com", "Dana")
	resp := api.get("/v1/users/me", nil, map[string]string{
		"Authorization": "Bearer " + tokens["refresh_token"].(string),
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh token must not authenticate requests, got %d", resp.StatusCode)
	}
}
