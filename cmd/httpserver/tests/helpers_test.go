//go:build integration

package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-finance/internal/integrationtest"
	"github.com/go-petr/pet-finance/pkg/randompkg"
)

type apiResponse struct {
	AccessToken string          `json:"access_token"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error"`
}

// cleanDB flushes the database once the test is done.
func cleanDB(t *testing.T) {
	t.Cleanup(func() {
		integrationtest.Flush(t, server.DB)
	})
}

func call(t *testing.T, method, url, token string, body any) (int, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	var resp apiResponse
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	}

	return recorder.Code, resp
}

func decodeData(t *testing.T, resp apiResponse, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

// registerUser signs up a random user and returns its token and password.
func registerUser(t *testing.T) (token, email, password string) {
	t.Helper()

	email = randompkg.Email()
	password = randompkg.String(10)

	code, resp := call(t, http.MethodPost, "/users", "", map[string]any{
		"name":     randompkg.Owner(),
		"email":    email,
		"phone":    randompkg.Phone(),
		"password": password,
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	require.NotEmpty(t, resp.AccessToken)

	return resp.AccessToken, email, password
}

// adminToken bootstraps an administrator and logs in as it.
func adminToken(t *testing.T) string {
	t.Helper()

	email := randompkg.Email()
	password := randompkg.String(12)

	created, err := server.Users.EnsureAdmin(context.Background(), "Admin", email, password)
	require.NoError(t, err)
	require.True(t, created)

	code, resp := call(t, http.MethodPost, "/users/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, code, resp.Error)

	return resp.AccessToken
}
