//go:build integration

package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/integrationtest"
	"github.com/go-petr/pet-finance/internal/middleware"
	"github.com/go-petr/pet-finance/pkg/randompkg"
)

type roleResponse struct {
	Data struct {
		Role domain.Role `json:"role"`
	} `json:"data"`
	Error string `json:"error"`
}

func TestRoleAPI(t *testing.T) {
	server := integrationtest.SetupServer(t)

	_, err := server.Users.EnsureAdmin(context.Background(), "Admin", randompkg.Email(), randompkg.String(12))
	require.NoError(t, err)

	do := func(t *testing.T, method, url, role string, body any) (*httptest.ResponseRecorder, roleResponse) {
		t.Helper()

		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}

		req, err := http.NewRequest(method, url, &buf)
		require.NoError(t, err)

		err = middleware.AddAuthorization(req, server.TokenMaker, middleware.AuthTypeBearer, 1, role, time.Minute)
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, req)

		var resp roleResponse
		if recorder.Body.Len() > 0 {
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		}

		return recorder, resp
	}

	name := randompkg.String(10)

	recorder, resp := do(t, http.MethodPost, "/roles", domain.RoleAdmin, map[string]any{"name": "  " + name + " "})
	require.Equal(t, http.StatusCreated, recorder.Code, resp.Error)
	require.Equal(t, name, resp.Data.Role.Name)

	roleID := resp.Data.Role.ID

	recorder, _ = do(t, http.MethodPost, "/roles", domain.RoleAdmin, map[string]any{"name": name})
	require.Equal(t, http.StatusConflict, recorder.Code)

	recorder, _ = do(t, http.MethodPost, "/roles", domain.RoleUser, map[string]any{"name": randompkg.String(10)})
	require.Equal(t, http.StatusForbidden, recorder.Code)

	newName := randompkg.String(10)

	recorder, resp = do(t, http.MethodPut, fmt.Sprintf("/roles/%d", roleID), domain.RoleAdmin, map[string]any{"name": newName})
	require.Equal(t, http.StatusOK, recorder.Code, resp.Error)
	require.Equal(t, newName, resp.Data.Role.Name)

	recorder, _ = do(t, http.MethodDelete, fmt.Sprintf("/roles/%d", roleID), domain.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = do(t, http.MethodGet, fmt.Sprintf("/roles/%d", roleID), domain.RoleAdmin, nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestBuiltinRolesAreImmutable(t *testing.T) {
	server := integrationtest.SetupServer(t)

	var roles struct {
		Data struct {
			Roles []domain.Role `json:"roles"`
		} `json:"data"`
	}

	req, err := http.NewRequest(http.MethodGet, "/roles", nil)
	require.NoError(t, err)
	require.NoError(t, middleware.AddAuthorization(req, server.TokenMaker, middleware.AuthTypeBearer, 1, domain.RoleAdmin, time.Minute))

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &roles))

	for _, role := range roles.Data.Roles {
		if !domain.IsBuiltinRole(role.Name) {
			continue
		}

		body, err := json.Marshal(map[string]any{"name": randompkg.String(10)})
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("/roles/%d", role.ID), bytes.NewReader(body))
		require.NoError(t, err)
		require.NoError(t, middleware.AddAuthorization(req, server.TokenMaker, middleware.AuthTypeBearer, 1, domain.RoleAdmin, time.Minute))

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusConflict, recorder.Code, role.Name)

		req, err = http.NewRequest(http.MethodDelete, fmt.Sprintf("/roles/%d", role.ID), nil)
		require.NoError(t, err)
		require.NoError(t, middleware.AddAuthorization(req, server.TokenMaker, middleware.AuthTypeBearer, 1, domain.RoleAdmin, time.Minute))

		recorder = httptest.NewRecorder()
		server.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusConflict, recorder.Code, role.Name)
	}
}
