package aaps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", 5*time.Second)
}

func TestClient_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantToken  string
		wantStatus int
		wantReason string
	}{
		{name: "success", status: http.StatusOK, body: `{"token":"abc"}`, wantToken: "abc"},
		{
			name: "bad credentials", status: http.StatusBadRequest,
			body:       `{"non_field_errors":["Unable to log in with provided credentials."]}`,
			wantStatus: http.StatusBadRequest, wantReason: "Unable to log in with provided credentials.",
		},
		{name: "no token", status: http.StatusOK, body: `{}`, wantStatus: http.StatusOK, wantReason: "no token in response"},
		{name: "server error", status: http.StatusBadGateway, body: `<html>`, wantStatus: http.StatusBadGateway, wantReason: "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/api-token-auth/", r.URL.Path)
				var creds map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
				assert.Equal(t, map[string]string{"username": "tecnico", "password": "secreto"}, creds)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			token, err := c.Authenticate(context.Background(), "tecnico", "secreto")
			if tt.wantReason != "" {
				var authErr *domain.AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, tt.wantStatus, authErr.Status)
				assert.Equal(t, tt.wantReason, authErr.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestClient_AuthenticateUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	_, err := c.Authenticate(context.Background(), "u", "p")
	require.Error(t, err)
	var authErr *domain.AuthError
	assert.False(t, errors.As(err, &authErr))
}

func TestClient_FetchDataset(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Token good":
		default:
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/registro/epsas/":
			_, _ = w.Write([]byte(`{"columns":["epsa","year","monto"],"rows":[["SAGUAPAC",2024,1234.50],["COSMOL",2024,null]]}`))
		case "/api/broken/":
			_, _ = w.Write([]byte(`{"columns":["a","b"],"rows":[[1]]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	ds, err := c.FetchDataset(ctx, "good", "/registro/epsas/")
	require.NoError(t, err)
	assert.Equal(t, []string{"epsa", "year", "monto"}, ds.Columns)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, json.Number("1234.50"), ds.Rows[0][2])
	assert.Nil(t, ds.Rows[1][2])

	_, err = c.FetchDataset(ctx, "bad", "registro/epsas/")
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)

	_, err = c.FetchDataset(ctx, "good", "missing/")
	assert.EqualError(t, err, "fetch missing/: unexpected status 404")

	_, err = c.FetchDataset(ctx, "good", "broken/")
	assert.ErrorContains(t, err, "row 0 has 1 cells, expected 2")
}

func TestClient_FetchDatasetCancelled(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchDataset(ctx, "good", "registro/epsas/")
	assert.ErrorIs(t, err, context.Canceled)
}
