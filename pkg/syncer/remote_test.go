package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

func TestClientPutUsesEntityEndpoint(t *testing.T) {
	var gotPath, gotAuth, gotMethod string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth, gotMethod = r.URL.EscapedPath(), r.Header.Get("Authorization"), r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"saved"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithToken("tok"))
	item := models.InventoryItem{ID: "inv 1", Name: "Cups", Quantity: 3}
	require.NoError(t, c.Put(context.Background(), engine.KindInventory, item.ID, item))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/inventory/inv%201", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "Cups", gotBody["name"])
}

func TestClientMaps404ToEndpointMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Route not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Delete(context.Background(), engine.KindAttendanceLogs, "log-1")
	assert.ErrorIs(t, err, ErrEndpointMissing)
}

func TestClientSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database unavailable"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Put(context.Background(), engine.KindOrders, "ord-1", models.Order{ID: "ord-1"})
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.Equal(t, "database unavailable", he.Message)
	assert.False(t, errors.Is(err, ErrEndpointMissing))
}

func TestClientHasNoSalesEndpoint(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	err := NewClient(srv.URL).Put(context.Background(), engine.KindSalesHistory, "sale-2026-03-10", nil)
	assert.ErrorIs(t, err, ErrEndpointMissing)
	assert.Zero(t, hits)
}

func TestClientFetchAndPushState(t *testing.T) {
	var pushed models.Snapshot
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"users":[{"id":"u-1","name":"Ana","permission":"kitchen_staff","status":"active"}],"orders":[],"inventory":[]}`))
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&pushed)
			_, _ = w.Write([]byte(`{"message":"State saved"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	snap, err := c.FetchState(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, models.PermissionKitchenStaff, snap.Users[0].Permission)

	snap.Users[0].Name = "Ana B"
	require.NoError(t, c.PushState(context.Background(), snap))
	assert.Equal(t, "Ana B", pushed.Users[0].Name)
}

func TestClientSignInStoresToken(t *testing.T) {
	var secondAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/sign-in" {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "1234", body["pin"])
			_, _ = w.Write([]byte(`{"message":"Signed in","token":"jwt-abc","user":{"id":"u-1","name":"Ana"}}`))
			return
		}
		secondAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	s, err := c.SignIn(context.Background(), "u-1", "1234")
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", s.Token)
	assert.Equal(t, "Ana", s.User.Name)

	_, err = c.FetchState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer jwt-abc", secondAuth)
}
