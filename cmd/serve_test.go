package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwbort/stores-kmart/internal/model"
)

func serveRecords() []model.StoreRecord {
	return []model.StoreRecord{
		{LocationID: strp("1052"), PublicName: strp("Kmart Broadway"), SourceURL: "a"},
		{LocationID: strp("1178"), PublicName: strp("Kmart Bondi"), SourceURL: "b"},
		{SourceURL: "c"},
	}
}

func TestServeHandler_Health(t *testing.T) {
	srv := httptest.NewServer(newServeHandler(serveRecords()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServeHandler_Stores(t *testing.T) {
	srv := httptest.NewServer(newServeHandler(serveRecords()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stores")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []model.StoreRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, 3)
}

func TestServeHandler_StoreByID(t *testing.T) {
	srv := httptest.NewServer(newServeHandler(serveRecords()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stores/1178")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.StoreRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NotNil(t, got.PublicName)
	assert.Equal(t, "Kmart Bondi", *got.PublicName)
}

func TestServeHandler_StoreNotFound(t *testing.T) {
	srv := httptest.NewServer(newServeHandler(serveRecords()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stores/9999")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
