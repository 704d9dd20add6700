// elDGE: a tool for differential gene expression and enrichment
// reports for RNA-seq count data.
// Copyright (c) 2022-2023 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/eldge/blob/master/LICENSE.txt>.

package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShare(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/addList", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1024*1024))
		assert.Equal(t, "NOTCH1\nHES1\nDTX1", r.FormValue("list"))
		assert.Equal(t, "T vs R upregulated", r.FormValue("description"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"userListId": 12345, "shortId": "abc123"}`))
	}))
	defer server.Close()

	client := NewShareClient(server.URL + "/")
	link, err := client.Share(context.Background(), []string{"NOTCH1", "HES1", "DTX1"}, "T vs R upregulated")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), link.UserListID)
	assert.Equal(t, "abc123", link.ShortID)
	assert.Equal(t, server.URL+"/enrich?dataset=abc123", link.Link)
}

func TestShareServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewShareClient(server.URL)
	_, err := client.Share(context.Background(), []string{"NOTCH1"}, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestShareMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewShareClient(server.URL)
	_, err := client.Share(context.Background(), []string{"NOTCH1"}, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed JSON")
}

func TestShareMissingShortID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"userListId": 1}`))
	}))
	defer server.Close()

	client := NewShareClient(server.URL)
	_, err := client.Share(context.Background(), []string{"NOTCH1"}, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no short id")
}
