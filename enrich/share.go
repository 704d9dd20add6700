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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultShareURL is the Enrichr service.
const DefaultShareURL = "https://maayanlab.cloud/Enrichr"

// ShareLink identifies an uploaded gene list on the enrichment web
// service.
type ShareLink struct {
	UserListID int64  `json:"userListId"`
	ShortID    string `json:"shortId"`
	Link       string `json:"link"`
}

// ShareClient uploads gene lists to an Enrichr compatible web service
// and returns the shareable link for the uploaded list.
type ShareClient struct {
	BaseURL string
	Client  *http.Client
}

// NewShareClient returns a share client for the given base URL, with
// a 30 second request timeout.
func NewShareClient(baseURL string) *ShareClient {
	return &ShareClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Share uploads the gene list with the given description and returns
// the shareable link reported by the service.
func (c *ShareClient) Share(ctx context.Context, genes []string, description string) (*ShareLink, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("list", strings.Join(genes, "\n")); err != nil {
		return nil, err
	}
	if err := form.WriteField("description", description); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/addList", &body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", form.FormDataContentType())

	response, err := c.Client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, fmt.Errorf("share request to %v failed with status %v: %v", c.BaseURL, response.Status, strings.TrimSpace(string(payload)))
	}

	link := new(ShareLink)
	if err := json.NewDecoder(response.Body).Decode(link); err != nil {
		return nil, fmt.Errorf("share request to %v returned malformed JSON: %v", c.BaseURL, err)
	}
	if link.ShortID == "" {
		return nil, fmt.Errorf("share request to %v returned no short id", c.BaseURL)
	}
	link.Link = fmt.Sprintf("%v/enrich?dataset=%v", c.BaseURL, link.ShortID)
	return link, nil
}
