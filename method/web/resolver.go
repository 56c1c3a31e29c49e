/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const (
	// HTTPClientOpt http client opt.
	HTTPClientOpt = "httpClient"

	// UseHTTPOpt use http option.
	UseHTTPOpt = "useHTTP"

	documentPath = "/did.json"
	defaultPath  = "/.well-known" + documentPath
)

var logger = log.New("didwebvh-go/method/web")

// Read resolves a did:web did.
func (v *VDR) Read(didID string, opts ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error) {
	httpClient := &http.Client{}

	didOpts := &vdrapi.DIDMethodOpts{Values: make(map[string]interface{})}
	for _, opt := range opts {
		opt(didOpts)
	}

	if value, ok := didOpts.Values[HTTPClientOpt]; ok {
		httpClient, ok = value.(*http.Client)
		if !ok {
			return nil, fmt.Errorf("failed to cast http client opt to http client struct")
		}
	}

	_, useHTTP := didOpts.Values[UseHTTPOpt]

	address, _, err := parseDIDWeb(didID, useHTTP)
	if err != nil {
		return nil, fmt.Errorf("error resolving did:web did --> could not parse did:web did --> %w", err)
	}

	resp, err := httpClient.Get(address)
	if err != nil {
		return nil, fmt.Errorf("error resolving did:web did --> http request unsuccessful --> %w", err)
	}

	defer closeResponseBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, vdrapi.ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http server returned status code [%d]", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error resolving did:web did --> error reading http response body: %w", err)
	}

	doc, err := diddoc.ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("error resolving did:web did --> error parsing did doc --> %w", err)
	}

	if doc.ID != didID {
		return nil, fmt.Errorf("did id %s not matching did %s", doc.ID, didID)
	}

	return &diddoc.DocResolution{DIDDocument: doc}, nil
}

// parseDIDWeb maps a did:web identifier to the URL of its did.json
// document per https://w3c-ccg.github.io/did-method-web/#read-resolve.
func parseDIDWeb(didID string, useHTTP bool) (string, string, error) {
	segments := strings.Split(didID, ":")
	if len(segments) < 3 || segments[0] != "did" || segments[1] != namespace || segments[2] == "" {
		return "", "", fmt.Errorf("%s does not conform to generic did standard", didID)
	}

	authority := strings.ReplaceAll(segments[2], "%3A", ":")
	host := authority

	if index := strings.Index(authority, ":"); index >= 0 {
		host = authority[:index]
	}

	scheme := "https"
	if useHTTP || strings.EqualFold(host, "localhost") || strings.HasPrefix(host, "127.0.0.") {
		scheme = "http"
	}

	pathSegments := segments[3:]
	for _, segment := range pathSegments {
		if segment == "" {
			return "", "", fmt.Errorf("%s has an empty path segment", didID)
		}
	}

	if len(pathSegments) == 0 {
		return scheme + "://" + authority + defaultPath, host, nil
	}

	return scheme + "://" + authority + "/" + strings.Join(pathSegments, "/") + documentPath, host, nil
}

func closeResponseBody(respBody io.Closer) {
	if err := respBody.Close(); err != nil {
		logger.Warnf("failed to close response body: %v", err)
	}
}
