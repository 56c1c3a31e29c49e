/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/hyperledger/aries-framework-go/component/log"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const (
	// VersionIDOpt version id opt; this option is not mandatory.
	VersionIDOpt = "versionID"
	// VersionTimeOpt version time opt; this option is not mandatory.
	VersionTimeOpt = "versionTime"

	didLDJson = "application/did+ld+json"
)

var logger = log.New("didwebvh-go/method/httpbinding")

// resolveDID makes DID resolution via HTTP.
func (v *VDR) resolveDID(uri string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP create get request failed: %w", err)
	}

	req.Header.Add("Accept", didLDJson)

	authToken := v.resolveAuthToken

	if v.authTokenProvider != nil {
		token, errToken := v.authTokenProvider.AuthToken()
		if errToken != nil {
			return nil, errToken
		}

		authToken = "Bearer " + token
	}

	if authToken != "" {
		req.Header.Add("Authorization", authToken)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP Get request failed: %w", err)
	}

	defer closeResponseBody(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, vdrapi.ErrNotFound
	}

	return nil, fmt.Errorf("unsupported response from DID resolver [%v] header [%s] body [%s]",
		resp.StatusCode, resp.Header.Get("Content-Type"), body)
}

// Read resolves a DID through a remote resolver endpoint
// (https://w3c-ccg.github.io/did-resolution/#resolving-input).
func (v *VDR) Read(didID string, opts ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error) {
	didMethodOpts := &vdrapi.DIDMethodOpts{Values: make(map[string]interface{})}
	for _, opt := range opts {
		opt(didMethodOpts)
	}

	versionID, err := stringOpt(didMethodOpts, VersionIDOpt)
	if err != nil {
		return nil, err
	}

	versionTime, err := stringOpt(didMethodOpts, VersionTimeOpt)
	if err != nil {
		return nil, err
	}

	if versionID != "" && versionTime != "" {
		return nil, errors.New("versionID and versionTime can not set at same time")
	}

	endpoint, err := v.balancer.Choose(v.endpoints)
	if err != nil {
		return nil, err
	}

	reqURL, err := url.ParseRequestURI(endpoint)
	if err != nil {
		return nil, fmt.Errorf("url parse request uri failed: %w", err)
	}

	reqURL.Path = path.Join(reqURL.Path, didID)

	if versionID != "" {
		reqURL.RawQuery = "versionId=" + url.QueryEscape(versionID)
	}

	if versionTime != "" {
		reqURL.RawQuery = "versionTime=" + url.QueryEscape(versionTime)
	}

	data, err := v.resolveDID(reqURL.String())
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, vdrapi.ErrNotFound
	}

	documentResolution, err := diddoc.ParseDocumentResolution(data)
	if err == nil {
		return documentResolution, nil
	}

	if !errors.Is(err, diddoc.ErrDIDDocumentNotExist) {
		logger.Warnf("parse document resolution failed: %v", err)
	}

	didDoc, err := diddoc.ParseDocument(data)
	if err != nil {
		return nil, err
	}

	return &diddoc.DocResolution{DIDDocument: didDoc}, nil
}

func stringOpt(opts *vdrapi.DIDMethodOpts, name string) (string, error) {
	value := opts.Values[name]
	if value == nil {
		return "", nil
	}

	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s option is not a string", name)
	}

	return s, nil
}

func closeResponseBody(respBody io.Closer) {
	if err := respBody.Close(); err != nil {
		logger.Warnf("failed to close response body: %v", err)
	}
}
