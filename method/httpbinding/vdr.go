/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpbinding resolves DIDs through a remote DID resolver over
// HTTP(S), optionally load balancing across equivalent endpoints.
package httpbinding

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	"github.com/decentralized-identity/didwebvh-go/method/httpbinding/lb"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

type authTokenProvider interface {
	AuthToken() (string, error)
}

// Accept is a predicate over DID method names.
type Accept func(method string) bool

// VDR resolves DIDs via HTTP(S) endpoint(s).
type VDR struct {
	endpoints         []string
	balancer          *lb.RoundRobin
	client            *http.Client
	accept            Accept
	resolveAuthToken  string
	authTokenProvider authTokenProvider
}

// New creates a new remote DID resolver binding.
func New(endpointURL string, opts ...Option) (*VDR, error) {
	v := &VDR{
		client:   &http.Client{},
		accept:   func(string) bool { return true },
		balancer: lb.NewRoundRobin(),
	}

	for _, opt := range opts {
		opt(v)
	}

	for _, endpoint := range append([]string{endpointURL}, v.endpoints...) {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("base URL invalid: %w", err)
		}
	}

	v.endpoints = append([]string{endpointURL}, v.endpoints...)

	return v, nil
}

// Accept implements the VDR interface.
func (v *VDR) Accept(method string, _ ...vdrapi.DIDMethodOption) bool {
	return v.accept(method)
}

// Create is not supported in the http binding VDR.
func (v *VDR) Create(didDoc *diddoc.Doc, _ ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error) {
	return nil, errors.New("build not supported in http binding vdr")
}

// Update is not supported.
func (v *VDR) Update(didDoc *diddoc.Doc, _ ...vdrapi.DIDMethodOption) error {
	return errors.New("not supported")
}

// Deactivate is not supported.
func (v *VDR) Deactivate(didID string, _ ...vdrapi.DIDMethodOption) error {
	return errors.New("not supported")
}

// Close frees resources being maintained by the VDR.
func (v *VDR) Close() error {
	return nil
}

// Option configures the http binding VDR.
type Option func(opts *VDR)

// WithTimeout sets the HTTP(S) timeout of the resolver client.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *VDR) {
		opts.client.Timeout = timeout
	}
}

// WithHTTPClient sets a custom http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *VDR) {
		opts.client = httpClient
	}
}

// WithAccept restricts the DID methods resolved through this binding.
func WithAccept(accept Accept) Option {
	return func(opts *VDR) {
		opts.accept = accept
	}
}

// WithAdditionalEndpoints adds equivalent resolver endpoints; requests
// are spread over all endpoints round-robin.
func WithAdditionalEndpoints(endpoints ...string) Option {
	return func(opts *VDR) {
		opts.endpoints = append(opts.endpoints, endpoints...)
	}
}

// WithResolveAuthToken adds an auth token for resolve requests.
func WithResolveAuthToken(authToken string) Option {
	return func(opts *VDR) {
		opts.resolveAuthToken = "Bearer " + authToken
	}
}

// WithResolveAuthTokenProvider adds an auth token provider.
func WithResolveAuthTokenProvider(p authTokenProvider) Option {
	return func(opts *VDR) {
		opts.authTokenProvider = p
	}
}
