/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// didPattern matches the generic did syntax used for witness ids.
var didPattern = regexp.MustCompile(`^did:[a-z0-9]+:.+$`)

const (
	namespace = "webvh"

	didPrefix = "did:" + namespace + ":"

	logDocument     = "did.jsonl"
	witnessDocument = "did-witness.json"
	whoisDocument   = "whois.vp"
	wellKnownPath   = ".well-known"

	encodedColon = "%3A"
)

// DID is a parsed did:webvh identifier.
type DID struct {
	SCID         string
	Host         string
	Port         string
	PathSegments []string
}

// ParseDID parses a did:webvh identifier of the form
// did:webvh:<scid>:<host>[%3A<port>](:<path-segment>)*.
func ParseDID(didID string) (*DID, error) {
	if !strings.HasPrefix(didID, didPrefix) {
		return nil, fmt.Errorf("%w: %s is not a valid did:%s", ErrParse, didID, namespace)
	}

	segments := strings.Split(strings.TrimPrefix(didID, didPrefix), ":")
	if len(segments) < 2 {
		return nil, fmt.Errorf("%w: %s is missing the authority segment", ErrParse, didID)
	}

	scid := segments[0]
	if scid == "" {
		return nil, fmt.Errorf("%w: %s has an empty SCID segment", ErrParse, didID)
	}

	host, port, err := parseAuthority(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrParse, didID, err)
	}

	pathSegments := segments[2:]
	for _, segment := range pathSegments {
		if segment == "" {
			return nil, fmt.Errorf("%w: %s has an empty path segment", ErrParse, didID)
		}

		if strings.HasSuffix(segment, "/") {
			return nil, fmt.Errorf("%w: %s has a path segment with a trailing slash", ErrParse, didID)
		}
	}

	return &DID{SCID: scid, Host: host, Port: port, PathSegments: pathSegments}, nil
}

func parseAuthority(authority string) (string, string, error) {
	if authority == "" {
		return "", "", fmt.Errorf("empty authority")
	}

	host := authority
	port := ""

	if index := strings.Index(strings.ToLower(authority), strings.ToLower(encodedColon)); index >= 0 {
		host = authority[:index]
		port = authority[index+len(encodedColon):]

		if port == "" || strings.Trim(port, "0123456789") != "" {
			return "", "", fmt.Errorf("invalid port %q", port)
		}
	}

	if host == "" {
		return "", "", fmt.Errorf("empty host")
	}

	return host, port, nil
}

// String renders the DID back into its did:webvh form.
func (d *DID) String() string {
	authority := d.Host
	if d.Port != "" {
		authority += encodedColon + d.Port
	}

	segments := append([]string{didPrefix + d.SCID, authority}, d.PathSegments...)

	return strings.Join(segments, ":")
}

// WebDID derives the did:web alias by stripping the SCID segment.
func (d *DID) WebDID() string {
	authority := d.Host
	if d.Port != "" {
		authority += encodedColon + d.Port
	}

	segments := append([]string{"did:web:" + authority}, d.PathSegments...)

	return strings.Join(segments, ":")
}

// SCIDDID derives the did:scid:vh alias carrying only the SCID.
func (d *DID) SCIDDID() string {
	return "did:scid:vh:" + d.SCID
}

// baseURL is the HTTP(S) directory that holds the DID's documents.
func (d *DID) baseURL() string {
	scheme := "https"
	if isLoopback(d.Host) {
		scheme = "http"
	}

	authority := d.Host
	if d.Port != "" {
		authority += ":" + d.Port
	}

	if len(d.PathSegments) == 0 {
		return scheme + "://" + authority + "/" + wellKnownPath
	}

	return scheme + "://" + authority + "/" + strings.Join(d.PathSegments, "/")
}

// LogURL is the URL of the JSON-Lines DID log.
func (d *DID) LogURL() string {
	return d.baseURL() + "/" + logDocument
}

// WitnessURL is the URL of the witness proof document, a sibling of the log.
func (d *DID) WitnessURL() string {
	return d.baseURL() + "/" + witnessDocument
}

// WhoisURL is the URL of the whois verifiable presentation.
func (d *DID) WhoisURL() string {
	return d.baseURL() + "/" + whoisDocument
}

// FilesURL is the URL parent used by the implied #files service.
func (d *DID) FilesURL() string {
	scheme := "https"
	if isLoopback(d.Host) {
		scheme = "http"
	}

	authority := d.Host
	if d.Port != "" {
		authority += ":" + d.Port
	}

	if len(d.PathSegments) == 0 {
		return scheme + "://" + authority + "/"
	}

	return scheme + "://" + authority + "/" + strings.Join(d.PathSegments, "/") + "/"
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(strings.Trim(host, "[]"))

	return ip != nil && ip.IsLoopback()
}
