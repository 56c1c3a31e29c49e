/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package lb implements the load-balance policy used when a resolver
// binding is configured with several equivalent endpoints.
package lb

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync/atomic"
)

// RoundRobin implements a round-robin load-balance policy. A single
// instance may be used by multiple goroutines.
type RoundRobin struct {
	index int32
}

// NewRoundRobin returns a new RoundRobin load-balance policy. The first
// choice is randomized so that a fleet of clients does not converge on
// the same endpoint.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{index: -1}
}

// Choose chooses from the list of endpoints in round-robin fashion.
func (rb *RoundRobin) Choose(endpoints []string) (string, error) {
	if len(endpoints) == 0 {
		return "", errors.New("no endpoints to choose from")
	}

	return endpoints[rb.next(len(endpoints))], nil
}

// next increments the counter, rolling over to 0 at n.
func (rb *RoundRobin) next(n int) int {
	for {
		current := atomic.LoadInt32(&rb.index)

		i := int(current)
		if i == -1 {
			result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
			if err != nil {
				panic(err.Error())
			}

			i = int(result.Int64())
		} else {
			i++
			if i >= n {
				i = 0
			}
		}

		if atomic.CompareAndSwapInt32(&rb.index, current, int32(i)) {
			return i
		}
	}
}
