/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// webvh is a thin command line shell over the did:webvh method: it
// creates, updates, deactivates and resolves DID logs kept as
// JSON-Lines files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "webvh",
		Short:         "did:webvh log tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newCreateCmd(), newUpdateCmd(), newDeactivateCmd(), newResolveCmd())

	return cmd
}
