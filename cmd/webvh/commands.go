/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	"github.com/decentralized-identity/didwebvh-go/doc/integrity"
	"github.com/decentralized-identity/didwebvh-go/doc/ld/validator"
	"github.com/decentralized-identity/didwebvh-go/method/webvh"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const (
	logFile     = "did.jsonl"
	secretsFile = "did-secrets.json"
)

// secrets is the on-disk form of the controller's private keys,
// base64-encoded Ed25519 seeds indexed by multikey id.
type secrets map[string]string

func newCreateCmd() *cobra.Command {
	var (
		dir      string
		didID    string
		portable bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new DID log in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if didID == "" {
				return fmt.Errorf("--did is required, e.g. did:webvh:%s:example.com", webvh.SCIDPlaceholder)
			}

			ring := integrity.NewKeyRing()

			key, err := ring.Generate()
			if err != nil {
				return err
			}

			template := &diddoc.Doc{
				Context: []string{diddoc.ContextV1, diddoc.ContextMultikey},
				ID:      didID,
				VerificationMethod: []diddoc.VerificationMethod{{
					ID:                 didID + "#" + key,
					Type:               "Multikey",
					Controller:         didID,
					PublicKeyMultibase: key,
				}},
				Authentication:  []string{didID + "#" + key},
				AssertionMethod: []string{didID + "#" + key},
			}

			log, err := webvh.Create(&webvh.CreateInfo{
				Document:   template,
				UpdateKeys: []string{key},
				Signer:     ring,
				Portable:   portable,
			})
			if err != nil {
				return err
			}

			if err := writeLog(dir, log); err != nil {
				return err
			}

			if err := writeSecrets(dir, ring); err != nil {
				return err
			}

			cmd.Println(log.DID())

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the DID log")
	cmd.Flags().StringVar(&didID, "did", "", "DID template with the "+webvh.SCIDPlaceholder+" placeholder")
	cmd.Flags().BoolVar(&portable, "portable", false, "allow future migration to another host or path")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	var (
		dir     string
		docPath string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Append an entry replacing the DID document",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, ring, err := loadLogAndSecrets(dir)
			if err != nil {
				return err
			}

			info := &webvh.UpdateInfo{Signer: ring}

			if docPath != "" {
				data, err := os.ReadFile(filepath.Clean(docPath))
				if err != nil {
					return fmt.Errorf("read document: %w", err)
				}

				info.Document, err = diddoc.ParseDocument(data)
				if err != nil {
					return err
				}
			}

			entry, err := webvh.Update(log, info)
			if err != nil {
				return err
			}

			if err := writeLog(dir, log); err != nil {
				return err
			}

			cmd.Println(entry.VersionID)

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the DID log")
	cmd.Flags().StringVar(&docPath, "doc", "", "path of the replacement DID document")

	return cmd
}

func newDeactivateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Append the terminal entry of a DID log",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, ring, err := loadLogAndSecrets(dir)
			if err != nil {
				return err
			}

			entry, err := webvh.Deactivate(log, &webvh.DeactivateInfo{Signer: ring})
			if err != nil {
				return err
			}

			if err := writeLog(dir, log); err != nil {
				return err
			}

			cmd.Println(entry.VersionID)

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the DID log")

	return cmd
}

func newResolveCmd() *cobra.Command {
	var (
		versionID     string
		versionNumber int
		versionTime   string
		validate      bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <did>",
		Short: "Resolve a did:webvh identifier from the web",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []vdrapi.DIDMethodOption{vdrapi.WithOption(webvh.ContextOpt, context.Background())}

			if versionID != "" {
				opts = append(opts, vdrapi.WithOption(webvh.VersionIDOpt, versionID))
			}

			if versionNumber > 0 {
				opts = append(opts, vdrapi.WithOption(webvh.VersionNumberOpt, versionNumber))
			}

			if versionTime != "" {
				opts = append(opts, vdrapi.WithOption(webvh.VersionTimeOpt, versionTime))
			}

			resolution, err := webvh.New().Read(args[0], opts...)
			if err != nil {
				return err
			}

			if validate {
				docBytes, err := resolution.DIDDocument.JSONBytes()
				if err != nil {
					return err
				}

				if err := validator.ValidateJSONLD(docBytes); err != nil {
					return fmt.Errorf("document failed JSON-LD validation: %w", err)
				}
			}

			data, err := resolution.JSONBytes()
			if err != nil {
				return err
			}

			cmd.Println(string(data))

			return nil
		},
	}

	cmd.Flags().StringVar(&versionID, "version-id", "", "select an exact versionId")
	cmd.Flags().IntVar(&versionNumber, "version-number", 0, "select a version by number")
	cmd.Flags().StringVar(&versionTime, "version-time", "", "select the latest version at or before an RFC 3339 instant")
	cmd.Flags().BoolVar(&validate, "validate", false, "check the resolved document against its JSON-LD contexts")

	return cmd
}

// writeLog persists the log atomically: write to a unique temp file in
// the same directory, then rename over the target.
func writeLog(dir string, log *webvh.DIDLog) error {
	data, err := webvh.MarshalLog(log.Entries())
	if err != nil {
		return err
	}

	target := filepath.Join(dir, logFile)
	temp := target + ".tmp." + uuid.NewString()

	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return fmt.Errorf("write log: %w", err)
	}

	return os.Rename(temp, target)
}

func writeSecrets(dir string, ring *integrity.KeyRing) error {
	stored := secrets{}

	for _, keyID := range ring.KeyIDs() {
		priv, ok := ring.PrivateKey(keyID)
		if !ok {
			continue
		}

		stored[keyID] = base64.RawURLEncoding.EncodeToString(priv.Seed())
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, secretsFile), data, 0o600)
}

func loadLogAndSecrets(dir string) (*webvh.DIDLog, *integrity.KeyRing, error) {
	logData, err := os.ReadFile(filepath.Join(dir, logFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read log: %w", err)
	}

	entries, err := webvh.ParseLog(logData)
	if err != nil {
		return nil, nil, err
	}

	log := webvh.NewLog()
	if err := log.Load(entries); err != nil {
		return nil, nil, err
	}

	secretsData, err := os.ReadFile(filepath.Join(dir, secretsFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read secrets: %w", err)
	}

	stored := secrets{}
	if err := json.Unmarshal(secretsData, &stored); err != nil {
		return nil, nil, fmt.Errorf("parse secrets: %w", err)
	}

	ring := integrity.NewKeyRing()

	for _, encoded := range stored {
		seed, err := base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, nil, fmt.Errorf("decode secret: %w", err)
		}

		if len(seed) != ed25519.SeedSize {
			return nil, nil, fmt.Errorf("secret has unexpected seed size %d", len(seed))
		}

		if _, err := ring.Add(ed25519.NewKeyFromSeed(seed)); err != nil {
			return nil, nil, err
		}
	}

	return log, ring, nil
}
