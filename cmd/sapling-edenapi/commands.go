// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

func (a *app) locationToHashCommand(ctx context.Context) *command {
	var (
		conn  connection
		count uint64
	)
	return &command{
		name:    "location-to-hash",
		summary: "Resolve commit graph locations to hashes",
		description: `Resolve each LOCATION to the hashes of COUNT consecutive first-parent
ancestors. A location is a descendant commit hash, optionally followed
by "~" and a distance: abc123...~2 is the grandparent of abc123...

Each output line is the location followed by the resolved hashes,
nearest first.`,
		usage: "sapling-edenapi location-to-hash [flags] LOCATION...",
		examples: []example{{
			description: "The parent and grandparent of a commit",
			command:     "sapling-edenapi location-to-hash -R fbsource --count 2 0123456789abcdef0123456789abcdef01234567~1",
		}},
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("location-to-hash", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.Uint64Var(&count, "count", 1, "number of hashes to return per location")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one location is required")
			}
			requests := make([]edenapi.CommitLocationToHashRequest, 0, len(args))
			for _, arg := range args {
				location, err := parseLocation(arg)
				if err != nil {
					return err
				}
				requests = append(requests, edenapi.CommitLocationToHashRequest{Location: location, Count: count})
			}

			c, ctx, cancel, err := a.open(ctx, &conn)
			if err != nil {
				return err
			}
			defer cancel()
			for response, err := range c.locationToHash(ctx, requests) {
				if err != nil {
					return err
				}
				hashes := make([]string, len(response.HgIDs))
				for i, id := range response.HgIDs {
					hashes[i] = id.String()
				}
				fmt.Fprintf(a.stdout, "%s~%d\t%s\n",
					response.Location.Descendant, response.Location.Distance, strings.Join(hashes, " "))
			}
			return nil
		},
	}
}

// parseLocation parses "HGID" or "HGID~DISTANCE".
func parseLocation(arg string) (edenapi.CommitLocation, error) {
	hash, distanceText, hasDistance := strings.Cut(arg, "~")
	id, err := edenapi.ParseHgID(hash)
	if err != nil {
		return edenapi.CommitLocation{}, err
	}
	location := edenapi.CommitLocation{Descendant: id}
	if hasDistance {
		location.Distance, err = strconv.ParseUint(distanceText, 10, 64)
		if err != nil {
			return edenapi.CommitLocation{}, fmt.Errorf("location %q: invalid distance %q", arg, distanceText)
		}
	}
	return location, nil
}

func (a *app) revlogDataCommand(ctx context.Context) *command {
	var (
		conn connection
		raw  bool
	)
	return &command{
		name:    "revlog-data",
		summary: "Fetch raw changeset revlog data",
		usage:   "sapling-edenapi revlog-data [flags] HGID...",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("revlog-data", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.BoolVar(&raw, "raw", false, "write the revlog bytes to stdout instead of a summary")
			return flagSet
		},
		run: func(args []string) error {
			ids, err := parseHgIDs(args)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := a.open(ctx, &conn)
			if err != nil {
				return err
			}
			defer cancel()
			for data, err := range c.revlogData(ctx, ids) {
				if err != nil {
					return err
				}
				if raw {
					if _, err := a.stdout.Write(data.RevlogData); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(a.stdout, "%s\t%d bytes\n", data.HgID, len(data.RevlogData))
			}
			return nil
		},
	}
}

func parseHgIDs(args []string) ([]edenapi.HgID, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one hash is required")
	}
	ids := make([]edenapi.HgID, 0, len(args))
	for _, arg := range args {
		id, err := edenapi.ParseHgID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *app) filesCommand(ctx context.Context) *command {
	var (
		conn      connection
		noContent bool
		cat       bool
	)
	return &command{
		name:    "files",
		summary: "Fetch file entries by path and filenode hash",
		description: `Fetch the file entry for each KEY, written PATH@HGID. Each output line
is the filenode hash, the path, the parents, and the content size when
content was requested.`,
		usage: "sapling-edenapi files [flags] PATH@HGID...",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("files", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.BoolVar(&noContent, "no-content", false, "fetch parents only, without content")
			flagSet.BoolVar(&cat, "cat", false, "write each file blob to stdout instead of a summary")
			return flagSet
		},
		run: func(args []string) error {
			if noContent && cat {
				return fmt.Errorf("--cat and --no-content are mutually exclusive")
			}
			if len(args) == 0 {
				return fmt.Errorf("at least one key is required")
			}
			var request edenapi.FileRequest
			for _, arg := range args {
				key, err := parseKey(arg)
				if err != nil {
					return err
				}
				request.Reqs = append(request.Reqs, edenapi.FileSpec{
					Key:   key,
					Attrs: edenapi.FileAttributes{Content: !noContent},
				})
			}

			c, ctx, cancel, err := a.open(ctx, &conn)
			if err != nil {
				return err
			}
			defer cancel()
			for entry, err := range c.files(ctx, request) {
				if err != nil {
					return err
				}
				if cat {
					if entry.Content == nil {
						return fmt.Errorf("service returned no content for %s@%s", entry.Key.Path, entry.Key.HgID)
					}
					if _, err := a.stdout.Write(entry.Content.HgFileBlob); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(a.stdout, formatFileEntry(entry))
			}
			return nil
		},
	}
}

// parseKey parses PATH@HGID. The hash follows the last "@" so paths
// may contain "@".
func parseKey(arg string) (edenapi.Key, error) {
	index := strings.LastIndexByte(arg, '@')
	if index <= 0 {
		return edenapi.Key{}, fmt.Errorf("key %q: want PATH@HGID", arg)
	}
	id, err := edenapi.ParseHgID(arg[index+1:])
	if err != nil {
		return edenapi.Key{}, fmt.Errorf("key %q: %w", arg, err)
	}
	return edenapi.Key{Path: arg[:index], HgID: id}, nil
}

func formatFileEntry(entry edenapi.FileEntry) string {
	var line strings.Builder
	fmt.Fprintf(&line, "%s\t%s\tp1=%s p2=%s", entry.Key.HgID, entry.Key.Path, entry.Parents.P1, entry.Parents.P2)
	if entry.Content != nil {
		if size := entry.Content.Metadata.Size; size != nil {
			fmt.Fprintf(&line, " size=%d", *size)
		}
		if flags := entry.Content.Metadata.Flags; flags != nil {
			fmt.Fprintf(&line, " flags=%d", *flags)
		}
	}
	return line.String()
}

func (a *app) uploadCommand(ctx context.Context) *command {
	var (
		conn     connection
		p1, p2   string
		bubbleID uint64
	)
	return &command{
		name:    "upload",
		summary: "Upload local files as new filenodes",
		description: `Upload the content of each local FILE, then record a filenode for it
with the given parents. Prints the new filenode hash for each file in
argument order.`,
		usage: "sapling-edenapi upload [flags] FILE...",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("upload", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&p1, "p1", "", "first parent filenode hash")
			flagSet.StringVar(&p2, "p2", "", "second parent filenode hash")
			flagSet.Uint64Var(&bubbleID, "bubble", 0, "commit bubble the upload belongs to")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one file is required")
			}
			parents, err := parseParents(p1, p2)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := a.open(ctx, &conn)
			if err != nil {
				return err
			}
			defer cancel()

			requests := make([]edenapi.UploadHgFilenodeRequest, 0, len(args))
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				token, err := c.uploadContent(ctx, content, bubbleID)
				if err != nil {
					return fmt.Errorf("uploading %s: %w", path, err)
				}
				requests = append(requests, edenapi.UploadHgFilenodeRequest{Data: edenapi.HgFilenodeData{
					NodeID:                 edenapi.FilenodeID(parents, content),
					Parents:                parents,
					FileContentUploadToken: token,
				}})
			}

			nodes := make([]string, len(requests))
			for response, err := range c.uploadFilenodes(ctx, requests) {
				if err != nil {
					return err
				}
				if response.Index < 0 || response.Index >= len(requests) {
					return fmt.Errorf("service answered for unknown filenode index %d", response.Index)
				}
				nodes[response.Index] = requests[response.Index].Data.NodeID.String()
			}
			for i, path := range args {
				if nodes[i] == "" {
					return fmt.Errorf("service did not confirm %s", path)
				}
				fmt.Fprintf(a.stdout, "%s\t%s\n", nodes[i], path)
			}
			return nil
		},
	}
}

func parseParents(p1, p2 string) (edenapi.Parents, error) {
	var ids [2]edenapi.HgID
	for i, text := range []string{p1, p2} {
		if text == "" {
			continue
		}
		id, err := edenapi.ParseHgID(text)
		if err != nil {
			return edenapi.Parents{}, err
		}
		ids[i] = id
	}
	return edenapi.NewParents(ids[0], ids[1]), nil
}
