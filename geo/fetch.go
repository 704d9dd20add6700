// elDGE: a tool for differential gene expression and enrichment
// reports for RNA-seq count data.
// Copyright (c) 2021-2023 imec vzw.

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

// Package geo downloads and unpacks public expression dataset
// archives: a tar.gz of per-sample count files plus a sample sheet.
package geo

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Download fetches the archive at the given URL into the destination
// directory and returns the path of the downloaded file. An existing
// file of the same name is overwritten.
func Download(ctx context.Context, archiveURL, destination string) (string, error) {
	parsed, err := url.Parse(archiveURL)
	if err != nil {
		return "", err
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("cannot derive a filename from %v", archiveURL)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return "", err
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %v failed with status %v", archiveURL, response.Status)
	}

	if err := os.MkdirAll(destination, 0700); err != nil {
		return "", err
	}
	target := filepath.Join(destination, name)
	file, err := os.Create(target)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(file, response.Body)
	if nerr := file.Close(); err == nil {
		err = nerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}
	log.Printf("Downloaded %v (%v bytes).\n", name, written)
	return target, nil
}

// VerifySHA256 checks the file against the expected hex digest.
func VerifySHA256(filename, expected string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	digest := sha256.New()
	if _, err := io.Copy(digest, file); err != nil {
		return err
	}
	actual := hex.EncodeToString(digest.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for %v: got %v, expected %v", filename, actual, expected)
	}
	return nil
}

// Unpack extracts a tar.gz archive into the destination directory.
// Entries that would escape the destination are rejected.
func Unpack(archive, destination string) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	uncompressed, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer uncompressed.Close()

	reader := tar.NewReader(uncompressed)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		name := filepath.Clean(header.Name)
		if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
			return fmt.Errorf("archive %v contains an unsafe path %v", archive, header.Name)
		}
		target := filepath.Join(destination, name)
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			_, err = io.Copy(out, reader)
			if nerr := out.Close(); err == nil {
				err = nerr
			}
			if err != nil {
				return err
			}
		default:
			// symlinks and other special entries are skipped
			log.Printf("Skipping archive entry %v with unsupported type.\n", header.Name)
		}
	}
}

// Fetch downloads the archive, optionally verifies its checksum, and
// unpacks it when it is a tar.gz archive. Plain files are left as
// downloaded.
func Fetch(ctx context.Context, archiveURL, destination, sha256hex string) error {
	archive, err := Download(ctx, archiveURL, destination)
	if err != nil {
		return err
	}
	if sha256hex != "" {
		if err := VerifySHA256(archive, sha256hex); err != nil {
			return err
		}
	}
	if strings.HasSuffix(archive, ".tar.gz") || strings.HasSuffix(archive, ".tgz") {
		if err := Unpack(archive, destination); err != nil {
			return err
		}
	}
	return nil
}
