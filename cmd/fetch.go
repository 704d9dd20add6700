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

package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/exascience/eldge/geo"
)

// FetchHelp is the help string for this command.
const FetchHelp = "Fetch parameters:\n" +
	"eldge fetch url /path/to/data/\n" +
	"[--sha256 checksum]\n" +
	"[--timeout seconds]\n" +
	"[--log-path path]\n"

// Fetch implements the eldge fetch command.
func Fetch() error {
	var (
		sha256hex, logPath string
		timeout            int
	)

	var flags flag.FlagSet

	flags.StringVar(&sha256hex, "sha256", "", "expected SHA-256 checksum of the archive")
	flags.IntVar(&timeout, "timeout", 900, "download timeout in seconds")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 4, FetchHelp)

	url := os.Args[2]
	output := getFilename(os.Args[3], FetchHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !strings.Contains(url, "://") {
		log.Printf("Error: Invalid download url %v.\n", url)
		sanityChecksFailed = true
	}

	if timeout <= 0 {
		log.Println("Error: Invalid timeout: ", timeout)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, FetchHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " fetch ", url, " ", output)
	if sha256hex != "" {
		fmt.Fprint(&command, " --sha256 ", sha256hex)
	}
	fmt.Fprint(&command, " --timeout ", timeout)
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	return geo.Fetch(ctx, url, output, sha256hex)
}
