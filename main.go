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

// elDGE turns a public RNA-seq count dataset into a differential
// gene expression and pathway enrichment report.
//
// Please see https://github.com/exascience/eldge for a documentation
// of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/eldge/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: run, report")
	fmt.Fprint(os.Stderr, "\n", cmd.RunHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ReportHelp)
}

func printExtendedHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: run, fetch, count-matrix, dge, enrich, gsea, report")
	fmt.Fprint(os.Stderr, "\n", cmd.RunHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FetchHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.CountMatrixHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.DGEHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.EnrichHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.GseaHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ReportHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = cmd.Run()
	case "fetch":
		err = cmd.Fetch()
	case "count-matrix":
		err = cmd.CountMatrix()
	case "dge":
		err = cmd.DGE()
	case "enrich":
		err = cmd.Enrich()
	case "gsea":
		err = cmd.Gsea()
	case "report":
		err = cmd.Report()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	case "help-extended", "-help-extended", "--help-extended", "-he", "--he":
		printExtendedHelp()
	default:
		log.Println("Unknown command: ", os.Args[1])
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
