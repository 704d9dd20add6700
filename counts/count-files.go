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

package counts

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/exascience/eldge/internal"
)

// CountFileExts are the filename extensions recognized for per-sample
// count files.
var CountFileExts = []string{".counts", ".counts.txt", ".counts.tsv", ".tsv", ".txt"}

// SampleName derives the sample name from a count filename by
// stripping the recognized extensions.
func SampleName(filename string) string {
	name := filepath.Base(filename)
	for _, ext := range []string{".txt", ".tsv", ".counts"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func isCountFile(filename string) bool {
	for _, ext := range CountFileExts {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// ParseCountFile parses an htseq-count style two-column file of gene
// identifier and read count. Special counter rows such as
// __no_feature are skipped.
func ParseCountFile(filename string) (genes []string, values []float64) {
	file := internal.FileOpen(filename)
	defer internal.Close(file)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "__") {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) != 2 {
			log.Panicf("badly formatted count file %v - invalid number of columns", filename)
		}
		genes = append(genes, data[0])
		values = append(values, internal.ParseFloat(data[1], 64))
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	return genes, values
}

// MergeCountFiles merges the per-sample count files in a directory
// into a single count matrix. Sample columns are ordered
// alphabetically by sample name. All files must agree on the set of
// gene identifiers.
func MergeCountFiles(directory string) (*Matrix, error) {
	files, err := internal.Directory(directory)
	if err != nil {
		return nil, err
	}
	var countFiles []string
	for _, file := range files {
		if isCountFile(file) && file != SampleSheetFilename {
			countFiles = append(countFiles, file)
		}
	}
	if len(countFiles) == 0 {
		return nil, fmt.Errorf("no count files found in %v", directory)
	}
	sort.Strings(countFiles)

	var m *Matrix
	index := make(map[string]int)
	for j, file := range countFiles {
		genes, values := ParseCountFile(filepath.Join(directory, file))
		if m == nil {
			m = NewMatrix(genes, make([]string, len(countFiles)))
			for i, gene := range genes {
				if _, ok := index[gene]; ok {
					return nil, fmt.Errorf("duplicate gene %v in count file %v", gene, file)
				}
				index[gene] = i
			}
		} else if len(genes) != len(m.Genes) {
			return nil, fmt.Errorf("count file %v has %v genes, expected %v", file, len(genes), len(m.Genes))
		}
		m.Samples[j] = SampleName(file)
		for i, gene := range genes {
			row, ok := index[gene]
			if !ok {
				return nil, fmt.Errorf("unknown gene %v in count file %v", gene, file)
			}
			m.Counts[row][j] = values[i]
		}
	}
	return m, nil
}

// ParseMatrix parses a count matrix file: a header line with the
// gene column name followed by the sample names, then one row per
// gene.
func ParseMatrix(filename string) *Matrix {
	file := internal.FileOpen(filename)
	defer internal.Close(file)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	if !scanner.Scan() {
		log.Panicf("empty count matrix file %v", filename)
	}
	header := strings.Split(scanner.Text(), "\t")
	if len(header) < 2 {
		log.Panicf("badly formatted count matrix file %v - no sample columns", filename)
	}
	samples := header[1:]

	var genes []string
	var rows [][]float64
	seen := make(map[string]bool)
	for scanner.Scan() {
		data := strings.Split(scanner.Text(), "\t")
		if len(data) != len(samples)+1 {
			log.Panicf("badly formatted count matrix file %v - invalid number of columns for gene %v", filename, data[0])
		}
		if seen[data[0]] {
			log.Panicf("duplicate gene %v in count matrix file %v", data[0], filename)
		}
		seen[data[0]] = true
		row := make([]float64, len(samples))
		for j, field := range data[1:] {
			row[j] = internal.ParseFloat(field, 64)
		}
		genes = append(genes, data[0])
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	return &Matrix{Genes: genes, Samples: samples, Counts: rows}
}

// Format writes the count matrix in the format parsed by ParseMatrix.
func (m *Matrix) Format(w io.Writer) {
	out := bufio.NewWriter(w)
	fmt.Fprint(out, "gene")
	for _, sample := range m.Samples {
		fmt.Fprint(out, "\t", sample)
	}
	fmt.Fprintln(out)
	for i, gene := range m.Genes {
		fmt.Fprint(out, gene)
		for _, c := range m.Counts[i] {
			if c == float64(int64(c)) {
				fmt.Fprintf(out, "\t%d", int64(c))
			} else {
				fmt.Fprintf(out, "\t%g", c)
			}
		}
		fmt.Fprintln(out)
	}
	if err := out.Flush(); err != nil {
		log.Panic(err)
	}
}

// WriteMatrix writes the count matrix to a file.
func WriteMatrix(m *Matrix, filename string) {
	file := internal.FileCreate(filename)
	defer internal.Close(file)
	m.Format(file)
}

// SampleSheetFilename is the conventional name for the sample sheet
// in a dataset directory.
const SampleSheetFilename = "samples.tsv"

// ParseSampleSheet parses a two-column sample sheet of sample name
// and condition, with an optional header line.
func ParseSampleSheet(filename string) *SampleSheet {
	file := internal.FileOpen(filename)
	defer internal.Close(file)

	sheet := new(SampleSheet)
	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) < 2 {
			log.Panicf("badly formatted sample sheet %v - invalid number of columns", filename)
		}
		if first {
			first = false
			if strings.EqualFold(data[0], "sample") {
				continue
			}
		}
		sheet.Samples = append(sheet.Samples, data[0])
		sheet.Conditions = append(sheet.Conditions, data[1])
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	return sheet
}
