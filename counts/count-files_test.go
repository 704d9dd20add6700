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
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filename, []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
}

func TestParseCountFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "s1.counts.txt")
	writeFile(t, filename, "NOTCH1\t120\nMYC\t45\n__no_feature\t999\n__ambiguous\t10\n")
	genes, values := ParseCountFile(filename)
	if len(genes) != 2 || genes[0] != "NOTCH1" || genes[1] != "MYC" {
		t.Error("ParseCountFile genes failed: ", genes)
	}
	if values[0] != 120 || values[1] != 45 {
		t.Error("ParseCountFile values failed: ", values)
	}
}

func TestMergeCountFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.counts.txt"), "NOTCH1\t10\nMYC\t20\n")
	writeFile(t, filepath.Join(dir, "a.counts.txt"), "NOTCH1\t1\nMYC\t2\n")
	writeFile(t, filepath.Join(dir, SampleSheetFilename), "sample\tcondition\na\tcontrol\nb\ttreated\n")

	m, err := MergeCountFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Samples) != 2 || m.Samples[0] != "a" || m.Samples[1] != "b" {
		t.Error("MergeCountFiles sample order failed: ", m.Samples)
	}
	if m.Counts[0][0] != 1 || m.Counts[0][1] != 10 {
		t.Error("MergeCountFiles counts failed: ", m.Counts)
	}
}

func TestMergeCountFilesDisagreeingGenes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.counts.txt"), "NOTCH1\t1\nMYC\t2\n")
	writeFile(t, filepath.Join(dir, "b.counts.txt"), "NOTCH1\t10\n")
	if _, err := MergeCountFiles(dir); err == nil {
		t.Error("MergeCountFiles should fail on disagreeing gene lists")
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "matrix.tsv")
	m := testMatrix()
	WriteMatrix(m, filename)
	parsed := ParseMatrix(filename)
	if len(parsed.Genes) != len(m.Genes) || len(parsed.Samples) != len(m.Samples) {
		t.Fatal("matrix round trip changed dimensions")
	}
	for i := range m.Genes {
		if parsed.Genes[i] != m.Genes[i] {
			t.Error("matrix round trip changed genes")
		}
		for j := range m.Samples {
			if parsed.Counts[i][j] != m.Counts[i][j] {
				t.Error("matrix round trip changed counts")
			}
		}
	}
}

func TestParseSampleSheet(t *testing.T) {
	filename := filepath.Join(t.TempDir(), SampleSheetFilename)
	writeFile(t, filename, "sample\tcondition\n# a comment\ns1\tcontrol\ns2\ttreated\n")
	sheet := ParseSampleSheet(filename)
	if len(sheet.Samples) != 2 || sheet.Samples[0] != "s1" || sheet.Conditions[1] != "treated" {
		t.Error("ParseSampleSheet failed: ", sheet)
	}
}

func TestParseSampleSheetWithoutHeader(t *testing.T) {
	filename := filepath.Join(t.TempDir(), SampleSheetFilename)
	writeFile(t, filename, "s1\tcontrol\ns2\ttreated\n")
	sheet := ParseSampleSheet(filename)
	if len(sheet.Samples) != 2 || sheet.Samples[0] != "s1" {
		t.Error("ParseSampleSheet without header failed: ", sheet)
	}
}
