package catalog

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func categoryNames(categories map[string][]Tool) map[string][]string {
	out := make(map[string][]string, len(categories))
	for label, tools := range categories {
		out[label] = toolNames(tools)
	}
	return out
}

func TestCategorize_Rules(t *testing.T) {
	tests := []struct {
		name string
		tool Tool
		want string
	}{
		{"qc in name", Tool{ToolName: "MultiQC", Description: "aggregate reports"}, CategoryQualityControl},
		{"quality in description", Tool{ToolName: "FastQC", Description: "Quality control tool"}, CategoryQualityControl},
		{"name-only qc match", Tool{ToolName: "qc-lite", Description: "read trimming"}, CategoryQualityControl},
		{"align", Tool{ToolName: "BWA", Description: "Sequence alignment tool"}, CategoryAlignment},
		{"mapping", Tool{ToolName: "minimap2", Description: "Long-read MAPPING"}, CategoryAlignment},
		{"assembl", Tool{ToolName: "SPAdes", Description: "Genome assembler"}, CategoryAssembly},
		{"annotation", Tool{ToolName: "Prokka", Description: "Rapid prokaryotic genome annotation"}, CategoryAnnotation},
		{"classification", Tool{ToolName: "Kraken2", Description: "k-mer based classification"}, CategoryClassification},
		{"taxonomic", Tool{ToolName: "MetaPhlAn", Description: "Taxonomic profiling"}, CategoryClassification},
		{"visualization", Tool{ToolName: "IGV", Description: "Genome visualization"}, CategoryVisualization},
		{"other", Tool{ToolName: "samtools", Description: "Utilities for SAM files"}, CategoryOther},
		{"empty", Tool{}, CategoryOther},
		{"align only checked in description", Tool{ToolName: "aligner", Description: "does things"}, CategoryOther},
		{"quality beats assembly", Tool{ToolName: "Pipeline", Description: "De novo genome assembly and quality control pipeline"}, CategoryQualityControl},
		{"alignment beats annotation", Tool{ToolName: "X", Description: "alignment with annotation"}, CategoryAlignment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.tool); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCatalog_CategoriesMixedLibrary(t *testing.T) {
	src := &stubSource{tools: []Tool{
		{ToolName: "FastQC", Description: "Quality control tool"},
		{ToolName: "BWA", Description: "Sequence alignment tool"},
	}}
	c, _ := newTestCatalog(t, src)
	c.Initialize(context.Background())

	want := map[string][]string{
		CategoryQualityControl: {"FastQC"},
		CategoryAlignment:      {"BWA"},
	}
	if diff := cmp.Diff(want, categoryNames(c.Categories())); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_CategoriesIsPartition(t *testing.T) {
	tools := []Tool{
		{ToolName: "FastQC", Description: "Quality control tool"},
		{ToolName: "Bowtie2", Description: "short read aligner"},
		{ToolName: "SPAdes", Description: "assembler"},
		{ToolName: "Trimmomatic", Description: "adapter trimming"},
		{ToolName: "Prokka", Description: "annotation"},
		{ToolName: "BWA", Description: "Sequence alignment tool"},
		{ToolName: "samtools", Description: "utilities"},
	}
	c, _ := newTestCatalog(t, &stubSource{tools: tools})
	c.Initialize(context.Background())

	categories := c.Categories()

	seen := make(map[string]string)
	total := 0
	for label, bucket := range categories {
		if len(bucket) == 0 {
			t.Fatalf("category %q present with empty bucket", label)
		}
		for _, tool := range bucket {
			if prev, dup := seen[tool.ToolName]; dup {
				t.Fatalf("tool %s in both %q and %q", tool.ToolName, prev, label)
			}
			seen[tool.ToolName] = label
			if want := Categorize(tool); want != label {
				t.Fatalf("tool %s bucketed as %q, rule says %q", tool.ToolName, label, want)
			}
			total++
		}
	}
	if total != len(tools) {
		t.Fatalf("expected %d tools across buckets, got %d", len(tools), total)
	}

	want := map[string][]string{
		CategoryQualityControl: {"FastQC"},
		CategoryAlignment:      {"Bowtie2", "BWA"},
		CategoryAssembly:       {"SPAdes"},
		CategoryAnnotation:     {"Prokka"},
		CategoryOther:          {"Trimmomatic", "samtools"},
	}
	if diff := cmp.Diff(want, categoryNames(categories)); diff != "" {
		t.Fatalf("bucket order mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_CategoriesEmpty(t *testing.T) {
	c, _ := newTestCatalog(t, &stubSource{})
	if got := c.Categories(); len(got) != 0 {
		t.Fatalf("expected no categories, got %v", got)
	}
}

func TestCategoryOrderCoversAllRules(t *testing.T) {
	if len(CategoryOrder) != len(categoryRules)+1 {
		t.Fatalf("expected %d labels, got %d", len(categoryRules)+1, len(CategoryOrder))
	}
	for i, rule := range categoryRules {
		if CategoryOrder[i] != rule.category {
			t.Fatalf("position %d: expected %q, got %q", i, rule.category, CategoryOrder[i])
		}
	}
	if CategoryOrder[len(CategoryOrder)-1] != CategoryOther {
		t.Fatal("expected Other to be last")
	}
}
