package extract

import (
	"testing"

	"github.com/metalagman/starsmith/internal/resume"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want resume.Category
	}{
		{
			name: "vision keyword",
			text: "I set a long-term vision for the patrol group.",
			want: resume.CategoryVision,
		},
		{
			name: "vision stem matches derived forms",
			text: "We introduced an innovative rostering approach.",
			want: resume.CategoryVision,
		},
		{
			name: "accountability keyword",
			text: "I took full accountability for the audit findings.",
			want: resume.CategoryAccountability,
		},
		{
			name: "accountability stem",
			text: "Maintaining transparency with the community was essential.",
			want: resume.CategoryAccountability,
		},
		{
			name: "vision wins the tie-break over accountability",
			text: "Our vision demanded accountability at every level.",
			want: resume.CategoryVision,
		},
		{
			name: "case-insensitive",
			text: "ACCOUNTABILITY was my focus.",
			want: resume.CategoryAccountability,
		},
		{
			name: "no keywords defaults to results",
			text: "Thefts dropped by a third within one quarter.",
			want: resume.CategoryResults,
		},
		{
			name: "empty text defaults to results",
			text: "",
			want: resume.CategoryResults,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.text); got != tc.want {
				t.Fatalf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
