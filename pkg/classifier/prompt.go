package classifier

import (
	"fmt"
	"strings"

	"github.com/fika/fika-prep/pkg/taxonomy"
)

// BuildPrompt renders the single request sent for one batch: the bucket guide,
// the worked examples and the numbered labels, followed by the output contract.
func BuildPrompt(tax taxonomy.Taxonomy, labels []taxonomy.Label) string {
	var b strings.Builder

	b.WriteString("Classify each Google Places category label into zero or more tourism buckets.\n\n")

	b.WriteString("BUCKETS:\n")
	for _, bucket := range tax.Guide() {
		fmt.Fprintf(&b, "%s: %s\n", bucket.Key, bucket.Description)
	}

	b.WriteString("\nEXAMPLES:\n")
	for _, ex := range tax.Examples() {
		fmt.Fprintf(&b, "%s -> %s\n", ex.Label, formatBuckets(ex.Buckets))
	}

	b.WriteString("\nLABELS TO CLASSIFY:\n")
	for i, label := range labels {
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
	}

	b.WriteString("\nReturn ONLY valid JSON in this exact format (no markdown, no explanations):\n")
	b.WriteString(`{"results": [{"label": "example", "buckets": ["meal"]}, ...]}`)

	return b.String()
}

func formatBuckets(keys []taxonomy.BucketKey) string {
	if len(keys) == 0 {
		return "NONE"
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}
