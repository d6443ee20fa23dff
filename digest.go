package main

import (
	"github.com/pingcap/tidb/pkg/parser"
)

// sqlDigest normalizes a statement (literals replaced, whitespace folded)
// and returns the digest of the normalized text, so statements differing
// only in parameters share a digest.
func sqlDigest(statement string) string {
	normalized := parser.Normalize(statement)
	return parser.DigestNormalized(normalized).String()
}

// StatementCatalog lists the distinct statements of a run with their digests.
func StatementCatalog(s *Summaries) []StatementInfo {
	out := make([]StatementInfo, 0, len(s.Order))
	for _, hash := range s.Order {
		info := *s.Statements[hash]
		info.Digest = sqlDigest(info.Text)
		out = append(out, info)
	}
	return out
}
