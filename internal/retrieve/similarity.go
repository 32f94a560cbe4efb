// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import "strings"

// normalizeTitle lowercases a title, collapses whitespace, and strips every
// rune outside [a-z0-9 -:]. Hyphens and colons stay literal.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == ':':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// titleSimilarity returns a ratio in [0,1] between two normalized titles:
// 2*LCS(a,b) / (len(a)+len(b)). Identical titles score 1.0; disjoint ones 0.0.
func titleSimilarity(a, b string) float64 {
	na, nb := normalizeTitle(a), normalizeTitle(b)
	if na == nb {
		if na == "" {
			return 0.0
		}
		return 1.0
	}
	la, lb := len(na), len(nb)
	if la == 0 || lb == 0 {
		return 0.0
	}

	// Longest common subsequence over bytes; titles are ASCII after
	// normalization. Rolling single-row DP keeps this O(min) memory.
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			if na[i-1] == nb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[lb]
	return 2.0 * float64(lcs) / float64(la+lb)
}
