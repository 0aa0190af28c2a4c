// Package checksum provides script content hashing with normalization support.
//
// The package implements a dual checksum strategy:
//
//   - Raw checksum: Hash of the exact script content (detects all changes)
//   - Normalized checksum: Hash after removing comments and normalizing whitespace
//     (enables formatting-independent content identity)
//
// # Normalization Strategy
//
// Normalization makes checksums resilient to formatting changes:
//  1. Convert content to lowercase
//  2. Remove T-SQL comments (single-line -- and multi-line /* */)
//  3. Collapse all whitespace sequences to single spaces
//  4. Trim leading/trailing whitespace
//
// Stage outcomes record the normalized checksum of the script they ran,
// so two clone runs can be compared by content even when the generated
// scripts differ only in comments or layout. Comment removal preserves
// string literals ('it''s'), bracket-delimited identifiers ([Order]),
// and double-quoted identifiers ("Order"), since comment-like text may
// legitimately appear inside any of them.
//
// # Example Usage
//
//	calculator := checksum.New()
//	rawChecksum := calculator.CalculateRaw(scriptContent)
//	normalizedChecksum := calculator.CalculateNormalized(scriptContent)
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
