// Package cache stores synthesized line audio so that a line heard once is
// not synthesized again. It has an in-memory LRU tier (L1) and a persistent,
// zstd-compressed disk tier (L2) with TTL cleanup.
package cache
