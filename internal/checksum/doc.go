// Package checksum hashes payloads, writes "<algorithm>:<hex>" sidecars, and
// keeps one checksum record per submission byte range.
package checksum
