package v1

import "github.com/veribooks/books/internal/storage/memory"

// Compile-time interface assertion for the in-memory Store against the HTTP
// API's persistence surface.
var _ Store = (*memory.Store)(nil)
