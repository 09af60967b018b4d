// Package timeframe encodes and decodes CODA time-frame events, the records
// exchanged between the stages of a streaming detector readout pipeline.
//
// An Event holds time slices, each a list of readout-controller banks, each
// a list of hits. Four wire formats are understood:
//
//	canonical     little-endian, column-major, no metadata (written by Encode)
//	canonical-be  the same layout in big-endian (read only)
//	legacy        "COTF" + version 1 + event metadata + length-prefixed columns
//	tagged        xMsg protobuf payload of named items
//
// Decode picks the decoder with Detect. All functions are safe for
// concurrent use; nothing in the package holds mutable state.
package timeframe
