// Package numeric converts between the ledger's 64-bit integer domain and
// SQLite's storage representation without precision loss.
//
// SQLite stores INTEGER-affinity columns as 8-byte signed integers, so an
// int64 bound through the driver round-trips exactly. Precision is lost only
// when a value passes through float64 on either side of the boundary: floats
// represent every integer only up to 2^53-1. This package is the single
// checked crossing point:
//
//   - Encode/Decode pin the int64 <-> driver contract.
//   - EncodeFloat and DecodeValue reject any float that cannot name an exact
//     integer, instead of silently rounding.
//   - CheckedAdd/CheckedMul perform 64-bit arithmetic with overflow detection
//     so increments never wrap.
//
// Values that cannot be represented fail with *OutOfRangeError. Nothing in
// this package clamps or truncates.
package numeric
