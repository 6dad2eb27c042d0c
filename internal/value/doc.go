// Package value provides the in-memory representation of stored documents.
//
// A document is any JSON value. Value is a sealed interface; only Null, Bool,
// Int, Float, String, Array and Object implement it. Every other internal
// package imports value; value imports nothing internal.
//
// Number handling:
//   - JSON numbers without fraction or exponent that fit in int64 decode to Int.
//     Everything else decodes to Float.
//   - Float values with an integral value are encoded without a fraction
//     (Float(5) encodes as 5) and therefore decode back as Int.
//   - Equal compares Int and Float numerically, so documents stay equal across
//     an encode/decode round trip.
//   - NaN and infinities cannot be encoded and fail with ErrInvalidDocument.
//
// Encoding is canonical: object keys are written in RFC 8785 order (UTF-16
// code units), HTML characters and non-ASCII text are written literally.
package value
