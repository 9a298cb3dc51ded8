// Package conv provides checked integer conversions for values decoded from
// untrusted sheet data.
//
//	page, err := conv.Narrow[uint16](i)
//
// Conversions that are provably safe by construction use plain casts.
package conv
