// Package fits reads and writes the FITS (Flexible Image Transport System)
// container format used to exchange astronomical images and tables. It is
// written in pure Go and is not a wrapper around another library or a direct
// translation of one.
//
// FITS files are a sequence of Header/Data Units (HDUs): an 80-byte-card
// header followed by a big-endian binary data region, everything padded to
// 2880-byte blocks. This package parses a byte slice into an ordered []*HDU,
// exposes typed access to each HDU's header cards, image pixels, and table
// columns, and serializes a []*HDU back to bytes.
//
// The package touches no filesystem, network, or OS clock: every entry
// point consumes and produces in-memory byte slices so that it can run
// wherever a []byte can be produced, including with no operating-system
// services at all.
//
// A minimal round trip:
//
//	file, err := fits.Parse(raw)
//	img, err := fits.ReadImage(file.HDUs[0], raw, fits.DefaultOptions())
//	out, err := file.Serialize(raw)
//
// This is based on version 3.0 of the FITS standard:
//
//	Pence W.D., Chiappetti L., Page C. G., Shaw R. A., Stobie E. Definition
//	of the Flexible Image Transport System (FITS), version 3.0. A&A 524,
//	A42 (2010).
package fits
