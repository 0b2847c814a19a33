// Package object reads and writes object headers.
//
// Every group and dataset in a GCTX file owns an object header: a list of
// messages describing its shape, element type, storage and children.
//
// # Versions
//
//   - Version 1 headers appear in files written with the oldest format
//     (superblock v0/v1, as PyTables and older h5py builds produce). Messages
//     are 8-byte aligned and continuation blocks carry no signature.
//
//   - Version 2 headers start with "OHDR", use compact message prefixes
//     and end in a lookup3 checksum. Continuation blocks start with "OCHK".
//
// [Read] detects the version and follows continuation messages, so the
// returned [Header] holds the messages of every block in file order.
// [Encode] produces version 2 headers only.
//
// # Errors
//
//   - [ErrInvalidHeader]: no header at the given address
//   - [ErrUnsupportedVersion]: header version other than 1 or 2
//   - [ErrChecksumMismatch]: v2 header or continuation checksum mismatch
//   - [ErrMessageTooLarge]: a message body does not fit a v2 size field
package object
