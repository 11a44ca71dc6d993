// Package marshal defines the record format of the command stream.
//
// A batch is a sequence of 8-byte slots. Every record starts with a
// 4-byte header holding the command id and the record size in slots,
// followed by its payload. Records are self-describing: decoding one
// tells the reader exactly how many slots to skip to reach the next.
//
//	slot 0: | id uint16 | size uint16 | payload...
//	slot 1: | payload...
//
// All multi-byte values are little endian.
package marshal
