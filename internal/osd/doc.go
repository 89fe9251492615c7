// Package osd reads and writes the binary OSD log that accompanies a DVR
// recording.
//
// A log is a fixed 22-byte header followed by frame records until EOF. All
// integers are little-endian.
//
//	Header
//	  magic        7 bytes   "MSPOSD\x00"
//	  version      uint16    3
//	  charWidth    uint8     grid columns of the first frame
//	  charHeight   uint8     grid rows of the first frame
//	  fontWidth    uint8     see HeaderFor
//	  fontHeight   uint8
//	  xOffset      uint16
//	  yOffset      uint16
//	  fontVariant  5 bytes   "DJO3\x00"
//
//	Frame record
//	  delta_time   float64   seconds since the start of capture
//	  frame_size   uint32    number of payload bytes (width*height)
//	  payload      frame_size bytes, row-major cell values
//
// The header is sized once per log from the first frame; later frames carry
// their own frame_size and are never re-headed. Width and height are single
// bytes, so neither may exceed MaxGridSide.
//
// The Decoder also reads two older layouts; Encoder never writes them.
//
//	Version 2 (same 22-byte header, version 2)
//	  frame_number uint32
//	  frame_size   uint32    number of cells
//	  cells        frame_size uint16, column-major over charHeight rows
//
//	DJO3 (40-byte header: 4-byte firmware tag, 32 bytes, "DJO3")
//	  delta_ms     uint32    milliseconds since the start of capture
//	  cells        1060 uint16, a row-major 53x20 grid
//
// Legacy cells are returned row-major in Record.Wide. Version 2 deltas are
// derived from frame_number and the decoder's frame rate.
package osd
