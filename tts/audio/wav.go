// Package audio provides PCM format handling and WAV serialization for
// synthesized speech.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Format describes the PCM layout of synthesized audio.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns the vocoder's output format: mono 16-bit little
// endian PCM at 24 kHz.
func DefaultFormat() Format {
	return Format{SampleRate: 24000, Channels: 1, BitDepth: 16}
}

// BytesPerSample returns the size of one sample across all channels.
func (f Format) BytesPerSample() int {
	return f.BitDepth / 8 * f.Channels
}

func (f Format) byteRate() int {
	return f.SampleRate * f.BytesPerSample()
}

// Duration reports the playback time of dataLen bytes of PCM in this format.
func (f Format) Duration(dataLen int) time.Duration {
	rate := f.byteRate()
	if rate == 0 {
		return 0
	}
	return time.Duration(float64(dataLen) / float64(rate) * float64(time.Second))
}

// ErrWriterClosed is returned when writing to a finalized WAV writer.
var ErrWriterClosed = errors.New("wav writer is closed")

const headerSize = 44

// putHeader writes a complete RIFF/WAVE header for dataLen bytes of PCM
// into buf, which must be at least headerSize long.
func putHeader(buf []byte, f Format, dataLen uint32) {
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], headerSize-8+dataLen)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(f.byteRate()))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(f.BytesPerSample()))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.BitDepth))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataLen)
}

// WAVWriter serializes PCM frames into a RIFF/WAVE container. A placeholder
// header is written up front; Close seeks back and patches the chunk
// lengths, so the destination must support seeking.
type WAVWriter struct {
	w       io.WriteSeeker
	format  Format
	dataLen uint32
	closed  bool
}

// NewWAVWriter writes the initial header and returns a writer ready to
// accept PCM sample data.
func NewWAVWriter(w io.WriteSeeker, format Format) (*WAVWriter, error) {
	ww := &WAVWriter{w: w, format: format}
	if err := ww.writeHeader(); err != nil {
		return nil, fmt.Errorf("write wav header: %w", err)
	}
	return ww, nil
}

func (w *WAVWriter) writeHeader() error {
	var buf [headerSize]byte
	putHeader(buf[:], w.format, w.dataLen)
	_, err := w.w.Write(buf[:])
	return err
}

// Write appends PCM sample data to the data chunk.
func (w *WAVWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	n, err := w.w.Write(p)
	w.dataLen += uint32(n) //nolint:gosec
	return n, err
}

// DataLen reports the number of PCM bytes written so far.
func (w *WAVWriter) DataLen() int {
	return int(w.dataLen)
}

// Close finalizes the container by patching the RIFF and data chunk
// lengths. It does not close the underlying writer. Close is idempotent.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to wav header: %w", err)
	}
	if err := w.writeHeader(); err != nil {
		return fmt.Errorf("finalize wav header: %w", err)
	}
	return nil
}

// Encode serializes PCM segments, in order, into a complete in-memory WAV
// file. With no segments the result is a structurally valid zero-duration
// file.
func Encode(format Format, segments ...[]byte) []byte {
	total := 0
	for _, s := range segments {
		total += len(s)
	}
	buf := make([]byte, headerSize, headerSize+total)
	putHeader(buf, format, uint32(total)) //nolint:gosec
	for _, s := range segments {
		buf = append(buf, s...)
	}
	return buf
}
