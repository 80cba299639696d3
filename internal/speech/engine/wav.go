package engine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DecodeWAV reads a 16-bit mono WAV file and returns its raw PCM payload and
// sample rate. Anything else (stereo, other bit depths, non-WAV) is rejected;
// callers fall back to handing the file to the decoder untouched.
func DecodeWAV(path string) (pcm []byte, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode WAV: %w", err)
	}
	if dec.NumChans != 1 || dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("unsupported WAV layout: %d channels, %d bits", dec.NumChans, dec.BitDepth)
	}

	return samplesToPCM(buf), int(dec.SampleRate), nil
}

// samplesToPCM flattens decoded int samples into little-endian 16-bit PCM.
func samplesToPCM(buf *audio.IntBuffer) []byte {
	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
	}
	return pcm
}

// EncodeWAV wraps raw 16-bit little-endian mono PCM in a WAV container.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	var b bytes.Buffer
	b.Grow(44 + len(pcm))
	writeWAVHeader(&b, len(pcm), sampleRate)
	b.Write(pcm)
	return b.Bytes()
}

// writeWAVHeader writes a 44-byte WAV header for 16-bit mono PCM. Writes to
// a bytes.Buffer cannot fail, so errors are not surfaced.
func writeWAVHeader(w io.Writer, dataSize, sampleRate int) {
	byteRate := sampleRate * 2 // mono, 16-bit

	w.Write([]byte("RIFF"))
	binary.Write(w, binary.LittleEndian, uint32(36+dataSize))
	w.Write([]byte("WAVE"))

	w.Write([]byte("fmt "))
	binary.Write(w, binary.LittleEndian, uint32(16)) // sub-chunk size
	binary.Write(w, binary.LittleEndian, uint16(1))  // PCM format
	binary.Write(w, binary.LittleEndian, uint16(1))  // mono
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, uint32(byteRate))
	binary.Write(w, binary.LittleEndian, uint16(2))  // block align
	binary.Write(w, binary.LittleEndian, uint16(16)) // bits per sample

	w.Write([]byte("data"))
	binary.Write(w, binary.LittleEndian, uint32(dataSize))
}
