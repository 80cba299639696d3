package engine

import (
	"encoding/binary"
	"math"
)

// VADConfig holds voice activity detection parameters.
type VADConfig struct {
	EnergyThreshold float64 // RMS energy threshold for speech
	MinSilenceMs    int     // silences shorter than this are kept
	PaddingMs       int     // audio kept on each side of a speech run
	SampleRate      int     // audio sample rate in Hz
	FrameSizeMs     int     // analysis frame size in milliseconds
}

// DefaultVADConfig matches the decoder's documented silence filter: runs of
// silence longer than 500ms are removed.
func DefaultVADConfig(sampleRate int) VADConfig {
	return VADConfig{
		EnergyThreshold: 500,
		MinSilenceMs:    500,
		PaddingMs:       90,
		SampleRate:      sampleRate,
		FrameSizeMs:     30,
	}
}

// TrimSilence removes runs of silence longer than cfg.MinSilenceMs from
// 16-bit little-endian mono PCM, keeping cfg.PaddingMs of context around
// each speech run. Audio with no detectable speech is returned unchanged so
// the decoder, not the filter, decides what an empty result looks like.
func TrimSilence(pcm []byte, cfg VADConfig) []byte {
	frameBytes := cfg.SampleRate * cfg.FrameSizeMs / 1000 * 2
	if frameBytes <= 0 || len(pcm) < frameBytes {
		return pcm
	}

	numFrames := len(pcm) / frameBytes
	speech := make([]bool, numFrames)
	anySpeech := false
	for i := 0; i < numFrames; i++ {
		frame := pcm[i*frameBytes : (i+1)*frameBytes]
		if rmsEnergy(frame) >= cfg.EnergyThreshold {
			speech[i] = true
			anySpeech = true
		}
	}
	if !anySpeech {
		return pcm
	}

	// Short silences stay; only gaps of at least MinSilenceMs are dropped.
	minGapFrames := cfg.MinSilenceMs / cfg.FrameSizeMs
	padFrames := cfg.PaddingMs / cfg.FrameSizeMs
	keep := make([]bool, numFrames)
	copy(keep, speech)

	gapStart := -1
	closeGap := func(end int) {
		if end-gapStart < minGapFrames {
			for j := gapStart; j < end; j++ {
				keep[j] = true
			}
		} else {
			for j := gapStart; j < gapStart+padFrames && j < end; j++ {
				keep[j] = true
			}
			for j := end - padFrames; j >= gapStart && j < end; j++ {
				if j >= 0 {
					keep[j] = true
				}
			}
		}
		gapStart = -1
	}
	for i := 0; i < numFrames; i++ {
		switch {
		case !speech[i] && gapStart < 0:
			gapStart = i
		case speech[i] && gapStart >= 0:
			closeGap(i)
		}
	}
	// A gap running to the end of the audio still needs closing out.
	if gapStart >= 0 {
		closeGap(numFrames)
	}

	out := make([]byte, 0, len(pcm))
	for i := 0; i < numFrames; i++ {
		if keep[i] {
			out = append(out, pcm[i*frameBytes:(i+1)*frameBytes]...)
		}
	}
	// Trailing partial frame rides along with the final kept frame.
	if numFrames*frameBytes < len(pcm) && keep[numFrames-1] {
		out = append(out, pcm[numFrames*frameBytes:]...)
	}
	return out
}

// rmsEnergy computes the root-mean-square energy of 16-bit signed PCM audio.
func rmsEnergy(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}

	numSamples := len(pcm) / 2
	var sumSquares float64

	for i := 0; i < numSamples; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		sumSquares += float64(sample) * float64(sample)
	}

	return math.Sqrt(sumSquares / float64(numSamples))
}
