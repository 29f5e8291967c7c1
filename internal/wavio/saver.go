package wavio

import (
	"fmt"
	"math"
	"os"

	"github.com/reftone/refmaster/dsp/dither"
	"github.com/reftone/refmaster/mastering"
)

// Saver implements mastering.Saver by encoding a stereo PCM buffer as
// a canonical RIFF/WAVE file. PCM16 and PCM24 outputs are dithered
// with a triangular-PDF quantizer (see dsp/dither); Float32 output is
// written as IEEE float samples with no quantization step.
type Saver struct {
	// DitherType overrides the default triangular dither. The zero
	// value selects dither.DitherTriangular.
	DitherType dither.DitherType
}

// Save writes pcm to path at sampleRate in the requested bitDepth.
func (s Saver) Save(path string, pcm mastering.Stereo, sampleRate float64, bitDepth mastering.BitDepth) error {
	n := pcm.Len()
	if n == 0 {
		return fmt.Errorf("wavio: save %s: empty stereo buffer", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	format, err := formatFor(bitDepth, sampleRate)
	if err != nil {
		return err
	}

	bps := bytesPerSample(format)
	dataSize := uint32(n * 2 * bps)

	const riffSizeBeforeData = 4 + 8 + fmtChunkSize + 8 // "WAVE" + fmt chunk + data chunk header

	if err := writeRIFFHeader(f, riffSizeBeforeData+dataSize); err != nil {
		return err
	}

	if err := writeFmtChunk(f, format); err != nil {
		return err
	}

	if err := writeDataChunkHeader(f, dataSize); err != nil {
		return err
	}

	return s.writeFrames(f, pcm, format, bps, sampleRate)
}

func formatFor(bitDepth mastering.BitDepth, sampleRate float64) (wavFormat, error) {
	switch bitDepth {
	case mastering.BitDepthPCM16:
		return wavFormat{audioFormat: formatPCM, numChannels: 2, sampleRate: uint32(sampleRate), bitsPerSample: 16}, nil
	case mastering.BitDepthPCM24:
		return wavFormat{audioFormat: formatPCM, numChannels: 2, sampleRate: uint32(sampleRate), bitsPerSample: 24}, nil
	case mastering.BitDepthFloat32:
		return wavFormat{audioFormat: formatIEEEFloat, numChannels: 2, sampleRate: uint32(sampleRate), bitsPerSample: 32}, nil
	default:
		return wavFormat{}, fmt.Errorf("wavio: unknown bit depth %d", bitDepth)
	}
}

func (s Saver) writeFrames(w *os.File, pcm mastering.Stereo, format wavFormat, bps int, sampleRate float64) error {
	if format.audioFormat == formatIEEEFloat {
		return writeFloatFrames(w, pcm)
	}

	ditherType := s.DitherType
	if ditherType == dither.DitherNone && format.bitsPerSample != 0 {
		ditherType = dither.DitherTriangular
	}

	qL, err := dither.NewQuantizer(sampleRate, dither.WithBitDepth(int(format.bitsPerSample)), dither.WithDitherType(ditherType))
	if err != nil {
		return fmt.Errorf("wavio: left quantizer: %w", err)
	}

	qR, err := dither.NewQuantizer(sampleRate, dither.WithBitDepth(int(format.bitsPerSample)), dither.WithDitherType(ditherType))
	if err != nil {
		return fmt.Errorf("wavio: right quantizer: %w", err)
	}

	frame := make([]byte, 2*bps)

	for i := 0; i < pcm.Len(); i++ {
		encodeInteger(frame[0:bps], qL.ProcessInteger(pcm.L[i]), bps)
		encodeInteger(frame[bps:2*bps], qR.ProcessInteger(pcm.R[i]), bps)

		if _, err := w.Write(frame); err != nil {
			return err
		}
	}

	return nil
}

func writeFloatFrames(w *os.File, pcm mastering.Stereo) error {
	frame := make([]byte, 8)

	for i := 0; i < pcm.Len(); i++ {
		putFloat32LE(frame[0:4], float32(pcm.L[i]))
		putFloat32LE(frame[4:8], float32(pcm.R[i]))

		if _, err := w.Write(frame); err != nil {
			return err
		}
	}

	return nil
}

func encodeInteger(dst []byte, v, bps int) {
	switch bps {
	case 2:
		u := uint16(int16(v))
		dst[0] = byte(u)
		dst[1] = byte(u >> 8)

	case 3:
		u := uint32(v) & 0xFFFFFF
		dst[0] = byte(u)
		dst[1] = byte(u >> 8)
		dst[2] = byte(u >> 16)

	case 4:
		u := uint32(int32(v))
		dst[0] = byte(u)
		dst[1] = byte(u >> 8)
		dst[2] = byte(u >> 16)
		dst[3] = byte(u >> 24)
	}
}

func putFloat32LE(dst []byte, v float32) {
	u := math.Float32bits(v)
	dst[0] = byte(u)
	dst[1] = byte(u >> 8)
	dst[2] = byte(u >> 16)
	dst[3] = byte(u >> 24)
}
