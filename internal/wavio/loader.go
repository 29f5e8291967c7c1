package wavio

import (
	"fmt"
	"io"
	"os"

	"github.com/reftone/refmaster/mastering"
)

// Loader implements mastering.Loader by decoding a PCM or IEEE-float
// WAV file into per-channel float64 buffers. It does not resample; the
// core orchestrator resamples to its internal rate itself.
type Loader struct{}

// Load opens path, parses the RIFF/WAVE container, and decodes the
// data chunk into deinterleaved channels.
func (Loader) Load(path string) (mastering.RawAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return mastering.RawAudio{}, err
	}
	defer f.Close()

	return decode(f)
}

func decode(r io.Reader) (mastering.RawAudio, error) {
	id, _, err := readChunkHeader(r)
	if err != nil {
		return mastering.RawAudio{}, err
	}

	if id != "RIFF" {
		return mastering.RawAudio{}, ErrNotRIFF
	}

	var wave [4]byte
	if _, err := io.ReadFull(r, wave[:]); err != nil {
		return mastering.RawAudio{}, err
	}

	if string(wave[:]) != "WAVE" {
		return mastering.RawAudio{}, ErrNotRIFF
	}

	var format wavFormat
	haveFormat := false

	for {
		chunkID, size, err := readChunkHeader(r)
		if err == io.EOF {
			break
		}

		if err != nil {
			return mastering.RawAudio{}, err
		}

		switch chunkID {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return mastering.RawAudio{}, err
			}

			format, err = parseFmtChunk(body)
			if err != nil {
				return mastering.RawAudio{}, err
			}

			haveFormat = true

		case "data":
			if !haveFormat {
				return mastering.RawAudio{}, ErrNoFmtChunk
			}

			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return mastering.RawAudio{}, err
			}

			return deinterleave(body, format)

		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return mastering.RawAudio{}, err
			}
		}

		if size%2 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				return mastering.RawAudio{}, err
			}
		}
	}

	return mastering.RawAudio{}, ErrNoDataChunk
}

func parseFmtChunk(body []byte) (wavFormat, error) {
	if len(body) < fmtChunkSize {
		return wavFormat{}, fmt.Errorf("%w: fmt chunk too short", ErrNoFmtChunk)
	}

	return wavFormat{
		audioFormat:   leUint16(body[0:2]),
		numChannels:   leUint16(body[2:4]),
		sampleRate:    leUint32(body[4:8]),
		bitsPerSample: leUint16(body[14:16]),
	}, nil
}

func deinterleave(data []byte, f wavFormat) (mastering.RawAudio, error) {
	if f.numChannels == 0 {
		return mastering.RawAudio{}, fmt.Errorf("%w: zero channels", ErrUnsupportedFormat)
	}

	bps := bytesPerSample(f)
	frameSize := bps * int(f.numChannels)

	if frameSize == 0 {
		return mastering.RawAudio{}, fmt.Errorf("%w: zero-size frame", ErrUnsupportedFormat)
	}

	numFrames := len(data) / frameSize
	channels := make([][]float64, f.numChannels)

	for c := range channels {
		channels[c] = make([]float64, numFrames)
	}

	for i := 0; i < numFrames; i++ {
		frame := data[i*frameSize : (i+1)*frameSize]

		for c := 0; c < int(f.numChannels); c++ {
			raw := frame[c*bps : (c+1)*bps]

			v, err := decodeSample(raw, f)
			if err != nil {
				return mastering.RawAudio{}, err
			}

			channels[c][i] = v
		}
	}

	return mastering.RawAudio{Channels: channels, SampleRate: float64(f.sampleRate)}, nil
}

func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
