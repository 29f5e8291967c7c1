package mastering

// RawAudio is the raw decoded signal a Loader returns: one or more
// channel buffers at the file's native sample rate. A mono file
// returns a single channel; the core promotes it to stereo.
type RawAudio struct {
	Channels   [][]float64
	SampleRate float64
}

// Loader decodes an audio source into raw PCM channels. The core calls
// a Loader once for the target and once for the reference at stage 0
// and owns everything downstream of the decode: mono promotion,
// channel-count validation, and resampling to the internal rate. A
// Loader implementation only decodes a container format; it is an
// external collaborator, not part of the core.
type Loader interface {
	Load(source string) (RawAudio, error)
}

// Saver writes pcm to path at sampleRate, quantized to bitDepth. The
// core never inspects the container format; that is entirely the
// Saver's concern.
type Saver interface {
	Save(path string, pcm Stereo, sampleRate float64, bitDepth BitDepth) error
}
