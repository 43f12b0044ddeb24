// Command pvshift pitch-shifts and time-stretches WAV files through the
// streaming phase-vocoder engine.
//
// Usage:
//
//	pvshift -in input.wav -out output.wav [flags]
//
// Examples:
//
//	pvshift -in voice.wav -out up.wav -semitones 12
//	pvshift -in drums.wav -out slow.wav -stretch 2
//	pvshift -in mix.wav -out subtle.wav -semitones 3 -mix 0.5 -frame 4096
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/youpy/go-wav"

	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/phasevoc"
)

const blockSize = 4096

func main() {
	in := flag.String("in", "", "input WAV file (required)")
	out := flag.String("out", "", "output WAV file (required)")
	semitones := flag.Float64("semitones", 0, "pitch shift in semitones (-24..24)")
	stretch := flag.Float64("stretch", 1, "time stretch factor (0.25..4, 2 = twice as long)")
	mix := flag.Float64("mix", 1, "dry/wet mix (0 = dry, 1 = processed)")
	frame := flag.Int("frame", 2048, "FFT frame size (power of two >= 256)")
	overlap := flag.Int("overlap", 4, "analysis overlap factor (2..8)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pvshift -in input.wav -out output.wav [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Pitch-shifts and time-stretches WAV files with a phase vocoder.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pvshift -in voice.wav -out up.wav -semitones 12\n")
		fmt.Fprintf(os.Stderr, "  pvshift -in drums.wav -out slow.wav -stretch 2\n")
	}
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*in, *out, *semitones, *stretch, *mix, *frame, *overlap); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(inPath, outPath string, semitones, stretch, mix float64, frame, overlap int) error {
	channels, sampleRate, err := readWAV(inPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inPath, err)
	}

	inputLen := len(channels[0])

	engine, err := phasevoc.New(float64(sampleRate),
		phasevoc.WithChannels(len(channels)),
		phasevoc.WithFrameSize(frame),
		phasevoc.WithOverlap(overlap),
		phasevoc.WithMaxBlockSize(blockSize),
	)
	if err != nil {
		return err
	}

	pitchRatio := math.Pow(2, semitones/12)
	engine.SetParameters(pitchRatio, stretch, mix)
	applied := engine.Parameters()

	fmt.Fprintf(os.Stderr, "%s: %d ch, %d Hz, %d samples; pitch x%.4f, stretch x%.2f, mix %.2f\n",
		inPath, len(channels), sampleRate, inputLen,
		applied.PitchRatio, applied.TimeStretchRatio, applied.Mix)

	rendered, err := renderAll(engine, channels)
	if err != nil {
		return err
	}

	// The first LatencySamples of output precede the first input sample;
	// drop them and cap the result at the stretched input length.
	latency := engine.LatencySamples()
	want := int(math.Round(float64(inputLen) * applied.TimeStretchRatio))
	for ch := range rendered {
		if len(rendered[ch]) > latency {
			rendered[ch] = rendered[ch][latency:]
		} else {
			rendered[ch] = nil
		}
		if len(rendered[ch]) > want {
			rendered[ch] = rendered[ch][:want]
		}
	}

	if err := writeWAV(outPath, rendered, sampleRate); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(os.Stderr, "%s: %d samples written\n", outPath, len(rendered[0]))

	return nil
}

// renderAll streams the whole file through the engine with the pull-driven
// Write/Read API, which handles both equal-rate and stretched output.
func renderAll(engine *phasevoc.Engine, channels [][]float64) ([][]float64, error) {
	numCh := len(channels)
	inputLen := len(channels[0])

	rendered := make([][]float64, numCh)
	inBlock := make([][]float64, numCh)
	outBlock := make([][]float64, numCh)
	for ch := range outBlock {
		outBlock[ch] = make([]float64, blockSize)
	}

	drain := func() error {
		for engine.Available() > 0 {
			n, err := engine.Read(outBlock, blockSize)
			if err != nil {
				return err
			}
			if n == 0 {
				break
			}
			for ch := range rendered {
				rendered[ch] = append(rendered[ch], outBlock[ch][:n]...)
			}
		}
		return nil
	}

	for offset := 0; offset < inputLen; offset += blockSize {
		n := blockSize
		if offset+n > inputLen {
			n = inputLen - offset
		}

		for ch := range inBlock {
			inBlock[ch] = channels[ch][offset : offset+n]
		}

		if err := engine.Write(inBlock, n); err != nil {
			return nil, err
		}

		if err := drain(); err != nil {
			return nil, err
		}
	}

	// Pad with silence so every written sample is covered by a full
	// analysis frame, then pull the tail.
	if err := engine.Flush(); err != nil {
		return nil, err
	}
	if err := engine.Flush(); err != nil {
		return nil, err
	}
	if err := drain(); err != nil {
		return nil, err
	}

	return rendered, nil
}

func readWAV(path string) ([][]float64, uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	reader := wav.NewReader(file)

	format, err := reader.Format()
	if err != nil {
		return nil, 0, err
	}

	numCh := int(format.NumChannels)
	if numCh < 1 {
		return nil, 0, fmt.Errorf("no channels in header")
	}

	channels := make([][]float64, numCh)

	for {
		samples, err := reader.ReadSamples()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		for _, sample := range samples {
			for ch := 0; ch < numCh; ch++ {
				channels[ch] = append(channels[ch], reader.FloatValue(sample, uint(ch)))
			}
		}
	}

	if len(channels[0]) == 0 {
		return nil, 0, fmt.Errorf("no samples")
	}

	return channels, format.SampleRate, nil
}

func writeWAV(path string, channels [][]float64, sampleRate uint32) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	numCh := len(channels)
	if numCh > 2 {
		fmt.Fprintf(os.Stderr, "%s: writing first 2 of %d channels (output is stereo at most)\n", path, numCh)
		numCh = 2
	}

	length := len(channels[0])
	writer := wav.NewWriter(file, uint32(length), uint16(numCh), sampleRate, 16)

	const fullScale = 1 << 15

	sample := make([]wav.Sample, 1)
	for i := 0; i < length; i++ {
		for ch := 0; ch < numCh; ch++ {
			v := channels[ch][i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}

			s := int(math.Round(v * (fullScale - 1)))
			sample[0].Values[ch] = s
		}

		if err := writer.WriteSamples(sample); err != nil {
			return err
		}
	}

	return nil
}
