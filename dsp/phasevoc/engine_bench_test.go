package phasevoc

import (
	"testing"

	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/internal/testutil"
)

func BenchmarkEngineProcess(b *testing.B) {
	sizes := []int{1024, 2048, 4096}
	for _, frameSize := range sizes {
		b.Run("frame_"+itoa(frameSize), func(b *testing.B) {
			const block = 512

			e, err := New(48000,
				WithFrameSize(frameSize),
				WithOverlap(4),
				WithMaxBlockSize(block),
			)
			if err != nil {
				b.Fatal(err)
			}

			e.SetParameters(1.5, 1, 1)

			in := [][]float64{testutil.DeterministicNoise(1, 1.0, block)}
			out := [][]float64{make([]float64, block)}

			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				if err := e.Process(in, out, block); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkVocoderStep(b *testing.B) {
	sizes := []int{1024, 4096}
	for _, frameSize := range sizes {
		b.Run("frame_"+itoa(frameSize), func(b *testing.B) {
			v := newVocoder(frameSize, frameSize/4, 48000)

			bins := frameSize/2 + 1
			mag := make([]float64, bins)
			phase := make([]float64, bins)
			for k := range mag {
				mag[k] = 1.0 / float64(k+1)
				phase[k] = float64(k%7) * 0.5
			}

			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				v.step(mag, phase, 1.5, frameSize/4)
			}
		})
	}
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}

	buf := [20]byte{}

	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}

	return string(buf[i:])
}
