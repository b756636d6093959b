package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// DecodePCM runs ffmpeg to turn any audio file into 16 kHz mono float32
// samples, the input format whisper.cpp expects.
func (r *Runner) DecodePCM(ctx context.Context, audioPath string) ([]float32, error) {
	var buf bytes.Buffer
	err := r.Run(ctx, Job{
		Label:  "Decoding audio",
		Args:   PCMArgs(audioPath),
		Stdout: &buf,
	})
	if err != nil {
		return nil, err
	}
	return bytesToFloat32(buf.Bytes())
}

func bytesToFloat32(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("pcm stream length %d is not a multiple of 4", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, nil
}
