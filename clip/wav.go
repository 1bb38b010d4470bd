package clip

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// WriteStereoWAV writes interleaved stereo float samples as 16-bit PCM,
// creating parent directories as needed.
func WriteStereoWAV(path string, interleaved []float32, sampleRate int) error {
	if len(interleaved)%2 != 0 {
		return fmt.Errorf("interleaved stereo data has odd length %d", len(interleaved))
	}
	return writeWAV(path, interleaved, sampleRate, 2)
}

// WriteMonoWAV writes mono float samples as 16-bit PCM.
func WriteMonoWAV(path string, data []float32, sampleRate int) error {
	return writeWAV(path, data, sampleRate, 1)
}

// WriteClip writes c as a stereo WAV file.
func WriteClip(path string, c *Clip) error {
	if c.Frames() == 0 {
		return ErrEmpty
	}
	data := make([]float32, c.Frames()*2)
	for i := range c.Left {
		data[i*2] = c.Left[i]
		data[i*2+1] = c.Right[i]
	}
	return WriteStereoWAV(path, data, c.SampleRate)
}

func writeWAV(path string, data []float32, sampleRate, channels int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
