package audio_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio/audiotest"
)

func TestReadCAFInfo(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		formatID string
		want     audio.SampleFormat
	}{
		{"lpcm 24", audiotest.LPCM(audio.PCM24), "lpcm", audio.PCM24},
		{"lpcm float", audiotest.LPCM(audio.Float32), "lpcm", audio.Float32},
		{"aac", audiotest.CAF("aac ", 0, 0), "aac ", audio.SampleFormat{}},
		{"alac", audiotest.CAF("alac", 1, 0), "alac", audio.SampleFormat{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := audio.ReadCAFInfo(bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.formatID, info.FormatID)
			assert.Equal(t, tt.want, info.SampleFormat())
			assert.Equal(t, 44100.0, info.SampleRate)
			assert.Equal(t, uint32(2), info.Channels)
		})
	}
}

func TestReadCAFInfo_Errors(t *testing.T) {
	valid := audiotest.LPCM(audio.PCM16)

	_, err := audio.ReadCAFInfo(bytes.NewReader(valid[:4]))
	assert.True(t, errors.Is(err, audio.ErrNotCAF))

	wrongMagic := append([]byte("RIFF"), valid[4:]...)
	_, err = audio.ReadCAFInfo(bytes.NewReader(wrongMagic))
	assert.True(t, errors.Is(err, audio.ErrNotCAF))

	noDesc := append(append([]byte{}, valid[:8]...), []byte("data\x00\x00\x00\x00\x00\x00\x00\x04")...)
	_, err = audio.ReadCAFInfo(bytes.NewReader(noDesc))
	assert.True(t, errors.Is(err, audio.ErrNotCAF))

	_, err = audio.ReadCAFInfo(bytes.NewReader(valid[:30]))
	assert.Error(t, err)
}
