package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func samples(vals ...int16) []byte {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

func TestScalePCM16(t *testing.T) {
	tests := []struct {
		name string
		in   []int16
		gain float64
		want []int16
	}{
		{"half", []int16{1000, -1000, 0}, 0.5, []int16{500, -500, 0}},
		{"unity", []int16{123, -456}, 1, []int16{123, -456}},
		{"saturates high", []int16{30000}, 2, []int16{32767}},
		{"saturates low", []int16{-30000}, 2, []int16{-32768}},
		{"mute", []int16{32767, -32768}, 0, []int16{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := samples(tt.in...)
			got := ScalePCM16(in, tt.gain)
			want := samples(tt.want...)
			if string(got) != string(want) {
				t.Errorf("ScalePCM16 = %v, want %v", got, want)
			}
			if tt.gain != 1 && &got[0] == &in[0] {
				t.Error("Expected a copy")
			}
		})
	}
}

func TestScalePCM16OddLength(t *testing.T) {
	in := append(samples(100), 7)
	got := ScalePCM16(in, 0.5)
	if len(got) != 3 || got[2] != 7 {
		t.Errorf("Expected trailing byte kept, got %v", got)
	}
}

func TestFormatDuration(t *testing.T) {
	f := Format{SampleRate: 22050, Channels: 1}
	if d := f.Duration(44100); d != time.Second {
		t.Errorf("Expected 1s, got %v", d)
	}
	if n := len(f.Silence(500 * time.Millisecond)); n != 22050 {
		t.Errorf("Expected 22050 bytes of silence, got %d", n)
	}
	if (Format{}).Duration(100) != 0 {
		t.Error("Zero format should have zero duration")
	}
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		f     Format
		valid bool
	}{
		{Format{22050, 1}, true},
		{Format{48000, 2}, true},
		{Format{4000, 1}, false},
		{Format{22050, 3}, false},
	}
	for _, tt := range tests {
		if err := tt.f.Validate(); (err == nil) != tt.valid {
			t.Errorf("Validate(%+v) = %v", tt.f, err)
		}
	}
}
