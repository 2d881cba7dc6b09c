package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Pause lengths inherited from the original production mix: half a second of
// lead-in, a short beat between speaker turns.
const (
	leadInPause    = 500 * time.Millisecond
	interTurnPause = 300 * time.Millisecond
)

// wavFormat is the PCM shape shared by every segment of one artifact.
type wavFormat struct {
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

func (f wavFormat) blockAlign() int { return int(f.channels) * int(f.bitsPerSample) / 8 }
func (f wavFormat) byteRate() int   { return int(f.sampleRate) * f.blockAlign() }

// decodeWAV walks the RIFF chunk list and returns the format plus raw PCM
// samples. Chunks other than fmt and data are skipped.
func decodeWAV(data []byte) (wavFormat, []byte, error) {
	var f wavFormat
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return f, nil, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var pcm []byte
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body // tolerate a truncated final chunk
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return f, nil, fmt.Errorf("fmt chunk too short")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return f, nil, fmt.Errorf("unsupported audio format %d, want PCM", audioFormat)
			}
			f.channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			f.sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			f.bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			// A zero field would divide by zero in every frame computation.
			if f.channels == 0 || f.sampleRate == 0 || f.bitsPerSample == 0 {
				return f, nil, fmt.Errorf("fmt chunk declares a zero field: %+v", f)
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}
		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if !haveFmt || pcm == nil {
		return f, nil, fmt.Errorf("missing fmt or data chunk")
	}
	return f, pcm, nil
}

// encodeWAV wraps PCM samples in a canonical 44-byte RIFF header.
func encodeWAV(f wavFormat, pcm []byte) []byte {
	out := make([]byte, 44+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], f.channels)
	binary.LittleEndian.PutUint32(out[24:28], f.sampleRate)
	binary.LittleEndian.PutUint32(out[28:32], uint32(f.byteRate()))
	binary.LittleEndian.PutUint16(out[32:34], uint16(f.blockAlign()))
	binary.LittleEndian.PutUint16(out[34:36], f.bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}

// silence returns d worth of zero samples, rounded down to a whole frame.
func silence(f wavFormat, d time.Duration) []byte {
	n := int(float64(f.byteRate()) * d.Seconds())
	n -= n % f.blockAlign()
	return make([]byte, n)
}

// mergeSegments concatenates WAV segments into one stream with the standard
// lead-in and inter-turn pauses. All segments must share one PCM format.
func mergeSegments(segments [][]byte) ([]byte, time.Duration, error) {
	if len(segments) == 0 {
		return nil, 0, fmt.Errorf("no segments to merge")
	}

	format, first, err := decodeWAV(segments[0])
	if err != nil {
		return nil, 0, fmt.Errorf("segment 0: %w", err)
	}

	pcm := append(silence(format, leadInPause), first...)
	for i, seg := range segments[1:] {
		f, body, err := decodeWAV(seg)
		if err != nil {
			return nil, 0, fmt.Errorf("segment %d: %w", i+1, err)
		}
		if f != format {
			return nil, 0, fmt.Errorf("segment %d has format %+v, want %+v", i+1, f, format)
		}
		pcm = append(pcm, silence(format, interTurnPause)...)
		pcm = append(pcm, body...)
	}

	duration := time.Duration(float64(len(pcm)) / float64(format.byteRate()) * float64(time.Second))
	return encodeWAV(format, pcm), duration, nil
}
