package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// ErrNotWAV reports input without a RIFF/WAVE header.
var ErrNotWAV = errors.New("not a RIFF/WAVE stream")

// IsWAV reports whether header starts a RIFF/WAVE stream.
func IsWAV(header []byte) bool {
	return len(header) >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "WAVE"
}

// DecodeWAV parses a PCM or float WAV stream along with its INFO tags.
func DecodeWAV(r io.Reader) (*Buffer, Tags, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Tags{}, fmt.Errorf("read wav: %w", err)
	}
	if !IsWAV(data) {
		return nil, Tags{}, ErrNotWAV
	}

	var (
		format, channels, bits uint16
		rate                   uint32
		haveFormat             bool
		pcm                    []byte
		tags                   Tags
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		// Streamed output may carry a placeholder size; take what is there.
		if size < 0 || body+size > len(data) || (id == "data" && size == 0) {
			size = len(data) - body
		}
		chunk := data[body : body+size]
		switch id {
		case "fmt ":
			if len(chunk) < 16 {
				return nil, Tags{}, errors.New("wav: short fmt chunk")
			}
			format = binary.LittleEndian.Uint16(chunk[0:2])
			channels = binary.LittleEndian.Uint16(chunk[2:4])
			rate = binary.LittleEndian.Uint32(chunk[4:8])
			bits = binary.LittleEndian.Uint16(chunk[14:16])
			if format == wavFormatExtensible && len(chunk) >= 26 {
				format = binary.LittleEndian.Uint16(chunk[24:26])
			}
			haveFormat = true
		case "data":
			pcm = chunk
		case "LIST":
			if len(chunk) >= 4 && string(chunk[0:4]) == "INFO" {
				tags = parseInfo(chunk[4:])
			}
		}
		pos = body + size + size%2
	}

	if !haveFormat {
		return nil, Tags{}, errors.New("wav: missing fmt chunk")
	}
	if channels == 0 || rate == 0 {
		return nil, Tags{}, fmt.Errorf("wav: invalid format %d ch at %d Hz", channels, rate)
	}
	buf, err := decodeSamples(pcm, format, int(channels), int(bits))
	if err != nil {
		return nil, Tags{}, err
	}
	buf.SampleRate = int(rate)
	buf.SampleWidth = int(bits)
	return buf, tags, nil
}

func decodeSamples(pcm []byte, format uint16, channels, bits int) (*Buffer, error) {
	if bits <= 0 || bits%8 != 0 {
		return nil, fmt.Errorf("wav: unsupported sample width %d", bits)
	}
	width := bits / 8
	var sample func([]byte) float64
	switch {
	case format == wavFormatPCM && bits == 8:
		sample = func(b []byte) float64 { return (float64(b[0]) - 128) / 128 }
	case format == wavFormatPCM && bits == 16:
		sample = func(b []byte) float64 { return float64(int16(binary.LittleEndian.Uint16(b))) / 32768 }
	case format == wavFormatPCM && bits == 24:
		sample = func(b []byte) float64 {
			v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
			return float64(v) / 8388608
		}
	case format == wavFormatPCM && bits == 32:
		sample = func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648 }
	case format == wavFormatFloat && bits == 32:
		sample = func(b []byte) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) }
	case format == wavFormatFloat && bits == 64:
		sample = func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
	default:
		return nil, fmt.Errorf("wav: unsupported encoding %d at %d bits", format, bits)
	}

	frameSize := width * channels
	frames := len(pcm) / frameSize
	buf := NewBuffer(0, bits, channels, frames)
	for i := 0; i < frames; i++ {
		frame := pcm[i*frameSize:]
		for c := 0; c < channels; c++ {
			buf.Samples[c][i] = sample(frame[c*width : (c+1)*width])
		}
	}
	return buf, nil
}

// EncodeWAV writes b as 16-bit PCM.
func EncodeWAV(w io.Writer, b *Buffer) error {
	channels := b.Channels()
	if channels == 0 || b.SampleRate <= 0 {
		return fmt.Errorf("wav: cannot encode %d ch at %d Hz", channels, b.SampleRate)
	}
	frames := b.Frames()
	dataSize := frames * channels * 2

	var out bytes.Buffer
	out.Grow(44 + dataSize)
	out.WriteString("RIFF")
	writeUint32(&out, uint32(36+dataSize))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	writeUint32(&out, 16)
	writeUint16(&out, wavFormatPCM)
	writeUint16(&out, uint16(channels))
	writeUint32(&out, uint32(b.SampleRate))
	writeUint32(&out, uint32(b.SampleRate*channels*2))
	writeUint16(&out, uint16(channels*2))
	writeUint16(&out, 16)
	out.WriteString("data")
	writeUint32(&out, uint32(dataSize))
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			writeUint16(&out, uint16(toInt16(b.Samples[c][i])))
		}
	}
	_, err := w.Write(out.Bytes())
	return err
}

func toInt16(v float64) int16 {
	switch {
	case v >= 1:
		return math.MaxInt16
	case v <= -1:
		return math.MinInt16
	default:
		return int16(math.Round(v * 32767))
	}
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func parseInfo(list []byte) Tags {
	var tags Tags
	pos := 0
	for pos+8 <= len(list) {
		id := string(list[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(list[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(list) {
			break
		}
		value := strings.TrimSpace(strings.TrimRight(string(list[body:body+size]), "\x00"))
		switch id {
		case "IART":
			tags.Artist = value
		case "INAM":
			tags.Title = value
		case "IPRD":
			tags.Album = value
		case "ICRD":
			tags.Date = value
		case "ITRK", "IPRT":
			tags.Track = value
		}
		pos = body + size + size%2
	}
	return tags
}
