// Package adpcm decodes the Flash flavour of IMA ADPCM used by SWF
// DefineSound and SoundStreamBlock payloads.
//
// A block starts with a 2-bit field holding the code width minus two. It is
// followed by packets: every packet carries, per channel, a signed 16-bit
// initial predictor and a 6-bit step index, then up to 4095 frames of codes.
// Stereo frames store the left code before the right one. All fields are read
// most-significant-bit first and nothing is byte aligned.
package adpcm

import (
	"fmt"
	"iter"

	"haruki-swf-extractor/utils/bitstream"
)

// Frame is one decoded sample per channel. Mono frames only use index 0.
type Frame [2]int16

// channelState is the adaptive predictor for one channel. It lives for one
// packet and is reseeded from the next packet header.
type channelState struct {
	predictor int32
	stepIndex int
}

func clampStepIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > maxStepIndex {
		return maxStepIndex
	}
	return i
}

func clampSample(v int32) int32 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}

// step applies one code to the channel and returns the new sample.
func (c *channelState) step(t codeTable, code uint32) int16 {
	stepSize := stepSizeTable[c.stepIndex]
	m := code &^ t.signMask

	delta := (magnitude(m) * stepSize) >> t.shift
	if code&t.signMask != 0 {
		delta = -delta
	}
	c.predictor = clampSample(c.predictor + delta)
	c.stepIndex = clampStepIndex(c.stepIndex + t.indexDelta[m])
	return int16(c.predictor)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithFrameLimit stops decoding after n frames. Values <= 0 mean no limit.
func WithFrameLimit(n int) Option {
	return func(d *Decoder) {
		d.limit = n
	}
}

// Decoder is a single-pass frame source over one compressed block.
type Decoder struct {
	br       *bitstream.Reader
	table    codeTable
	channels int
	state    [2]channelState

	limit   int
	emitted int
	inPack  int // frames decoded since the last packet header
	done    bool
}

// NewDecoder validates the block header and prepares the first packet.
func NewDecoder(data []byte, stereo bool, opts ...Option) (*Decoder, error) {
	channels := 1
	if stereo {
		channels = 2
	}
	need := widthFieldBits + channels*headerBits
	if len(data)*8 < need {
		return nil, fmt.Errorf("%w: %d bytes cannot hold a %d-channel header", ErrInvalidHeader, len(data), channels)
	}

	br := bitstream.NewReader(data)
	field, err := br.Read(widthFieldBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	bits := int(field) + minCodeBits
	table, ok := tableFor(bits)
	if !ok {
		return nil, fmt.Errorf("%w: code width %d", ErrInvalidHeader, bits)
	}

	d := &Decoder{
		br:       br,
		table:    table,
		channels: channels,
	}
	for _, opt := range opts {
		opt(d)
	}
	if !d.readPacketHeader() {
		return nil, fmt.Errorf("%w: truncated packet header", ErrInvalidHeader)
	}
	return d, nil
}

// BitsPerCode returns the code width in bits (2..5).
func (d *Decoder) BitsPerCode() int {
	return d.table.bits
}

// Channels returns 1 for mono and 2 for stereo.
func (d *Decoder) Channels() int {
	return d.channels
}

// readPacketHeader seeds every channel. It reports false when the header is
// incomplete, which ends the block.
func (d *Decoder) readPacketHeader() bool {
	if d.br.Remaining() < d.channels*headerBits {
		return false
	}
	for ch := 0; ch < d.channels; ch++ {
		predictor, err := d.br.ReadSigned(predictorBits)
		if err != nil {
			return false
		}
		index, err := d.br.Read(stepIndexBits)
		if err != nil {
			return false
		}
		d.state[ch] = channelState{
			predictor: predictor,
			stepIndex: clampStepIndex(int(index)),
		}
	}
	d.inPack = 0
	return true
}

// Next decodes one frame. It returns false once the block is exhausted, the
// frame limit is reached, or fewer bits remain than a full frame needs.
func (d *Decoder) Next() (Frame, bool) {
	var f Frame
	if d.done {
		return f, false
	}
	if d.limit > 0 && d.emitted >= d.limit {
		d.done = true
		return f, false
	}
	if d.inPack == FramesPerPacket && !d.readPacketHeader() {
		d.done = true
		return f, false
	}
	if d.br.Remaining() < d.channels*d.table.bits {
		d.done = true
		return f, false
	}

	for ch := 0; ch < d.channels; ch++ {
		code, err := d.br.Read(d.table.bits)
		if err != nil {
			d.done = true
			return Frame{}, false
		}
		f[ch] = d.state[ch].step(d.table, code)
	}
	d.inPack++
	d.emitted++
	return f, true
}

// Frames yields the remaining frames. The sequence shares the decoder cursor,
// so ranging over it twice yields nothing the second time.
func (d *Decoder) Frames() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for {
			f, ok := d.Next()
			if !ok || !yield(f) {
				return
			}
		}
	}
}

// AppendPCM appends the remaining frames as interleaved samples.
func (d *Decoder) AppendPCM(dst []int16) []int16 {
	for f := range d.Frames() {
		dst = append(dst, f[0])
		if d.channels == 2 {
			dst = append(dst, f[1])
		}
	}
	return dst
}

// DecodeAll decodes a whole block into interleaved 16-bit samples.
func DecodeAll(data []byte, stereo bool, opts ...Option) ([]int16, error) {
	d, err := NewDecoder(data, stereo, opts...)
	if err != nil {
		return nil, err
	}
	return d.AppendPCM(nil), nil
}
