package adpcm

// bitWriter packs fields most-significant-bit first, mirroring the reader.
type bitWriter struct {
	buf []byte
	n   int
}

func (w *bitWriter) write(v uint32, bits int) {
	for i := bits - 1; i >= 0; i-- {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if (v>>uint(i))&1 == 1 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.n%8)
		}
		w.n++
	}
}

func (w *bitWriter) writeHeader(predictor int16, index int) {
	w.write(uint32(uint16(predictor)), predictorBits)
	w.write(uint32(index), stepIndexBits)
}

// encodeBlock is a brute-force reference encoder. For every input sample it
// tries each code, keeps the one landing closest to the target and advances
// its own channel state exactly like the decoder does. It returns the block
// and the samples a decoder must reproduce.
func encodeBlock(channels [][]int16, bits int) ([]byte, [][]int16) {
	t, ok := tableFor(bits)
	if !ok {
		panic("bad width")
	}
	w := &bitWriter{}
	w.write(uint32(bits-minCodeBits), widthFieldBits)

	n := len(channels[0])
	states := make([]channelState, len(channels))
	for ch := range channels {
		states[ch] = channelState{predictor: int32(channels[ch][0]), stepIndex: 20}
	}
	expected := make([][]int16, len(channels))

	for i := 0; i < n; i++ {
		if i%FramesPerPacket == 0 {
			for ch := range channels {
				idx := min(states[ch].stepIndex, 1<<stepIndexBits-1)
				states[ch].stepIndex = idx
				w.writeHeader(int16(states[ch].predictor), idx)
			}
		}
		for ch := range channels {
			target := int32(channels[ch][i])
			bestCode := uint32(0)
			bestErr := int32(-1)
			for code := uint32(0); code < 1<<uint(bits); code++ {
				trial := states[ch]
				got := int32(trial.step(t, code))
				diff := got - target
				if diff < 0 {
					diff = -diff
				}
				if bestErr < 0 || diff < bestErr {
					bestErr = diff
					bestCode = code
				}
			}
			expected[ch] = append(expected[ch], states[ch].step(t, bestCode))
			w.write(bestCode, bits)
		}
	}
	return w.buf, expected
}
