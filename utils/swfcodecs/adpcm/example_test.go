package adpcm_test

import (
	"fmt"

	"haruki-swf-extractor/utils/swfcodecs/adpcm"
)

func ExampleDecoder_Next() {
	// 4-bit codes, predictor 0, step index 0, then codes +7 and -0.
	block := []byte{0x80, 0x00, 0x00, 0x78}

	d, err := adpcm.NewDecoder(block, false)
	if err != nil {
		fmt.Println(err)
		return
	}
	for {
		f, ok := d.Next()
		if !ok {
			break
		}
		fmt.Println(f[0])
	}
	// Output:
	// 13
	// 11
}
