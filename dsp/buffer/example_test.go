package buffer_test

import (
	"fmt"

	"github.com/cwbudde/neurotone/dsp/buffer"
)

func ExampleBuffer_DropFront() {
	b := buffer.New(0)
	b.Append(1, 2, 3, 4, 5, 6)

	window := b.Head(4)
	b.DropFront(2) // keep two samples of overlap

	fmt.Println(window)
	fmt.Println(b.Samples())

	// Output:
	// [1 2 3 4]
	// [3 4 5 6]
}
