package brick_test

import (
	"fmt"

	"github.com/matzehuels/brickwall/pkg/brick"
)

func ExamplePacker_Pack() {
	sizes := []brick.Size{
		{Width: 2000, Height: 1000}, // 2:1, weight 6
		{Width: 1200, Height: 1000}, // 1.2:1, weight 2.5
		{Width: 800, Height: 1000},  // portrait, weight 1
	}

	for _, row := range brick.DefaultPacker().Pack(sizes) {
		fmt.Printf("start=%d images=%d weight=%.1f\n", row.Start, row.Len(), row.Weight)
	}
	// Output:
	// start=0 images=1 weight=6.0
	// start=1 images=2 weight=3.5
}

func ExampleScaler_Scale() {
	row := []brick.Size{
		{Width: 800, Height: 600},
		{Width: 800, Height: 400},
	}

	for _, s := range (brick.Scaler{Width: 800}).Scale(row) {
		w, h := s.Round()
		fmt.Printf("%dx%d\n", w, h)
	}
	// Output:
	// 320x240
	// 480x240
}

func ExampleAssembler() {
	sizes := []brick.Size{
		{Width: 2000, Height: 1000},
		{Width: 1200, Height: 1000},
		{Width: 800, Height: 1000},
	}
	a := brick.NewAssembler(brick.DefaultPacker(), len(sizes))

	// Sizes arrive out of order; rows are only emitted for the known prefix.
	for _, i := range []int{2, 0, 1} {
		rows, _ := a.Add(i, sizes[i])
		fmt.Printf("loaded %d: %d rows, blocked at %d\n", i, len(rows), a.Blocked())
	}
	// Output:
	// loaded 2: 0 rows, blocked at 0
	// loaded 0: 0 rows, blocked at 1
	// loaded 1: 2 rows, blocked at -1
}
