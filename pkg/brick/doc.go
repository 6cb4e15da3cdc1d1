// Package brick computes justified "brick wall" gallery layouts.
//
// A brick wall is a sequence of rows in which every image of a row shares
// one rendered height and the row's total width equals a fixed target. The
// package splits the problem in two:
//
//   - [Packer] groups an ordered list of images into rows. Each image costs a
//     coarse number of blocks derived from its aspect ratio (see [Weights]),
//     and a row is closed as soon as the next image would push it over
//     [Packer.MaxBlocks].
//   - [Scaler] turns one row of natural sizes into final sizes that share a
//     height and fill [Scaler.Width].
//
// [Compute] combines both and stacks the rows into a [Layout].
//
// # Incremental packing
//
// Natural sizes are often discovered asynchronously (an image header has to
// be decoded or downloaded first) and arrive out of order. [Assembler]
// accepts sizes by original index in any order and emits rows only for the
// gapless prefix of known sizes. Its output is identical to [Packer.Pack]
// on the complete list.
//
//	a := brick.NewAssembler(brick.DefaultPacker(), len(items))
//	for ev := range loaded {
//	    rows, err := a.Add(ev.Index, ev.Size)
//	    if err != nil {
//	        return err
//	    }
//	    for _, row := range rows {
//	        render(row, scaler.Scale(row.Sizes))
//	    }
//	}
//
// All functions are pure; a zero or negative dimension passed to [Scaler] is
// a precondition violation. Use [Validate] or [Assembler] to reject such
// input first.
package brick
