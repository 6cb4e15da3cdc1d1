// Package sink renders a laid-out gallery page to output formats.
//
// Every renderer takes a [Wall]: the page's items, their computed
// [brick.Layout] and the paging state. Cell indexes in the layout point into
// Wall.Items.
//
//   - [RenderHTML] writes a standalone page: rows of image cells, each with a
//     caption, date and description, linking to the full-size image.
//   - [RenderSVG] draws a wireframe of the wall, useful for checking layouts
//     without the images.
//   - [RenderJSON] exports positions and item metadata.
//   - [RenderPNG] composes a contact sheet from the image files.
package sink
