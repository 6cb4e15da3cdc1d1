// Package gallery defines the image catalog that feeds the brick layout.
//
// A [Catalog] is an ordered list of [Item] values loaded once at start from
// a TOML or JSON file. Order matters: it is the order images appear on the
// wall. Natural sizes are optional in the catalog; missing sizes are
// discovered later by the probe package.
//
// # Catalog files
//
//	title = "Drawings"
//	image_root = "images"
//
//	[[images]]
//	src = "drawings/bella/bella.jpg"
//	date = "February 9, 2018"
//	description = ["All done with Bella.", "14x17 graphite on Bristol"]
//	tags = ["cat", "drawing"]
//	width = 1400
//	height = 1700
//
// Relative image_root values resolve against the catalog file's directory.
package gallery
