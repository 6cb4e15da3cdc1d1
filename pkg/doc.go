// Package pkg provides the core libraries for brickwall gallery layouts.
//
// # Overview
//
// Brickwall lays out an image gallery as a "brick wall": images are grouped
// into rows by a coarse weight derived from their aspect ratio, and every
// row is scaled to the same width so that all images in a row share one
// height. The pkg directory is organized into three areas:
//
//  1. Domain logic: [brick], [paging], [gallery], [probe]
//  2. Rendering: [render/sink]
//  3. Infrastructure: [pipeline], [cache], [store], [config], [errors],
//     [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	catalog (TOML/JSON)
//	         ↓
//	    [gallery] package (load, filter by tag)
//	         ↓
//	    [paging] package (select one page)
//	         ↓
//	    [probe] package (discover natural sizes, in completion order)
//	         ↓
//	    [brick] package (assemble in order → pack rows → scale → stack)
//	         ↓
//	    [render/sink] package (HTML, SVG, JSON, PNG)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/brickwall/pkg/brick"
//	    "github.com/matzehuels/brickwall/pkg/render/sink"
//	)
//
//	sizes := []brick.Size{{Width: 1600, Height: 900}, {Width: 800, Height: 1200}}
//	l := brick.Compute(sizes, brick.DefaultConfig())
//	svg := sink.RenderSVG(sink.Wall{Layout: l})
//
// Most callers use [pipeline.Runner], which performs every step with
// caching and is shared by the CLI and the HTTP server.
//
// # Main Packages
//
// [brick] - Row packer, row scaler, ordered completion (Assembler) and the
// stacked layout. Pure functions with no I/O.
//
// [paging] - Explicit paging state with First/Next/Prev/Goto transitions.
//
// [gallery] - Catalog model and TOML/JSON loading. Items carry src, date,
// description paragraphs, tags and an optional declared size.
//
// [probe] - Concurrent image header decoding (JPEG, PNG, GIF, WebP) with an
// errgroup worker pool. Results are reported as they complete.
//
// [render/sink] - Output formats. HTML pages, SVG wireframes, JSON layout
// exports and PNG contact sheets.
//
// [pipeline] - Select → probe → layout → render with caching, used by the CLI
// and the server.
//
// [cache] - Null, memory, file and Redis caches with a key scheme per stage.
//
// [store] - Persisted render records in memory, on disk or in MongoDB.
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Structured errors with codes that map to exit and HTTP status.
//
// [observability] - Hook interfaces for metrics and tracing with no-op
// defaults.
//
// [brick]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/brick
// [paging]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/paging
// [gallery]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/gallery
// [probe]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/probe
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/pipeline#Runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/brickwall/pkg/buildinfo
package pkg
