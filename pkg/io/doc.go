// Package io writes finished layouts to their destinations and reads them
// back.
//
// # Summary Format
//
// A layout summary is one JSON document describing the canvas and the
// packed components, followed by the positions:
//
//	{
//	  "run_id": "5f0c...",
//	  "width": 812.4,
//	  "height": 410.0,
//	  "positions": [{"id": 1, "x": 0, "y": 12.5, "component": 1}],
//	  "components": [{"id": 1, "nodes": 120, "scale": 1, "offset_x": 0, "offset_y": 0}]
//	}
//
// Use [ExportJSON] and [ImportJSON] for files, [WriteJSON] and [ReadJSON]
// for streams.
//
// # Sinks
//
// A [Sink] receives the layout at the end of a run:
//
//   - [FileSink] writes positions as JSON lines (one {"id","x","y","component"}
//     object per line) and, optionally, the summary next to them
//   - [MongoSink] inserts one document per position into a MongoDB
//     collection, tagged with the run ID, plus a run document
//
// Sinks can be combined with [Multi].
package io
