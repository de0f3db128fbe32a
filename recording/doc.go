// Package recording captures the batches a renderer submits so a frame can
// be dumped, inspected and replayed.
//
// A Recorder sits between the batch accumulator and the device backend. It
// forwards each batch unchanged and keeps a copy together with a snapshot of
// every texture the batch binds:
//
//	rec := recording.NewRecorder(registry)
//	r, _ := imdraw.New(imdraw.WithRecorder(rec))
//	// ... draw frames ...
//	f, _ := os.Create("frame.imdrec")
//	err := rec.Recording().Encode(f)
//
// The file format is a four byte magic followed by a zstd-compressed msgpack
// document. Decode reads it back, and Replay or ReplayInto feeds the batches
// to any Submitter in their original order.
package recording
