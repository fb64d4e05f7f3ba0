// Package messagevault provides the shared ambient types (errors, logging,
// metrics) used by the append-only log engine implemented in the
// message, pagestore, checkpoint, pagereader, writer, and reader packages.
//
// # Quick Start
//
// Local mode:
//
//	store := pagestore.NewFileStore("./data/stream.dat", pagestore.DefaultPageSize, pagestore.DefaultMaxCommitSize)
//	chk := checkpoint.NewFileCheckpoint("./data/stream.chk")
//	w, _ := writer.Open(ctx, store, chk)
//	defer w.Close()
//	newL, _ := w.Append(ctx, writer.AppendMessage{Contract: contract, Payload: payload})
//
// Cloud mode:
//
//	store := pagestore.NewS3Store(s3Client, "my-bucket", "logs/orders", pagestore.DefaultPageSize, pagestore.DefaultMaxCommitSize)
//	chk := checkpoint.NewDynamoCheckpoint(ddbClient, "vault-commits", "logs/orders")
//	r := reader.New(store, chk, 64*1024)
//	l, _ := r.Position(ctx)
//	msgs, next, _ := r.Read(ctx, 0, l, 100)
//
// # Durability Model
//
// A single Writer buffers framed messages in RAM and periodically rewrites
// whole pages to a Page Storage blob; the Checkpoint is only advanced after
// every page for a batch has been persisted, so readers never observe a
// partial message. See SPEC_FULL.md for the full component breakdown.
package messagevault
