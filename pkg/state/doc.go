// Package state defines persistence-facing contracts for checkpointing and
// resuming wizard drafts.
//
// Responsibilities:
//   - Store[T] only loads/saves a single snapshot for a single Ref.
//   - Resolver[T] layers a stored snapshot over defaults on resume and
//     guards writes with ETags on checkpoint.
//   - The listing package stays persistence-agnostic; database adapters live
//     behind Store implementations supplied by consumers.
//
// Data flow:
//
//	Wizard.Checkpoint -> Resolver.Checkpoint -> Store.Save
//	Store.Load -> Resolver.Resume -> layering.MergeLayers(stored, defaults)
//
// Deterministic keys:
//
//	Ref.Identifier() renders "<domain>/<owner>/<draft>" with domain defaulting
//	to "listing".
//
// Concurrency:
//
//	Every save gets a fresh ETag. Passing the last seen ETag as the expected
//	Meta makes a concurrent writer fail with ErrETagMismatch instead of
//	overwriting.
package state
